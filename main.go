package main

import (
	"os"

	"github.com/12Rushikesh/damage-agent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
