package dataset

import (
	"log"
	"os/exec"
)

// Retrainer fires the external retraining command when the dataset reaches
// the configured size. Fire-and-forget: the command's result is never
// consumed by this process. At most one trigger per crossing.
type Retrainer struct {
	threshold int
	command   []string
	writer    *Writer
	triggered bool
}

// NewRetrainer creates a Retrainer. A zero threshold or empty command
// disables triggering.
func NewRetrainer(threshold int, command []string, writer *Writer) *Retrainer {
	return &Retrainer{
		threshold: threshold,
		command:   command,
		writer:    writer,
	}
}

// MaybeTrigger starts the retraining command if the dataset size threshold
// has been reached. Returns true if the command was started.
func (r *Retrainer) MaybeTrigger() bool {
	if r.triggered || r.threshold <= 0 || len(r.command) == 0 {
		return false
	}
	count := r.writer.Count()
	if count < r.threshold {
		return false
	}

	cmd := exec.Command(r.command[0], r.command[1:]...)
	if err := cmd.Start(); err != nil {
		log.Printf("dataset: starting retrain command: %v", err)
		return false
	}
	go cmd.Wait() // reap the child, result intentionally ignored

	log.Printf("dataset: retraining triggered at %d images", count)
	r.triggered = true
	return true
}
