// Package cmd wires the agent together behind a cobra CLI. The root command
// runs the whole service: the HTTP API plus the inbox inspection loop.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/12Rushikesh/damage-agent/internal/agent"
	"github.com/12Rushikesh/damage-agent/internal/config"
	"github.com/12Rushikesh/damage-agent/internal/dataset"
	"github.com/12Rushikesh/damage-agent/internal/detector"
	"github.com/12Rushikesh/damage-agent/internal/experience"
	"github.com/12Rushikesh/damage-agent/internal/feedback"
	"github.com/12Rushikesh/damage-agent/internal/history"
	"github.com/12Rushikesh/damage-agent/internal/llm"
	"github.com/12Rushikesh/damage-agent/internal/memory"
	"github.com/12Rushikesh/damage-agent/internal/server"
	"github.com/12Rushikesh/damage-agent/internal/service"
	"github.com/12Rushikesh/damage-agent/internal/thinker"
	"github.com/12Rushikesh/damage-agent/internal/vision"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "damage-agent",
	Short: "Human-in-the-loop damage inspection agent",
	Long: `Damage Agent watches an inbox of inspection images, runs each one
through an object detector and a vision reasoning model, and decides
whether to auto-accept the finding, defer to a human, reject it, or
schedule preventive maintenance. Every decision is audited and fed
back into the training dataset and the experience log.`,
	RunE: run,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".damage-agent.yml", "config file path")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	visionProvider := llm.NewChatProvider("vision", cfg.Vision)
	thinkerProvider := llm.NewChatProvider("thinker", cfg.Thinker)

	memStore := memory.NewStore(cfg.MemoryDir)
	reasoner := vision.NewReasoner(visionProvider, cfg.Vision.Model, cfg.Vision.Temperature)
	core := agent.New(reasoner, memStore, cfg.Decision)

	histStore, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer histStore.Close()

	expLog := experience.NewLogger(cfg.ExperienceLog)
	datasetWriter := dataset.NewWriter(cfg.Dataset, cfg.Classes)
	archive := feedback.NewArchive(cfg.Feedback)

	srv := server.New(cfg.Server, server.Deps{
		Memory:     memStore,
		Experience: expLog,
		Feedback:   archive,
		AuditDir:   cfg.AuditDir,
	})

	svc := service.New(cfg, service.Deps{
		Detector:   detector.NewHTTPDetector(cfg.Detector),
		Agent:      core,
		Thinker:    thinker.New(thinkerProvider, cfg.Thinker.Model, cfg.Thinker.Temperature),
		History:    histStore,
		Experience: expLog,
		Dataset:    datasetWriter,
		Retrainer:  dataset.NewRetrainer(cfg.Dataset.RetrainThreshold, cfg.Dataset.RetrainCommand, datasetWriter),
		Feedback:   archive,
		Publisher:  srv.Hub(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	loopErr := make(chan error, 1)
	go func() { loopErr <- svc.Run(ctx) }()

	select {
	case err := <-serverErr:
		stop()
		<-loopErr
		return fmt.Errorf("http server: %w", err)
	case err := <-loopErr:
		srv.Shutdown(context.Background())
		return err
	}
}
