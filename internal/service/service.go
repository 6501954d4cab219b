// Package service is the orchestrator: it polls the inbox for new images and
// drives each one through detection, decision, risk assessment, logging and
// archival. One image is processed end to end before the next is picked up.
package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/12Rushikesh/damage-agent/internal/agent"
	"github.com/12Rushikesh/damage-agent/internal/config"
	"github.com/12Rushikesh/damage-agent/internal/dataset"
	"github.com/12Rushikesh/damage-agent/internal/detector"
	"github.com/12Rushikesh/damage-agent/internal/experience"
	"github.com/12Rushikesh/damage-agent/internal/feedback"
	"github.com/12Rushikesh/damage-agent/internal/history"
	"github.com/12Rushikesh/damage-agent/internal/risk"
	"github.com/12Rushikesh/damage-agent/internal/thinker"
)

// Publisher receives every finished audit record, e.g. to fan it out to
// websocket subscribers. Publish must not block.
type Publisher interface {
	Publish(a *Audit)
}

// HistorySource supplies and accumulates per-asset detection history.
type HistorySource interface {
	ForAsset(ctx context.Context, asset string) ([]risk.Record, error)
	Append(ctx context.Context, asset string, dets []detector.Detection, ageYears float64) error
}

// Deps are the collaborators the orchestrator wires together. Detector,
// Agent and Experience are required; the rest may be nil and the
// corresponding step is skipped.
type Deps struct {
	Detector   detector.Detector
	Agent      *agent.Agent
	Thinker    *thinker.Thinker
	History    HistorySource
	Experience *experience.Logger
	Dataset    *dataset.Writer
	Retrainer  *dataset.Retrainer
	Feedback   *feedback.Archive
	Publisher  Publisher
}

// Service runs the inspection pipeline.
type Service struct {
	cfg  *config.Config
	deps Deps
	now  func() time.Time
}

func New(cfg *config.Config, deps Deps) *Service {
	return &Service{cfg: cfg, deps: deps, now: time.Now}
}

// Run polls the inbox until the context is cancelled. Images are processed
// strictly one at a time; cancellation is only observed between images, so a
// picked-up image always finishes its pipeline.
func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.Inbox.PollIntervalSeconds * float64(time.Second))
	if interval <= 0 {
		interval = 2 * time.Second
	}

	log.Printf("service: monitoring %s (every %s)", s.cfg.Inbox.Dir, interval)
	for {
		files, err := s.listInbox()
		if err != nil {
			log.Printf("service: listing inbox: %v", err)
		}

		for _, path := range files {
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			audit, err := s.ProcessImage(ctx, path)
			if err != nil {
				// The image stays in the inbox and is retried on
				// the next sweep.
				log.Printf("service: %s: %v", filepath.Base(path), err)
				continue
			}
			log.Printf("service: %s -> %s (risk %.2f)", audit.Image, audit.Action, audit.FailureRisk)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// listInbox returns matching inbox images sorted by name, so a batch is
// processed in a stable order.
func (s *Service) listInbox() ([]string, error) {
	entries, err := os.ReadDir(s.cfg.Inbox.Dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		for _, pattern := range s.cfg.Inbox.Patterns {
			ok, err := doublestar.Match(pattern, e.Name())
			if err != nil {
				return nil, fmt.Errorf("inbox pattern %q: %w", pattern, err)
			}
			if ok {
				files = append(files, filepath.Join(s.cfg.Inbox.Dir, e.Name()))
				break
			}
		}
	}
	return files, nil
}

// ProcessImage runs the full pipeline for a single image. An error means the
// audit record could not be written or the image could not be archived; the
// caller leaves the image in the inbox for a later retry.
func (s *Service) ProcessImage(ctx context.Context, imagePath string) (*Audit, error) {
	name := filepath.Base(imagePath)

	// A picked-up image always finishes with its real results: a shutdown
	// signal must not abort in-flight collaborator calls and archive the
	// image with fallback decisions. Cancellation is honored between
	// images, in Run.
	ctx = context.WithoutCancel(ctx)

	det, err := s.deps.Detector.Detect(ctx, imagePath)
	if err != nil {
		log.Printf("service: detector failed for %s: %v", name, err)
		det = detector.Empty()
	}

	yoloDec := s.deps.Agent.DetectorDecision(det.Predictions)

	agentOut, err := s.deps.Agent.Decide(ctx, imagePath, det.Boxes)
	if err != nil {
		return nil, fmt.Errorf("decision core: %w", err)
	}

	var suggestion *thinker.Suggestion
	if s.deps.Thinker != nil {
		suggestion = s.deps.Thinker.Suggest(ctx, det.Predictions, agentOut)
	}

	asset := history.AssetID(name)
	var records []risk.Record
	if s.deps.History != nil {
		records, err = s.deps.History.ForAsset(ctx, asset)
		if err != nil {
			log.Printf("service: history for %s: %v", asset, err)
			records = nil
		}
	}
	summary := risk.MakeSummary(records, s.now())
	failureRisk := risk.EstimateFailureRisk(summary)

	taken := s.resolveAction(agentOut, failureRisk)
	explanation := agent.Explain(agentOut, det.Boxes)

	if taken == agent.ActionAutoAccept && s.deps.Dataset != nil {
		if err := s.deps.Dataset.Save(imagePath, det.Boxes, det.Width, det.Height); err != nil {
			log.Printf("service: dataset save for %s: %v", name, err)
		}
	}

	reward := s.reward(taken, agentOut.ConfidenceScore, failureRisk)

	state := map[string]any{
		"yolo_summary": s.vectorize(det.Predictions),
		"num_boxes":    len(det.Boxes),
	}
	info := map[string]any{
		"image":        name,
		"explanation":  explanation,
		"failure_risk": failureRisk,
	}
	if _, err := s.deps.Experience.Log(state, string(taken), reward, info); err != nil {
		log.Printf("service: experience log for %s: %v", name, err)
	}

	if s.deps.Feedback != nil {
		modelLabel := yoloDec.Label
		if modelLabel == "" {
			modelLabel = "unknown"
		}
		if err := s.deps.Feedback.SaveClassFeedback(imagePath, string(taken), modelLabel, agentOut.ConfidenceScore); err != nil {
			log.Printf("service: feedback archive for %s: %v", name, err)
		}
	}

	audit := &Audit{
		Image:        name,
		Action:       taken,
		YoloDecision: yoloDec,
		AgentOut:     *agentOut,
		Thinker:      suggestion,
		FailureRisk:  failureRisk,
		Explanation:  explanation,
		Time:         float64(s.now().UnixNano()) / 1e9,
	}
	if err := s.writeAudit(audit); err != nil {
		return nil, err
	}

	dst := filepath.Join(s.cfg.Inbox.ProcessedDir, name)
	if err := moveFile(imagePath, dst); err != nil {
		return nil, fmt.Errorf("archiving %s: %w", name, err)
	}

	if s.deps.History != nil {
		if err := s.deps.History.Append(ctx, asset, det.Boxes, summary.AgeYears); err != nil {
			log.Printf("service: history append for %s: %v", asset, err)
		}
	}
	if s.deps.Retrainer != nil {
		s.deps.Retrainer.MaybeTrigger()
	}
	if s.deps.Publisher != nil {
		s.deps.Publisher.Publish(audit)
	}

	return audit, nil
}

// resolveAction maps the core decision plus the failure risk to the action
// actually taken. The stricter auto-accept gate wins over everything; the
// risk override then promotes borderline cases to preventive maintenance.
func (s *Service) resolveAction(dec *agent.Decision, failureRisk float64) agent.Action {
	d := s.cfg.Decision
	switch {
	case dec.Action == agent.ActionAutoAccept && dec.ConfidenceScore >= d.AutoAcceptGate:
		return agent.ActionAutoAccept
	case dec.Action == agent.ActionPreventiveMaintenance || failureRisk > d.RiskThreshold:
		return agent.ActionPreventiveMaintenance
	default:
		return dec.Action
	}
}

// reward computes the training signal for one processed image. The terms are
// additive: deferring to a human costs a little, a confident auto-accept
// pays, and missing a high-risk asset costs a lot.
func (s *Service) reward(taken agent.Action, score, failureRisk float64) float64 {
	d := s.cfg.Decision
	reward := 0.0
	if taken == agent.ActionAskHuman {
		reward = -0.2
	}
	if taken == agent.ActionAutoAccept && score >= d.AutoAcceptGate {
		reward += 1.2
	}
	if failureRisk > d.RiskThreshold && taken != agent.ActionPreventiveMaintenance {
		reward -= 2.0
	}
	return reward
}

// vectorize produces the fixed-shape state vector for the experience log:
// one confidence per configured class plus the mean. Every processed image
// yields the same keys regardless of what was detected.
func (s *Service) vectorize(preds detector.Summary) map[string]float64 {
	vec := make(map[string]float64, len(s.cfg.Classes)+1)
	sum := 0.0
	for _, class := range s.cfg.Classes {
		v := preds[class]
		vec["conf_"+class] = v
		sum += v
	}
	if len(s.cfg.Classes) > 0 {
		vec["mean_conf"] = sum / float64(len(s.cfg.Classes))
	}
	return vec
}

// moveFile renames src to dst, falling back to copy-and-delete when the two
// paths are on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
