package agent

import (
	"context"
	"fmt"
	"math"

	"github.com/12Rushikesh/damage-agent/internal/config"
	"github.com/12Rushikesh/damage-agent/internal/detector"
	"github.com/12Rushikesh/damage-agent/internal/vision"
)

// VisionReasoner is the external vision-reasoning collaborator.
type VisionReasoner interface {
	Reason(ctx context.Context, imagePath string, boxes []detector.Detection) (*vision.Result, error)
}

// PenaltySource supplies the historical bias penalty for a damage class.
type PenaltySource interface {
	BiasPenalty(damageType string) (float64, error)
}

// Agent is the decision core: it fuses the vision model's judgment with the
// bias-penalty memory and maps the resulting score to an action.
type Agent struct {
	vision     VisionReasoner
	memory     PenaltySource
	thresholds config.DecisionConfig
}

// New creates the decision core. Thresholds are fixed at construction; they
// are never varied per call.
func New(visionReasoner VisionReasoner, memory PenaltySource, thresholds config.DecisionConfig) *Agent {
	return &Agent{
		vision:     visionReasoner,
		memory:     memory,
		thresholds: thresholds,
	}
}

// Decide runs the full reasoning path for one image. A vision collaborator
// failure (transport, timeout, or unparseable output) short-circuits to the
// fixed ASK_HUMAN fallback; there is no retry here, by policy. An error is
// returned only for bias-memory storage failures.
func (a *Agent) Decide(ctx context.Context, imagePath string, boxes []detector.Detection) (*Decision, error) {
	vl, err := a.vision.Reason(ctx, imagePath, boxes)
	if err != nil {
		return &Decision{
			Action:     ActionAskHuman,
			Reason:     "Vision model failed",
			Confidence: "low",
			DamageType: "unknown",
		}, nil
	}

	score := ConfidenceScore(vl.Confidence)

	damageType := vl.PrimaryDamageType()
	penalty, err := a.memory.BiasPenalty(damageType)
	if err != nil {
		return nil, fmt.Errorf("bias penalty for %q: %w", damageType, err)
	}
	score = clamp01(score - penalty)

	var action Action
	switch {
	case score >= a.thresholds.AutoAccept:
		action = ActionAutoAccept
	case score >= a.thresholds.AskHuman:
		action = ActionAskHuman
	default:
		action = ActionReject
	}

	reason := vl.Reason
	if reason == "" {
		reason = vl.Notes
	}

	return &Decision{
		Action:          action,
		Confidence:      vl.Confidence,
		ConfidenceScore: score,
		DamageType:      damageType,
		Reason:          reason,
	}, nil
}

// DetectorDecision computes the compact, detector-only opinion from the
// label->confidence map alone. Confidence is rounded to 3 decimals.
func (a *Agent) DetectorDecision(preds detector.Summary) YoloDecision {
	if len(preds) == 0 {
		return YoloDecision{Action: ActionHumanOnly}
	}

	var label string
	var conf float64
	for l, c := range preds {
		if label == "" || c > conf || (c == conf && l < label) {
			label = l
			conf = c
		}
	}

	var action Action
	switch {
	case conf >= a.thresholds.DetectorAccept:
		action = ActionAccept
	case conf >= a.thresholds.DetectorAskHuman:
		action = ActionAskHuman
	default:
		action = ActionHumanOnly
	}

	return YoloDecision{
		Action:     action,
		Label:      label,
		Confidence: math.Round(conf*1000) / 1000,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
