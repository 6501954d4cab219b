package thinker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/12Rushikesh/damage-agent/internal/detector"
	"github.com/12Rushikesh/damage-agent/internal/llm"
)

// Suggestion is the thinking model's proposed action. It is advisory only:
// the orchestrator records it in the audit trail but never lets it override
// the decision core.
type Suggestion struct {
	Action     string `json:"action"`
	Confidence string `json:"confidence,omitempty"`
	Reason     string `json:"reason"`
}

// Thinker asks a text reasoning model for a second opinion on the detections
// and the vision judgment.
type Thinker struct {
	provider    llm.Provider
	model       string
	temperature float64
}

// New creates a Thinker backed by the given provider.
func New(provider llm.Provider, model string, temperature float64) *Thinker {
	return &Thinker{provider: provider, model: model, temperature: temperature}
}

// Suggest queries the thinking model. On any transport or parse failure it
// returns the safe fallback {ASK_HUMAN, low, <error>} instead of an error.
func (t *Thinker) Suggest(ctx context.Context, preds detector.Summary, judgment any) *Suggestion {
	prompt := buildPrompt(preds, judgment)

	resp, err := t.provider.Complete(ctx, llm.CompletionRequest{
		Model:       t.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Temperature: t.temperature,
		JSONMode:    true,
	})
	if err != nil {
		return fallback(err)
	}

	var s Suggestion
	raw := stripFences(resp.Content)
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return fallback(fmt.Errorf("parsing thinker response: %w", err))
	}
	if s.Action == "" {
		s.Action = "ASK_HUMAN"
	}
	return &s
}

func buildPrompt(preds detector.Summary, judgment any) string {
	predJSON, _ := json.Marshal(preds)
	visionJSON, _ := json.Marshal(judgment)
	return fmt.Sprintf(`You are an AI decision agent.

Detector predictions:
%s

Vision reasoning:
%s

Choose ONE action:
AUTO_ACCEPT
ASK_HUMAN
REJECT

Respond ONLY in JSON:
{
  "action": "...",
  "reason": "short explanation"
}
`, predJSON, visionJSON)
}

func fallback(err error) *Suggestion {
	return &Suggestion{
		Action:     "ASK_HUMAN",
		Confidence: "low",
		Reason:     err.Error(),
	}
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	lines := strings.Split(raw, "\n")
	if len(lines) < 2 {
		return raw
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.Join(lines[1:end], "\n")
}
