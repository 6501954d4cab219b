package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/12Rushikesh/damage-agent/internal/detector"
	"github.com/12Rushikesh/damage-agent/internal/llm"
)

// Result is the structured judgment of the vision-reasoning model for one
// image. Confidence is either a qualitative tag ("low", "medium", "high")
// or a numeric value, so it is decoded as-is.
type Result struct {
	DamagePresent bool     `json:"damage_present"`
	DamageType    string   `json:"damage_type,omitempty"`
	DamageTypes   []string `json:"damage_types,omitempty"`
	Confidence    any      `json:"confidence"`
	Notes         string   `json:"notes,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

// PrimaryDamageType returns the reported damage type, preferring the
// singular field, then the first listed type, then "unknown".
func (r *Result) PrimaryDamageType() string {
	if r.DamageType != "" {
		return r.DamageType
	}
	if len(r.DamageTypes) > 0 {
		return r.DamageTypes[0]
	}
	return "unknown"
}

// Reasoner asks the vision model whether an image shows damage.
type Reasoner struct {
	provider    llm.Provider
	model       string
	temperature float64
}

// NewReasoner creates a Reasoner backed by the given provider.
func NewReasoner(provider llm.Provider, model string, temperature float64) *Reasoner {
	return &Reasoner{provider: provider, model: model, temperature: temperature}
}

// Reason sends the image and the detector's boxes to the vision model and
// parses its structured judgment. Any transport or parse failure is returned
// as an error; the decision core maps it to its fixed fallback.
func (r *Reasoner) Reason(ctx context.Context, imagePath string, boxes []detector.Detection) (*Result, error) {
	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("reading image %s: %w", imagePath, err)
	}

	prompt, err := buildPrompt(boxes)
	if err != nil {
		return nil, err
	}

	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		Model: r.model,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: prompt,
			Images:  []string{base64.StdEncoding.EncodeToString(raw)},
		}},
		Temperature: r.temperature,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("vision completion: %w", err)
	}

	result, err := parseResult(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("vision response: %w", err)
	}
	return result, nil
}

func buildPrompt(boxes []detector.Detection) (string, error) {
	boxJSON, err := json.MarshalIndent(boxes, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling detections: %w", err)
	}
	return fmt.Sprintf(`You are a container damage inspection expert.

Detector output:
%s

Look at the image and detections.
Respond ONLY in JSON:

{
  "damage_present": true/false,
  "damage_types": ["dent","hole","rust"],
  "confidence": "low/medium/high",
  "notes": "short explanation"
}
`, boxJSON), nil
}

// parseResult parses a model JSON response into a Result struct.
func parseResult(raw string) (*Result, error) {
	raw = strings.TrimSpace(raw)

	// Strip markdown code fences if present.
	if strings.HasPrefix(raw, "```") {
		lines := strings.Split(raw, "\n")
		if len(lines) >= 2 {
			start := 1
			end := len(lines)
			if strings.TrimSpace(lines[end-1]) == "```" {
				end--
			}
			raw = strings.Join(lines[start:end], "\n")
		}
	}

	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("json parse: %w", err)
	}
	return &result, nil
}
