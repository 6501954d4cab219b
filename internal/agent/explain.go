package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/12Rushikesh/damage-agent/internal/detector"
)

// Explain produces a short human-readable explanation of a decision for the
// audit trail and the review UI.
func Explain(dec *Decision, boxes []detector.Detection) string {
	var parts []string
	switch dec.Action {
	case ActionAutoAccept:
		parts = append(parts, "Agent accepted the item automatically.")
		if dec.DamageType != "" && dec.DamageType != "unknown" {
			parts = append(parts, fmt.Sprintf("Detected: %s.", dec.DamageType))
		}
		parts = append(parts, fmt.Sprintf("Confidence ~ %.2f.", dec.ConfidenceScore))
		parts = append(parts, "No immediate action required.")
	case ActionAskHuman:
		parts = append(parts, "Agent requests human review.")
		parts = append(parts, fmt.Sprintf("Reason: low confidence or ambiguous pattern (%s).", dec.DamageType))
		if hints := topHints(boxes, 3); hints != "" {
			parts = append(parts, fmt.Sprintf("Top model hints: %s.", hints))
		}
	case ActionPreventiveMaintenance:
		parts = append(parts, "High failure risk detected; schedule preventive maintenance.")
		parts = append(parts, fmt.Sprintf("Key signals: %s.", dec.DamageType))
	default:
		parts = append(parts, fmt.Sprintf("Agent decision: %s.", dec.Action))
	}
	return strings.Join(parts, " ")
}

func topHints(boxes []detector.Detection, n int) string {
	if len(boxes) == 0 {
		return ""
	}
	sorted := make([]detector.Detection, len(boxes))
	copy(sorted, boxes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	hints := make([]string, 0, len(sorted))
	for _, b := range sorted {
		hints = append(hints, fmt.Sprintf("%s(%.2f)", b.Label, b.Confidence))
	}
	return strings.Join(hints, "; ")
}
