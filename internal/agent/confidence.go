package agent

import (
	"encoding/json"
	"strings"
)

// confidenceTags maps the qualitative confidence tags to numeric scores.
var confidenceTags = map[string]float64{
	"low":    0.2,
	"medium": 0.5,
	"high":   0.85,
}

// ConfidenceScore normalizes a confidence value that is either already
// numeric or one of the tags low/medium/high (case-insensitive) into a
// float. Anything unrecognized maps to 0.0. Total function, no failure mode.
func ConfidenceScore(v any) float64 {
	switch c := v.(type) {
	case float64:
		return c
	case float32:
		return float64(c)
	case int:
		return float64(c)
	case int64:
		return float64(c)
	case json.Number:
		f, err := c.Float64()
		if err != nil {
			return 0.0
		}
		return f
	case string:
		return confidenceTags[strings.ToLower(c)]
	default:
		return 0.0
	}
}
