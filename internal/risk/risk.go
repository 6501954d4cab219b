// Package risk scores the likelihood of equipment failure from a summary of
// past detections. The model is a deliberately simple, explainable weighted
// sum: each term is capped independently before summation and the total is
// clamped to [0,1].
package risk

import "time"

// Summary is the compact history summary the estimator consumes.
type Summary struct {
	RustCount          int     `json:"rust_count"`
	DentCount          int     `json:"dent_count"`
	DentGrowthRate     float64 `json:"dent_growth_rate"`
	LastInspectionDays float64 `json:"last_inspection_days"`
	AgeYears           float64 `json:"age_years"`
}

// Record is one past detection for an asset. AgeYears is metadata supplied
// by the caller; it is not derivable from detection history alone.
type Record struct {
	Label     string
	Timestamp time.Time
	AgeYears  float64
}

// staleSentinel is the last-inspection value used when no history exists.
const staleSentinel = 999

// EstimateFailureRisk computes the failure risk in [0,1] for a summary.
func EstimateFailureRisk(s Summary) float64 {
	risk := 0.0

	// Rust contributes strongly.
	risk += min(float64(s.RustCount)*0.12, 0.5)

	// Dent count and growth.
	risk += min(float64(s.DentCount)*0.05, 0.25)
	risk += min(s.DentGrowthRate*0.4, 0.2)

	// Older equipment is slightly more risky.
	if s.AgeYears > 5 {
		risk += min((s.AgeYears-5)*0.02, 0.1)
	}

	// A long gap since the last inspection increases risk.
	if s.LastInspectionDays > 30 {
		risk += min(((s.LastInspectionDays-30)/30)*0.05, 0.1)
	}

	return max(0.0, min(1.0, risk))
}

// MakeSummary condenses a chronologically ordered detection history into a
// Summary. The dent growth rate compares the dent count in the second half
// of the history against the first half; fewer than two records yields zero
// growth. With no records at all, the last-inspection gap is the stale
// sentinel.
func MakeSummary(records []Record, now time.Time) Summary {
	var s Summary

	for _, r := range records {
		switch r.Label {
		case "rust":
			s.RustCount++
		case "dent":
			s.DentCount++
		}
	}

	if len(records) >= 2 {
		mid := len(records) / 2
		first, second := 0, 0
		for _, r := range records[:mid] {
			if r.Label == "dent" {
				first++
			}
		}
		for _, r := range records[mid:] {
			if r.Label == "dent" {
				second++
			}
		}
		s.DentGrowthRate = max(0, float64(second-first)/float64(max(1, first)))
	}

	var newest time.Time
	for _, r := range records {
		if r.Timestamp.After(newest) {
			newest = r.Timestamp
		}
	}
	if newest.IsZero() {
		s.LastInspectionDays = staleSentinel
	} else {
		s.LastInspectionDays = now.Sub(newest).Hours() / 24
	}

	if len(records) > 0 {
		s.AgeYears = records[0].AgeYears
	}

	return s
}
