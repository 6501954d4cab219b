package detector

// Detection is a single detected region: label, confidence and bounding box
// in pixel coordinates (x1, y1, x2, y2).
type Detection struct {
	Label      string     `json:"label"`
	Confidence float64    `json:"confidence"`
	BBox       [4]float64 `json:"bbox"`
}

// Summary maps each label to the highest confidence observed for it in one
// image. Immutable once returned by the detector.
type Summary map[string]float64

// Result is the full detector output for one image.
type Result struct {
	Predictions Summary     `json:"predictions"`
	Boxes       []Detection `json:"boxes"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
}

// Empty returns a Result with no detections. Used when the detector
// collaborator is unreachable: a failure never propagates past the
// orchestrator boundary.
func Empty() *Result {
	return &Result{Predictions: Summary{}}
}
