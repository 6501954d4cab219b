package agent

// Action is an operational action chosen by the agent.
type Action string

const (
	// Decision core actions.
	ActionAutoAccept Action = "AUTO_ACCEPT"
	ActionAskHuman   Action = "ASK_HUMAN"
	ActionReject     Action = "REJECT"

	// Orchestrator-only override action.
	ActionPreventiveMaintenance Action = "PREVENTIVE_MAINTENANCE"

	// Detector-only compact decision actions.
	ActionAccept    Action = "ACCEPT"
	ActionHumanOnly Action = "HUMAN_ONLY"
)

// Decision is the decision core's output for one image. Confidence echoes
// the reasoning model's raw value (tag or number); ConfidenceScore is the
// derived numeric score after bias penalty, clamped to [0,1].
type Decision struct {
	Action          Action  `json:"action"`
	Confidence      any     `json:"confidence"`
	ConfidenceScore float64 `json:"confidence_score"`
	DamageType      string  `json:"damage_type"`
	Reason          string  `json:"reason"`
}

// YoloDecision is the fast detector-only opinion computed alongside the full
// decision. The two may disagree; both are surfaced to the orchestrator and
// to any human reviewer.
type YoloDecision struct {
	Action     Action  `json:"action"`
	Label      string  `json:"label,omitempty"`
	Confidence float64 `json:"confidence"`
}
