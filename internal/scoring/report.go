package scoring

import "github.com/jonathan/pose-coach/internal/types"

// Status classifies how a single rule fared on a frame.
type Status string

const (
	StatusGood    Status = "good"
	StatusLow     Status = "low"
	StatusHigh    Status = "high"
	StatusSkipped Status = "skipped"
)

// RuleOutcome is the evaluation of one rule on one frame.
type RuleOutcome struct {
	Name      string  `json:"name"`
	Status    Status  `json:"status"`
	Angle     float64 `json:"angle,omitempty"`
	Deviation float64 `json:"deviation,omitempty"`
	Score     float64 `json:"score"`
	Feedback  string  `json:"feedback,omitempty"`
}

// Report is the full evaluation of a frame against a pose config.
type Report struct {
	// Framed is false when the framing gate short-circuited scoring.
	Framed         bool          `json:"framed"`
	MeanConfidence float64       `json:"mean_confidence"`
	RulesApplied   int           `json:"rules_applied"`
	Outcomes       []RuleOutcome `json:"rules"`
	Feedback       []string      `json:"feedback"`
	Accuracy       float64       `json:"accuracy"`
}

// Result returns the caller-facing score. The feedback slice is copied.
func (r *Report) Result() types.ScoreResult {
	feedback := make([]string, len(r.Feedback))
	copy(feedback, r.Feedback)
	return types.ScoreResult{
		Feedback: feedback,
		Accuracy: r.Accuracy,
	}
}

// Outcome returns the outcome recorded for the named rule.
func (r *Report) Outcome(name string) (RuleOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.Name == name {
			return o, true
		}
	}
	return RuleOutcome{}, false
}
