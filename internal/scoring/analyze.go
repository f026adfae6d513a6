// Package scoring scores a frame's keypoints against a pose's angle rules.
package scoring

import (
	"math"

	"github.com/jonathan/pose-coach/internal/geometry"
	"github.com/jonathan/pose-coach/internal/types"
)

// Default tunables of the scoring policy.
const (
	// DefaultConfidenceGate is the minimum confidence, exclusive for points
	// and inclusive for the frame mean, required before anything is scored.
	DefaultConfidenceGate = 0.3
	// DefaultFalloffDegrees is how far past the tolerance band a rule's score
	// falls linearly from 1 to 0.
	DefaultFalloffDegrees = 45.0
)

// Feedback messages emitted by the engine itself rather than by a rule.
const (
	FeedbackNotFramed = "Please position yourself clearly in the frame."
	FeedbackHoldPose  = "Hold the pose..."
	FeedbackAnalyzing = "Analyzing..."
)

// Analyzer holds the scoring tunables. The zero value uses the defaults.
type Analyzer struct {
	ConfidenceGate float64
	FalloffDegrees float64
}

// DefaultAnalyzer returns an Analyzer with the default tunables.
func DefaultAnalyzer() Analyzer {
	return Analyzer{
		ConfidenceGate: DefaultConfidenceGate,
		FalloffDegrees: DefaultFalloffDegrees,
	}
}

func (a Analyzer) normalized() Analyzer {
	if a.ConfidenceGate <= 0 || math.IsNaN(a.ConfidenceGate) {
		a.ConfidenceGate = DefaultConfidenceGate
	}
	if a.FalloffDegrees <= 0 || math.IsNaN(a.FalloffDegrees) || math.IsInf(a.FalloffDegrees, 0) {
		a.FalloffDegrees = DefaultFalloffDegrees
	}
	return a
}

// AnalyzePose scores keypoints against config with the default tunables.
// It never fails: unusable input degrades to one of the engine's own
// feedback messages with zero accuracy.
func AnalyzePose(keypoints types.KeypointSet, config types.PoseConfig) types.ScoreResult {
	return DefaultAnalyzer().Evaluate(keypoints, config).Result()
}

// Evaluate is AnalyzePose with the per-rule breakdown kept.
func Evaluate(keypoints types.KeypointSet, config types.PoseConfig) *Report {
	return DefaultAnalyzer().Evaluate(keypoints, config)
}

// Evaluate scores keypoints against every rule of config in order.
func (a Analyzer) Evaluate(keypoints types.KeypointSet, config types.PoseConfig) *Report {
	a = a.normalized()
	report := &Report{
		MeanConfidence: keypoints.MeanConfidence(),
		Outcomes:       make([]RuleOutcome, 0, len(config)),
	}

	// Framing gate: nothing to score against, or the subject is not in view.
	if len(config) == 0 || report.MeanConfidence < a.ConfidenceGate {
		report.Feedback = []string{FeedbackNotFramed}
		return report
	}
	report.Framed = true

	totalScore := 0.0
	feedback := make([]string, 0, len(config))
	for _, rule := range config {
		outcome := a.evaluateRule(keypoints, rule)
		report.Outcomes = append(report.Outcomes, outcome)
		if outcome.Status == StatusSkipped {
			continue
		}

		report.RulesApplied++
		totalScore += outcome.Score
		if outcome.Feedback != "" {
			feedback = append(feedback, outcome.Feedback)
		}
	}

	if report.RulesApplied == 0 {
		report.Feedback = []string{FeedbackHoldPose}
		return report
	}

	report.Accuracy = clampAccuracy(totalScore / float64(report.RulesApplied) * 100)

	if len(feedback) == 0 {
		feedback = append(feedback, FeedbackAnalyzing)
	}
	report.Feedback = feedback

	return report
}

// evaluateRule measures one rule. Rules whose points are missing or below
// the confidence gate come back skipped and carry no score.
func (a Analyzer) evaluateRule(keypoints types.KeypointSet, rule types.AngleRule) RuleOutcome {
	outcome := RuleOutcome{Name: rule.Name, Status: StatusSkipped}

	p1, ok1 := keypoints.Visible(rule.P1, a.ConfidenceGate)
	p2, ok2 := keypoints.Visible(rule.P2, a.ConfidenceGate)
	p3, ok3 := keypoints.Visible(rule.P3, a.ConfidenceGate)
	if !ok1 || !ok2 || !ok3 {
		return outcome
	}

	angle, ok := geometry.JointAngle(&p1, &p2, &p3)
	if !ok {
		return outcome
	}

	deviation := math.Abs(angle - rule.Target)
	if math.IsNaN(deviation) || math.IsNaN(rule.Tolerance) {
		return outcome
	}

	outcome.Angle = angle
	outcome.Deviation = deviation

	if deviation <= rule.Tolerance {
		outcome.Status = StatusGood
		outcome.Score = 1
		outcome.Feedback = rule.FeedbackGood
		return outcome
	}

	outcome.Score = ruleScore(deviation, rule.Tolerance, a.FalloffDegrees)
	// Direction alone picks the message; the size of the miss only affects the score.
	if angle < rule.Target {
		outcome.Status = StatusLow
		outcome.Feedback = rule.FeedbackLow
	} else {
		outcome.Status = StatusHigh
		outcome.Feedback = rule.FeedbackHigh
	}
	return outcome
}

// ruleScore is the linear falloff for an out-of-tolerance deviation:
// 1 at the tolerance boundary, 0 at falloff degrees past it and beyond.
func ruleScore(deviation, tolerance, falloff float64) float64 {
	maxDeviation := tolerance + falloff
	score := 1 - (deviation-tolerance)/(maxDeviation-tolerance)
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func clampAccuracy(accuracy float64) float64 {
	if math.IsNaN(accuracy) || accuracy < 0 {
		return 0
	}
	if accuracy > 100 {
		return 100
	}
	return accuracy
}
