package types

import "math"

// Keypoint is one detected landmark position with its detection confidence.
// X and Y are in source-image pixel space; Score is a fraction in [0, 1].
type Keypoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
	// Name is the detector's own label for the point, if it emits one.
	Name string `json:"name,omitempty"`
}

// Finite reports whether both coordinates are finite numbers.
func (k Keypoint) Finite() bool {
	return !math.IsNaN(k.X) && !math.IsInf(k.X, 0) && !math.IsNaN(k.Y) && !math.IsInf(k.Y, 0)
}

// Confidence returns Score with NaN mapped to zero so comparisons against
// a gate never pass on garbage input.
func (k Keypoint) Confidence() float64 {
	if math.IsNaN(k.Score) {
		return 0
	}
	return k.Score
}

// KeypointSet is the ordered keypoint sequence of a single frame, indexed by Landmark.
type KeypointSet []Keypoint

// At returns the keypoint for a landmark. The second return value is false
// when the index lies outside the set.
func (s KeypointSet) At(l Landmark) (Keypoint, bool) {
	if l < 0 || int(l) >= len(s) {
		return Keypoint{}, false
	}
	return s[l], true
}

// Visible returns the keypoint for a landmark only if it exists and its
// confidence is strictly above minConfidence.
func (s KeypointSet) Visible(l Landmark, minConfidence float64) (Keypoint, bool) {
	kp, ok := s.At(l)
	if !ok || kp.Confidence() <= minConfidence {
		return Keypoint{}, false
	}
	return kp, true
}

// MeanConfidence returns the average keypoint score. An empty set has mean zero.
func (s KeypointSet) MeanConfidence() float64 {
	if len(s) == 0 {
		return 0
	}
	total := 0.0
	for _, kp := range s {
		total += kp.Confidence()
	}
	return total / float64(len(s))
}
