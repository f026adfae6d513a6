// Package geometry computes joint angles from 2D keypoints.
package geometry

import (
	"math"

	"github.com/jonathan/pose-coach/internal/types"
)

// JointAngle returns the unsigned interior angle, in degrees within [0, 180],
// formed at vertex p2 by the rays p2->p1 and p2->p3.
//
// The second return value is false when the angle cannot be measured: a
// point is missing or has a non-finite coordinate. A zero-length ray is
// measurable (atan2(0, 0) is 0) and yields a finite angle.
func JointAngle(p1, p2, p3 *types.Keypoint) (float64, bool) {
	if p1 == nil || p2 == nil || p3 == nil {
		return 0, false
	}
	if !p1.Finite() || !p2.Finite() || !p3.Finite() {
		return 0, false
	}

	radians := math.Atan2(p3.Y-p2.Y, p3.X-p2.X) - math.Atan2(p1.Y-p2.Y, p1.X-p2.X)
	angle := math.Abs(radians * 180.0 / math.Pi)

	// The polar difference lies in [0, 360]; fold reflex angles back.
	if angle > 180.0 {
		angle = 360 - angle
	}
	// atan2(-0, x<0) is -Pi, so rounding can push the fold just below zero.
	return math.Max(0, angle), true
}

// ComputeJointAngle is JointAngle with unmeasurable input reported as 0.
// Callers must gate on confidence first; 0 here means "cannot compute",
// not a measured straight fold.
func ComputeJointAngle(p1, p2, p3 *types.Keypoint) float64 {
	angle, ok := JointAngle(p1, p2, p3)
	if !ok {
		return 0
	}
	return angle
}
