package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/jonathan/pose-coach/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kp(x, y float64) *types.Keypoint {
	return &types.Keypoint{X: x, Y: y, Score: 1}
}

func TestJointAngle_KnownAngles(t *testing.T) {
	tests := []struct {
		name     string
		p1       *types.Keypoint
		p2       *types.Keypoint
		p3       *types.Keypoint
		expected float64
	}{
		{name: "right angle", p1: kp(0, 10), p2: kp(0, 0), p3: kp(10, 0), expected: 90},
		{name: "straight line", p1: kp(-10, 0), p2: kp(0, 0), p3: kp(10, 0), expected: 180},
		{name: "same ray", p1: kp(5, 5), p2: kp(0, 0), p3: kp(10, 10), expected: 0},
		{name: "forty five", p1: kp(10, 0), p2: kp(0, 0), p3: kp(10, 10), expected: 45},
		{name: "reflex difference folds", p1: kp(-10, -1), p2: kp(0, 0), p3: kp(-10, 1), expected: 2 * math.Atan2(1, 10) * 180 / math.Pi},
		{name: "vertical leg", p1: kp(100, 200), p2: kp(100, 300), p3: kp(100, 400), expected: 180},
		{name: "order of rays does not matter", p1: kp(10, 0), p2: kp(0, 0), p3: kp(0, 10), expected: 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			angle, ok := JointAngle(tt.p1, tt.p2, tt.p3)
			require.True(t, ok)
			assert.InDelta(t, tt.expected, angle, 1e-9)
		})
	}
}

func TestJointAngle_AlwaysWithinRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10000; i++ {
		p1 := kp(rng.Float64()*2000-1000, rng.Float64()*2000-1000)
		p2 := kp(rng.Float64()*2000-1000, rng.Float64()*2000-1000)
		p3 := kp(rng.Float64()*2000-1000, rng.Float64()*2000-1000)

		angle, ok := JointAngle(p1, p2, p3)
		require.True(t, ok)
		require.GreaterOrEqual(t, angle, 0.0)
		require.LessOrEqual(t, angle, 180.0)
	}
}

func TestJointAngle_DegenerateRayIsFinite(t *testing.T) {
	p := kp(3, 4)
	q := kp(10, 10)

	angle, ok := JointAngle(p, q, p)
	require.True(t, ok)
	assert.False(t, math.IsNaN(angle))
	assert.False(t, math.IsInf(angle, 0))
	assert.InDelta(t, 0.0, angle, 1e-9)

	angle, ok = JointAngle(q, q, p)
	require.True(t, ok)
	assert.False(t, math.IsNaN(angle))
	assert.GreaterOrEqual(t, angle, 0.0)
	assert.LessOrEqual(t, angle, 180.0)
}

func TestJointAngle_Unmeasurable(t *testing.T) {
	_, ok := JointAngle(nil, kp(0, 0), kp(1, 1))
	assert.False(t, ok)

	_, ok = JointAngle(kp(0, 0), nil, kp(1, 1))
	assert.False(t, ok)

	_, ok = JointAngle(kp(0, 0), kp(1, 1), nil)
	assert.False(t, ok)

	_, ok = JointAngle(kp(math.NaN(), 0), kp(1, 1), kp(2, 2))
	assert.False(t, ok)

	_, ok = JointAngle(kp(0, 0), kp(1, math.Inf(-1)), kp(2, 2))
	assert.False(t, ok)
}

func TestComputeJointAngle_FallsBackToZero(t *testing.T) {
	assert.Equal(t, 0.0, ComputeJointAngle(nil, nil, nil))
	assert.InDelta(t, 90.0, ComputeJointAngle(kp(0, 10), kp(0, 0), kp(10, 0)), 1e-9)
}
