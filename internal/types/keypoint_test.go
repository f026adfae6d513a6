package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeypointSet_At(t *testing.T) {
	set := KeypointSet{{X: 1, Y: 2, Score: 0.9}, {X: 3, Y: 4, Score: 0.8}}

	kp, ok := set.At(1)
	assert.True(t, ok)
	assert.Equal(t, 3.0, kp.X)

	_, ok = set.At(2)
	assert.False(t, ok, "index past the end is absent")

	_, ok = set.At(-1)
	assert.False(t, ok, "negative index is absent")

	_, ok = KeypointSet(nil).At(0)
	assert.False(t, ok)
}

func TestKeypointSet_Visible(t *testing.T) {
	set := KeypointSet{{Score: 0.3}, {Score: 0.31}, {Score: math.NaN()}}

	_, ok := set.Visible(0, 0.3)
	assert.False(t, ok, "score equal to the gate is not visible")

	_, ok = set.Visible(1, 0.3)
	assert.True(t, ok)

	_, ok = set.Visible(2, 0.0)
	assert.False(t, ok, "NaN score is never visible")
}

func TestKeypointSet_MeanConfidence(t *testing.T) {
	assert.Equal(t, 0.0, KeypointSet{}.MeanConfidence())
	assert.InDelta(t, 0.5, KeypointSet{{Score: 0.2}, {Score: 0.8}}.MeanConfidence(), 1e-9)
	assert.InDelta(t, 0.4, KeypointSet{{Score: 0.8}, {Score: math.NaN()}}.MeanConfidence(), 1e-9)
}

func TestKeypoint_Finite(t *testing.T) {
	assert.True(t, Keypoint{X: 1, Y: 2}.Finite())
	assert.False(t, Keypoint{X: math.NaN(), Y: 2}.Finite())
	assert.False(t, Keypoint{X: 1, Y: math.Inf(1)}.Finite())
}

func TestFrame_JSONUnmarshaling(t *testing.T) {
	jsonInput := `{"frame": 7, "timestamp_ms": 233, "keypoints": [{"x": 10.5, "y": 20, "score": 0.92, "name": "nose"}]}`

	var frame Frame
	require.NoError(t, json.Unmarshal([]byte(jsonInput), &frame))
	assert.Equal(t, 7, frame.Index)
	assert.Equal(t, int64(233), frame.TimestampMS)
	require.Len(t, frame.Keypoints, 1)
	assert.Equal(t, "nose", frame.Keypoints[0].Name)
	assert.Equal(t, 0.92, frame.Keypoints[0].Score)
}

func TestFrameResult_JSONFlattensScore(t *testing.T) {
	result := FrameResult{Frame: 3, ScoreResult: ScoreResult{Feedback: []string{"Hold the pose..."}, Accuracy: 0}}

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"frame": 3, "feedback": ["Hold the pose..."], "accuracy": 0}`, string(data))
}
