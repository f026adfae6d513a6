package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLandmark_IndicesMatchSchema(t *testing.T) {
	assert.Equal(t, Landmark(0), Nose)
	assert.Equal(t, Landmark(11), LeftShoulder)
	assert.Equal(t, Landmark(12), RightShoulder)
	assert.Equal(t, Landmark(23), LeftHip)
	assert.Equal(t, Landmark(25), LeftKnee)
	assert.Equal(t, Landmark(28), RightAnkle)
	assert.Equal(t, Landmark(LandmarkCount-1), RightFootIndex)
	assert.Len(t, LandmarkNames(), LandmarkCount)
}

func TestLandmark_String(t *testing.T) {
	assert.Equal(t, "left_shoulder", LeftShoulder.String())
	assert.Equal(t, "landmark(40)", Landmark(40).String())
}

func TestParseLandmark(t *testing.T) {
	tests := []struct {
		input    string
		expected Landmark
		wantErr  bool
	}{
		{input: "left_knee", expected: LeftKnee},
		{input: "Left Knee", expected: LeftKnee},
		{input: "RIGHT-ANKLE", expected: RightAnkle},
		{input: "  nose ", expected: Nose},
		{input: "tail", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLandmark(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLandmark_JSON(t *testing.T) {
	data, err := json.Marshal(LeftHip)
	require.NoError(t, err)
	assert.Equal(t, "23", string(data))

	var l Landmark
	require.NoError(t, json.Unmarshal([]byte(`"left_hip"`), &l))
	assert.Equal(t, LeftHip, l)

	require.NoError(t, json.Unmarshal([]byte(`24`), &l))
	assert.Equal(t, RightHip, l)

	assert.Error(t, json.Unmarshal([]byte(`true`), &l))
}
