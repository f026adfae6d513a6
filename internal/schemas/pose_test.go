package schemas

import (
	"encoding/json"
	"testing"

	"github.com/jonathan/pose-coach/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPoseJSON = `{
	"name": "Mountain Pose",
	"description": "Stand tall with legs straight.",
	"image_url": "https://example.com/mountain.png",
	"config": {
		"left_knee": {
			"p1": "left_hip",
			"p2": "left_knee",
			"p3": "left_ankle",
			"target": 180,
			"tolerance": 10,
			"feedback_low": "Straighten your left knee",
			"feedback_high": "Relax your left knee",
			"feedback_good": "Legs straight"
		},
		"right_knee": {
			"p1": 24,
			"p2": 26,
			"p3": 28,
			"target": 180,
			"tolerance": 10
		}
	}
}`

func TestValidatePoseDocument_Valid(t *testing.T) {
	doc, err := ValidatePoseDocument([]byte(validPoseJSON))
	require.NoError(t, err)

	assert.Equal(t, "Mountain Pose", doc.Name)
	assert.Equal(t, []string{"left_knee", "right_knee"}, doc.Config.Names())

	rule := doc.Config[0]
	assert.Equal(t, types.LeftHip, rule.P1)
	assert.Equal(t, types.LeftKnee, rule.P2)
	assert.Equal(t, types.LeftAnkle, rule.P3)

	assert.Equal(t, "mountain_pose", doc.Pose().Slug)
}

func TestValidatePoseDocument_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "missing config",
			doc:  `{"name": "Mountain"}`,
		},
		{
			name: "target above 180",
			doc:  `{"name": "Mountain", "config": {"a": {"p1": 1, "p2": 2, "p3": 3, "target": 200, "tolerance": 5}}}`,
		},
		{
			name: "negative tolerance",
			doc:  `{"name": "Mountain", "config": {"a": {"p1": 1, "p2": 2, "p3": 3, "target": 90, "tolerance": -1}}}`,
		},
		{
			name: "index out of range",
			doc:  `{"name": "Mountain", "config": {"a": {"p1": 1, "p2": 2, "p3": 33, "target": 90, "tolerance": 5}}}`,
		},
		{
			name: "unknown landmark name",
			doc:  `{"name": "Mountain", "config": {"a": {"p1": "left_tail", "p2": 2, "p3": 3, "target": 90, "tolerance": 5}}}`,
		},
		{
			name: "unknown top-level property",
			doc:  `{"name": "Mountain", "imageUrl": "x", "config": {}}`,
		},
		{
			name: "empty name",
			doc:  `{"name": "", "config": {}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidatePoseDocument([]byte(tt.doc))
			require.Error(t, err)

			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestValidatePoseDocument_StructValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "vertex repeated",
			doc:  `{"name": "Mountain", "config": {"a": {"p1": 2, "p2": 2, "p3": 3, "target": 90, "tolerance": 5}}}`,
		},
		{
			name: "no rules",
			doc:  `{"name": "Mountain", "config": {}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidatePoseDocument([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "pose validation failed")
		})
	}
}

func TestValidatePoseDocument_NotJSON(t *testing.T) {
	_, err := ValidatePoseDocument([]byte("name: mountain"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestGeneratePoseSchema(t *testing.T) {
	data, err := GeneratePoseSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))

	assert.Equal(t, "http://json-schema.org/draft-07/schema#", schema["$schema"])
	assert.Equal(t, "Pose", schema["title"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	for _, field := range []string{"name", "slug", "description", "image_url", "config"} {
		assert.Contains(t, props, field)
	}
	assert.ElementsMatch(t, []any{"name", "config"}, schema["required"])
}

func TestGenerateFrameSchema_AcceptsFrames(t *testing.T) {
	data, err := GenerateFrameSchema()
	require.NoError(t, err)

	frame := `{"frame": 3, "timestamp_ms": 120, "keypoints": [{"x": 1.5, "y": 2, "score": 0.9}]}`
	assert.NoError(t, ValidateJSONBytes(data, []byte(frame)))

	assert.Error(t, ValidateJSONBytes(data, []byte(`{"frame": 3, "keypoints": [{"x": 1}]}`)))
}
