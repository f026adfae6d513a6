package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "warrior_ii", Slugify("Warrior II"))
	assert.Equal(t, "happy_baby", Slugify("  Happy   Baby "))
	assert.Equal(t, "tree", Slugify("Tree"))
}

func TestPose_EnsureSlug(t *testing.T) {
	p := Pose{Name: "Downward Dog"}
	p.EnsureSlug()
	assert.Equal(t, "downward_dog", p.Slug)

	p = Pose{Name: "Downward Dog", Slug: "adho_mukha"}
	p.EnsureSlug()
	assert.Equal(t, "adho_mukha", p.Slug)
}

func TestPose_Validate(t *testing.T) {
	tests := []struct {
		name    string
		pose    Pose
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid pose",
			pose: Pose{Name: "Mountain", ImageURL: "https://example.com/mountain.jpg", Config: PoseConfig{kneeRule()}},
		},
		{
			name:    "missing name",
			pose:    Pose{Config: PoseConfig{kneeRule()}},
			wantErr: true,
			errMsg:  "Name",
		},
		{
			name:    "empty config",
			pose:    Pose{Name: "Mountain"},
			wantErr: true,
			errMsg:  "Config",
		},
		{
			name:    "bad image url",
			pose:    Pose{Name: "Mountain", ImageURL: "not a url", Config: PoseConfig{kneeRule()}},
			wantErr: true,
			errMsg:  "ImageURL",
		},
		{
			name: "invalid rule",
			pose: Pose{Name: "Mountain", Config: PoseConfig{func() AngleRule {
				r := kneeRule()
				r.P2 = 99
				return r
			}()}},
			wantErr: true,
			errMsg:  "invalid config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pose.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPose_JSONUnmarshaling(t *testing.T) {
	jsonInput := `{
		"name": "Tree",
		"description": "Balance on one leg.",
		"image_url": "https://example.com/tree.jpg",
		"config": {
			"standing_knee": {"p1": "left_hip", "p2": "left_knee", "p3": "left_ankle", "target": 180, "tolerance": 10, "feedback_good": "Solid base"}
		}
	}`

	var pose Pose
	require.NoError(t, json.Unmarshal([]byte(jsonInput), &pose))
	assert.Equal(t, "Tree", pose.Name)
	require.Len(t, pose.Config, 1)
	assert.Equal(t, "standing_knee", pose.Config[0].Name)
	assert.Equal(t, "Solid base", pose.Config[0].FeedbackGood)
	assert.NoError(t, pose.Validate())
}
