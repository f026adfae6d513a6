package main

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/pose-coach/internal/types"
)

const mountainDoc = `{
	"name": "Mountain",
	"config": {
		"left_knee": {"p1": "left_hip", "p2": "left_knee", "p3": "left_ankle",
			"target": 180, "tolerance": 10,
			"feedback_low": "Straighten your left knee", "feedback_good": "Legs straight"}
	}
}`

// execute runs the CLI in-process with fresh flag state.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags(rootCmd)
	configPath, logLevel = "", ""
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// legFrame bends the left knee to kneeAngle degrees; all points at 0.9 confidence.
func legFrame(index int, kneeAngle float64) types.Frame {
	kps := make(types.KeypointSet, types.LandmarkCount)
	for i := range kps {
		kps[i] = types.Keypoint{X: 50, Y: 40, Score: 0.9}
	}
	kps[types.LeftHip] = types.Keypoint{X: 50, Y: 20, Score: 0.9}
	kps[types.LeftKnee] = types.Keypoint{X: 50, Y: 40, Score: 0.9}
	theta := kneeAngle * math.Pi / 180
	kps[types.LeftAnkle] = types.Keypoint{X: 50 + 20*math.Sin(theta), Y: 40 - 20*math.Cos(theta), Score: 0.9}
	return types.Frame{Index: index, Keypoints: kps}
}

func framesJSONL(t *testing.T, frames ...types.Frame) string {
	t.Helper()
	var sb strings.Builder
	for _, f := range frames {
		data, err := json.Marshal(f)
		require.NoError(t, err)
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String()
}
