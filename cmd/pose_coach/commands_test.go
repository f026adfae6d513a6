package main

import (
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/pose-coach/internal/pipeline"
)

func TestSchemaCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "pose.schema.json")
	require.NoError(t, execute(t, "schema", "pose", "--out", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, "Pose", schema["title"])

	assert.Error(t, execute(t, "schema", "skeleton"))
}

func TestValidatePoseCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "mountain.json", mountainDoc)
	bad := writeFile(t, dir, "bad.json", `{"name": "Nothing", "config": {}}`)

	assert.NoError(t, execute(t, "validate-pose", good))

	err := execute(t, "validate-pose", good, bad)
	assert.ErrorContains(t, err, "1 of 2")

	assert.Error(t, execute(t, "validate-pose"))
}

func TestAnalyzeCommand_SingleFrame(t *testing.T) {
	dir := t.TempDir()
	pose := writeFile(t, dir, "mountain.json", mountainDoc)
	keypoints := writeFile(t, dir, "frame.json", framesJSONL(t, legFrame(4, 175)))
	out := filepath.Join(dir, "results.json")

	require.NoError(t, execute(t, "analyze", "--pose", pose, "--keypoints", keypoints, "--out", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var result pipeline.RunResult
	require.NoError(t, json.Unmarshal(data, &result))

	require.Len(t, result.Results, 1)
	assert.Equal(t, 4, result.Results[0].Frame)
	assert.InDelta(t, 100, result.Results[0].Accuracy, 1e-6)
	assert.Equal(t, []string{"Legs straight"}, result.Results[0].Feedback)
	assert.Equal(t, 1, result.Summary.Scored)
}

func TestAnalyzeCommand_FramesStream(t *testing.T) {
	dir := t.TempDir()
	pose := writeFile(t, dir, "mountain.json", mountainDoc)
	stream := writeFile(t, dir, "frames.jsonl", framesJSONL(t, legFrame(0, 180), legFrame(1, 140), legFrame(2, 100)))
	out := filepath.Join(dir, "results.json")

	require.NoError(t, execute(t, "analyze", "-p", pose, "-f", stream, "-o", out, "--workers", "2"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var result pipeline.RunResult
	require.NoError(t, json.Unmarshal(data, &result))

	require.Len(t, result.Results, 3)
	for i, fr := range result.Results {
		assert.Equal(t, i, fr.Frame, "results stay in frame order")
	}
	assert.InDelta(t, 100*(1-30.0/45.0), result.Results[1].Accuracy, 1e-6)
	assert.Equal(t, 0.0, result.Results[2].Accuracy)
}

func TestAnalyzeCommand_MissingInput(t *testing.T) {
	pose := writeFile(t, t.TempDir(), "mountain.json", mountainDoc)
	err := execute(t, "analyze", "--pose", pose)
	assert.ErrorContains(t, err, "--frames or --keypoints")
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	pose := writeFile(t, dir, "mountain.json", mountainDoc)
	keypoints := writeFile(t, dir, "frame.json", framesJSONL(t, legFrame(0, 180)))
	out := filepath.Join(dir, "frame.png")

	require.NoError(t, execute(t, "render", "-k", keypoints, "-o", out, "--width", "120", "--height", "90", "--pose", pose))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 90, img.Bounds().Dy())
}

func TestRenderCommand_RequiresOut(t *testing.T) {
	keypoints := writeFile(t, t.TempDir(), "frame.json", framesJSONL(t, legFrame(0, 180)))
	assert.Error(t, execute(t, "render", "-k", keypoints))
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	pose := writeFile(t, dir, "mountain.json", mountainDoc)
	stream := writeFile(t, dir, "frames.jsonl", framesJSONL(t, legFrame(0, 180), legFrame(1, 150)))
	outDir := filepath.Join(dir, "out")

	require.NoError(t, execute(t, "run", "-p", pose, "-f", stream, "-o", outDir, "--width", "64", "--height", "64"))

	assert.FileExists(t, filepath.Join(outDir, pipeline.ResultsFile))
	assert.FileExists(t, filepath.Join(outDir, pipeline.FrameImageName(0)))
	assert.FileExists(t, filepath.Join(outDir, pipeline.FrameImageName(1)))
}

func TestRunCommand_FromConfigFile(t *testing.T) {
	dir := t.TempDir()
	pose := writeFile(t, dir, "mountain.json", mountainDoc)
	stream := writeFile(t, dir, "frames.jsonl", framesJSONL(t, legFrame(0, 180)))
	outDir := filepath.Join(dir, "out")

	cfgJSON, err := json.Marshal(map[string]any{"pose": pose, "frames": stream, "output_dir": outDir})
	require.NoError(t, err)
	cfgPath := writeFile(t, dir, "config.json", string(cfgJSON))

	require.NoError(t, execute(t, "run", "--config", cfgPath, "--no-render"))

	assert.FileExists(t, filepath.Join(outDir, pipeline.ResultsFile))
	assert.NoFileExists(t, filepath.Join(outDir, pipeline.FrameImageName(0)))
}

func TestRunCommand_MissingFlags(t *testing.T) {
	err := execute(t, "run")
	assert.ErrorContains(t, err, "--frames must be provided")
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	assert.ErrorContains(t, execute(t, "token"), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "test-secret-key-for-cli-tests")
	assert.NoError(t, execute(t, "token", "--author", "maria"))
}

func TestServeCommand_RequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	assert.ErrorContains(t, execute(t, "serve"), "DATABASE_URL")
}

func TestPosesCommand_RequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	assert.ErrorContains(t, execute(t, "poses", "list"), "DATABASE_URL")
}
