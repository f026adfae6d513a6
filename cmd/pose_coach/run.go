package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/pose-coach/internal/frames"
	"github.com/jonathan/pose-coach/internal/observability"
	"github.com/jonathan/pose-coach/internal/pipeline"
	"github.com/jonathan/pose-coach/internal/rendering"
	"github.com/jonathan/pose-coach/internal/scoring"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Score and render a recorded keypoint stream",
	Long: `Scores every frame of a JSON-lines keypoint stream against a pose and renders
one skeleton PNG per frame, processing up to --workers frames at once.

The output directory receives results.json and frame_NNNNN.png files.
Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	RunE: runPipelineCmd,
}

var runNoRender bool

func init() {
	runCommand.Flags().StringP("pose", "p", "", "Pose document file, or pose ID/slug in the library")
	runCommand.Flags().StringP("frames", "f", "", "Path to JSON-lines keypoint frames")
	runCommand.Flags().StringP("out-dir", "o", "", "Output directory for results and images")
	runCommand.Flags().StringP("background", "b", "", "Background image drawn under every frame")
	runCommand.Flags().Int("width", 0, "Canvas width when no background is given")
	runCommand.Flags().Int("height", 0, "Canvas height when no background is given")
	runCommand.Flags().Float64("min-confidence", 0, "Minimum keypoint confidence to draw (0.0-1.0)")
	runCommand.Flags().Float64("scale", 0, "Factor applied to keypoint coordinates")
	runCommand.Flags().Int("workers", 0, "Frames processed concurrently")
	runCommand.Flags().BoolVar(&runNoRender, "no-render", false, "Only score frames; skip PNG output")
	runCommand.Flags().String("db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	runCommand.Flags().BoolP("verbose", "v", false, "Print detailed progress")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.Frames == "" {
		return fmt.Errorf("--frames must be provided (via flag or config)")
	}
	if cfg.OutputDir == "" {
		return fmt.Errorf("--out-dir must be provided (via flag or config)")
	}

	input, err := frames.ReadFile(cfg.Frames)
	if err != nil {
		return err
	}

	pose, err := loadPose(ctx, cfg.Pose, cfg)
	if err != nil {
		return err
	}

	var background image.Image
	if cfg.Background != "" {
		background, err = rendering.LoadBackground(cfg.Background)
		if err != nil {
			return err
		}
	}

	printer := observability.NewPrinter(os.Stdout)
	if cfg.Verbose {
		printer.PrintPose(pose)
	}

	opts := pipeline.RunOptions{
		Pose:          pose,
		Frames:        input,
		OutputDir:     cfg.OutputDir,
		Render:        !runNoRender,
		Background:    background,
		CanvasWidth:   cfg.CanvasWidth,
		CanvasHeight:  cfg.CanvasHeight,
		MinConfidence: cfg.MinConfidence,
		Scale:         cfg.Scale,
		Workers:       cfg.Workers,
		Analyzer:      scoring.DefaultAnalyzer(),
		Verbose:       cfg.Verbose,
		Printer:       printer,
	}
	if cfg.Verbose {
		opts.OnProgress = func(event pipeline.ProgressEvent) {
			if event.Step == pipeline.StepRendered {
				return
			}
			_, _ = fmt.Fprintf(os.Stderr, "[%s] %s\n", event.Step, event.Message)
		}
	}

	result, err := pipeline.RunPipeline(ctx, opts)
	if err != nil {
		return err
	}

	printer.PrintSummary(result.Summary)
	_, _ = fmt.Fprintf(os.Stdout, "Results written to %s\n", filepath.Join(cfg.OutputDir, pipeline.ResultsFile))
	return nil
}
