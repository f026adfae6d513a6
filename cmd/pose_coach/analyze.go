package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/pose-coach/internal/frames"
	"github.com/jonathan/pose-coach/internal/observability"
	"github.com/jonathan/pose-coach/internal/pipeline"
	"github.com/jonathan/pose-coach/internal/scoring"
	"github.com/jonathan/pose-coach/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score keypoint frames against a pose",
	Long: `Scores each frame of a JSON-lines keypoint stream (--frames) or a single
frame file (--keypoints) against a pose's angle rules.

--pose is a pose document file, or a pose ID or slug looked up in the pose
library when DATABASE_URL is set. Results are written as JSON to --out, or as
one JSON line per frame to stdout.`,
	RunE: runAnalyze,
}

var (
	analyzeKeypointsFile string
	analyzeOutputFile    string
)

func init() {
	analyzeCmd.Flags().StringP("pose", "p", "", "Pose document file, or pose ID/slug in the library")
	analyzeCmd.Flags().StringP("frames", "f", "", "Path to JSON-lines keypoint frames")
	analyzeCmd.Flags().StringVarP(&analyzeKeypointsFile, "keypoints", "k", "", "Path to a single-frame keypoints JSON file")
	analyzeCmd.Flags().StringVarP(&analyzeOutputFile, "out", "o", "", "Path to output results JSON (defaults to JSON lines on stdout)")
	analyzeCmd.Flags().Int("workers", 0, "Frames scored concurrently")
	analyzeCmd.Flags().String("db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	analyzeCmd.Flags().BoolP("verbose", "v", false, "Print the per-rule breakdown of every frame")

	analyzeCmd.MarkFlagsMutuallyExclusive("frames", "keypoints")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	var input []types.Frame
	switch {
	case analyzeKeypointsFile != "":
		frame, err := frames.ReadFrameFile(analyzeKeypointsFile)
		if err != nil {
			return err
		}
		input = []types.Frame{frame}
	case cfg.Frames != "":
		input, err = frames.ReadFile(cfg.Frames)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("either --frames or --keypoints must be provided (via flag or config)")
	}

	pose, err := loadPose(ctx, cfg.Pose, cfg)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stderr)
	if cfg.Verbose {
		printer.PrintPose(pose)
	}

	result, err := pipeline.RunPipeline(ctx, pipeline.RunOptions{
		Pose:     pose,
		Frames:   input,
		Workers:  cfg.Workers,
		Analyzer: scoring.DefaultAnalyzer(),
		Verbose:  cfg.Verbose,
		Printer:  printer,
	})
	if err != nil {
		return err
	}

	if analyzeOutputFile != "" {
		if err := writeJSONFile(analyzeOutputFile, result); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(os.Stdout, "Scored %d frames against %s, wrote %s\n", len(result.Results), pose.Name, analyzeOutputFile)
	} else {
		out := frames.NewWriter(os.Stdout)
		for _, fr := range result.Results {
			if err := out.Write(fr); err != nil {
				return err
			}
		}
	}

	if cfg.Verbose || len(result.Results) > 1 {
		printer.PrintSummary(result.Summary)
	}
	return nil
}

// writeJSONFile writes v as indented JSON.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
