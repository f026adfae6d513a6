package main

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/pose-coach/internal/frames"
	"github.com/jonathan/pose-coach/internal/rendering"
	"github.com/jonathan/pose-coach/internal/scoring"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a skeleton overlay for one frame",
	Long: `Draws the detected keypoints and the bones between them onto a background
image (--background) or a blank canvas (--width x --height) and writes a PNG.

With --pose, the frame is also scored and an accuracy bar is drawn.`,
	RunE: runRender,
}

var (
	renderKeypointsFile string
	renderOutputFile    string
)

func init() {
	renderCmd.Flags().StringVarP(&renderKeypointsFile, "keypoints", "k", "", "Path to a single-frame keypoints JSON file (required)")
	renderCmd.Flags().StringVarP(&renderOutputFile, "out", "o", "", "Path to output PNG (required)")
	renderCmd.Flags().StringP("background", "b", "", "Background image (PNG, JPEG, GIF or WebP)")
	renderCmd.Flags().Int("width", 0, "Canvas width when no background is given")
	renderCmd.Flags().Int("height", 0, "Canvas height when no background is given")
	renderCmd.Flags().Float64("min-confidence", 0, "Minimum keypoint confidence to draw (0.0-1.0)")
	renderCmd.Flags().Float64("scale", 0, "Factor applied to keypoint coordinates")
	renderCmd.Flags().StringP("pose", "p", "", "Pose document file or library ID/slug; draws an accuracy bar")
	renderCmd.Flags().String("db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	_ = renderCmd.MarkFlagRequired("keypoints")
	_ = renderCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	frame, err := frames.ReadFrameFile(renderKeypointsFile)
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

	opts := rendering.FrameOptions{
		Width:         cfg.CanvasWidth,
		Height:        cfg.CanvasHeight,
		Background:    background,
		MinConfidence: cfg.MinConfidence,
		Scale:         cfg.Scale,
	}

	if cfg.Pose != "" {
		pose, err := loadPose(ctx, cfg.Pose, cfg)
		if err != nil {
			return err
		}
		accuracy := scoring.Evaluate(frame.Keypoints, pose.Config).Accuracy
		opts.Accuracy = &accuracy
	}

	stats, err := rendering.RenderFrameFile(renderOutputFile, frame.Keypoints, opts)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(os.Stdout, "Rendered %s (%dx%d, %d bones, %d keypoints)\n",
		renderOutputFile, stats.Width, stats.Height, stats.Segments, stats.Keypoints)
	return nil
}
