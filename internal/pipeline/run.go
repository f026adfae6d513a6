// Package pipeline scores and renders a recorded keypoint stream frame by frame.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/pose-coach/internal/logger"
	"github.com/jonathan/pose-coach/internal/observability"
	"github.com/jonathan/pose-coach/internal/rendering"
	"github.com/jonathan/pose-coach/internal/scoring"
	"github.com/jonathan/pose-coach/internal/types"
)

// ResultsFile is the name of the per-frame results written to the output directory.
const ResultsFile = "results.json"

// Progress steps
const (
	StepScored   = "scored"
	StepRendered = "rendered"
	StepComplete = "complete"
)

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step    string `json:"step"`
	Frame   int    `json:"frame"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs. It may be called
// from several goroutines at once.
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for a run
type RunOptions struct {
	Pose   *types.Pose
	Frames []types.Frame

	// OutputDir receives results.json and, when Render is set, one PNG per frame.
	OutputDir string
	Render    bool

	Background    image.Image
	CanvasWidth   int
	CanvasHeight  int
	MinConfidence float64
	Scale         float64

	// Workers bounds concurrently processed frames; zero or less means one.
	Workers  int
	Analyzer scoring.Analyzer

	Verbose    bool
	Printer    *observability.Printer
	OnProgress ProgressCallback
}

// RunResult is the outcome of a run, in frame order.
type RunResult struct {
	Pose    string              `json:"pose"`
	Results []types.FrameResult `json:"results"`
	Summary scoring.Summary     `json:"summary"`
	Reports []*scoring.Report   `json:"-"`
}

func emitProgress(opts *RunOptions, step string, frame int, message string, content any) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			Step:    step,
			Frame:   frame,
			Message: message,
			Content: content,
		})
	}
}

// FrameImageName is the PNG file name of the frame at position i of a run.
// Stream indices can repeat or go negative, so they never name files.
func FrameImageName(i int) string {
	return fmt.Sprintf("frame_%05d.png", i)
}

// RunPipeline scores every frame against the pose and optionally renders it.
// Frames are independent, so they are processed concurrently up to Workers;
// the first failure cancels the rest.
func RunPipeline(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if opts.Pose == nil {
		return nil, fmt.Errorf("pose is required")
	}
	if opts.Render && opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required for rendering")
	}
	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		PoseID:    logger.Ptr(opts.Pose.Slug),
		Component: "pipeline",
	})

	slog.InfoContext(ctx, "run started",
		"frames", len(opts.Frames),
		"rules", opts.Pose.Config.Names(),
		"render", opts.Render)

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	result := &RunResult{
		Pose:    opts.Pose.Name,
		Results: make([]types.FrameResult, len(opts.Frames)),
		Reports: make([]*scoring.Report, len(opts.Frames)),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	// The printer writes multi-line boxes; keep them from interleaving.
	var printMu sync.Mutex

	for i, frame := range opts.Frames {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			report := opts.Analyzer.Evaluate(frame.Keypoints, opts.Pose.Config)
			fr := types.FrameResult{
				Frame:       frame.Index,
				TimestampMS: frame.TimestampMS,
				ScoreResult: report.Result(),
			}
			emitProgress(&opts, StepScored, frame.Index, fmt.Sprintf("Frame %d scored %.1f%%", frame.Index, report.Accuracy), fr.ScoreResult)

			if opts.Render {
				name := FrameImageName(i)
				accuracy := report.Accuracy
				_, err := rendering.RenderFrameFile(filepath.Join(opts.OutputDir, name), frame.Keypoints, rendering.FrameOptions{
					Width:         opts.CanvasWidth,
					Height:        opts.CanvasHeight,
					Background:    opts.Background,
					MinConfidence: opts.MinConfidence,
					Scale:         opts.Scale,
					Accuracy:      &accuracy,
				})
				if err != nil {
					return fmt.Errorf("frame %d: %w", frame.Index, err)
				}
				fr.Image = name
				emitProgress(&opts, StepRendered, frame.Index, fmt.Sprintf("Rendered %s", name), nil)
			}

			if opts.Verbose && opts.Printer != nil {
				printMu.Lock()
				opts.Printer.PrintReport(frame.Index, report)
				printMu.Unlock()
			}

			slog.DebugContext(logger.WithLogFields(gCtx, logger.LogFields{Frame: logger.Ptr(frame.Index)}),
				"frame processed", "accuracy", report.Accuracy, "rules_applied", report.RulesApplied)

			result.Results[i] = fr
			result.Reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Summary = scoring.Summarize(result.Reports)

	if opts.OutputDir != "" {
		if err := writeResults(filepath.Join(opts.OutputDir, ResultsFile), result); err != nil {
			return nil, err
		}
	}

	slog.InfoContext(ctx, "run complete",
		"frames", result.Summary.Frames,
		"scored", result.Summary.Scored,
		"mean_accuracy", result.Summary.MeanAccuracy)
	emitProgress(&opts, StepComplete, -1, fmt.Sprintf("Processed %d frames", len(opts.Frames)), result.Summary)

	return result, nil
}

func writeResults(path string, result *RunResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}
