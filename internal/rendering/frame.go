package rendering

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register JPEG backgrounds
	_ "image/png"  // register PNG backgrounds
	"io"
	"math"
	"os"

	"github.com/gogpu/gg"
	"github.com/jonathan/pose-coach/internal/types"
	"golang.org/x/image/colornames"
	_ "golang.org/x/image/webp" // register WebP backgrounds
)

var _ Surface = (*gg.Context)(nil)

// Accuracy bar geometry, in canvas pixels.
const (
	accuracyBarHeight = 12.0
	accuracyBarMargin = 8.0
)

// FrameOptions controls RenderFrame.
type FrameOptions struct {
	// Width and Height size a blank canvas. They are ignored when Background is set.
	Width  int
	Height int
	// Background, if set, is drawn under the skeleton and fixes the canvas size.
	Background    image.Image
	MinConfidence float64
	Scale         float64
	// Accuracy, if set, draws a bar along the bottom edge filled to that percentage.
	Accuracy *float64
}

// FrameStats reports what RenderFrame drew.
type FrameStats struct {
	Width     int `json:"width"`
	Height    int `json:"height"`
	Segments  int `json:"segments"`
	Keypoints int `json:"keypoints"`
}

// NewCanvas creates the drawing context for a frame: either over the
// background image or a blank black canvas of the requested size.
func NewCanvas(opts FrameOptions) (*gg.Context, error) {
	if opts.Background != nil {
		b := opts.Background.Bounds()
		if b.Dx() <= 0 || b.Dy() <= 0 {
			return nil, fmt.Errorf("%w: background is %dx%d", ErrInvalidCanvas, b.Dx(), b.Dy())
		}
		return gg.NewContextForImage(opts.Background), nil
	}

	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidCanvas, opts.Width, opts.Height)
	}
	dc := gg.NewContext(opts.Width, opts.Height)
	dc.ClearWithColor(gg.FromColor(colornames.Black))
	return dc, nil
}

// RenderFrame draws keypoints onto a new canvas and writes it to w as PNG.
func RenderFrame(w io.Writer, keypoints types.KeypointSet, opts FrameOptions) (*FrameStats, error) {
	dc, err := NewCanvas(opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = dc.Close() }()

	stats := &FrameStats{Width: dc.Width(), Height: dc.Height()}

	stats.Segments, err = DrawSkeleton(keypoints, opts.MinConfidence, dc, opts.Scale)
	if err != nil {
		return nil, err
	}
	stats.Keypoints, err = DrawKeypoints(keypoints, opts.MinConfidence, dc, opts.Scale)
	if err != nil {
		return nil, err
	}

	if opts.Accuracy != nil {
		if err := drawAccuracyBar(dc, *opts.Accuracy); err != nil {
			return nil, err
		}
	}

	if err := dc.EncodePNG(w); err != nil {
		return nil, &RenderError{Message: "failed to encode PNG", Cause: err}
	}
	return stats, nil
}

// RenderFrameFile is RenderFrame writing to a file path.
func RenderFrameFile(path string, keypoints types.KeypointSet, opts FrameOptions) (*FrameStats, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	stats, err := RenderFrame(f, keypoints, opts)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close output file: %w", closeErr)
	}
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// DecodeBackground decodes a PNG, JPEG or WebP image.
func DecodeBackground(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, &RenderError{Message: "failed to decode background image", Cause: err}
	}
	return img, nil
}

// LoadBackground reads and decodes a background image file.
func LoadBackground(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open background image: %w", err)
	}
	defer func() { _ = f.Close() }()
	return DecodeBackground(f)
}

func drawAccuracyBar(dc *gg.Context, accuracy float64) error {
	if math.IsNaN(accuracy) {
		accuracy = 0
	}
	accuracy = math.Max(0, math.Min(100, accuracy))

	width := float64(dc.Width()) - 2*accuracyBarMargin
	if width <= 0 {
		return nil
	}
	y := float64(dc.Height()) - accuracyBarMargin - accuracyBarHeight

	dc.SetColor(colornames.Dimgray)
	dc.DrawRectangle(accuracyBarMargin, y, width, accuracyBarHeight)
	if err := dc.Fill(); err != nil {
		return &RenderError{Message: "failed to draw accuracy bar", Cause: err}
	}

	filled := width * accuracy / 100
	if filled == 0 {
		return nil
	}
	dc.SetColor(accuracyColor(accuracy))
	dc.DrawRectangle(accuracyBarMargin, y, filled, accuracyBarHeight)
	if err := dc.Fill(); err != nil {
		return &RenderError{Message: "failed to draw accuracy bar", Cause: err}
	}
	return nil
}

func accuracyColor(accuracy float64) color.Color {
	switch {
	case accuracy >= 80:
		return colornames.Limegreen
	case accuracy >= 50:
		return colornames.Orange
	default:
		return colornames.Crimson
	}
}
