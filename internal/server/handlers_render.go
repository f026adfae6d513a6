package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jonathan/pose-coach/internal/rendering"
	"github.com/jonathan/pose-coach/internal/types"
)

// MaxRenderDimension bounds the width and height of a rendered frame.
const MaxRenderDimension = 4096

// RenderRequest is the body of POST /render. Unset fields take the server's
// render defaults. When Pose names a library pose, the frame is scored and
// an accuracy bar is drawn.
type RenderRequest struct {
	Keypoints     types.KeypointSet `json:"keypoints"`
	Width         int               `json:"width,omitempty"`
	Height        int               `json:"height,omitempty"`
	MinConfidence *float64          `json:"min_confidence,omitempty"`
	Scale         float64           `json:"scale,omitempty"`
	Pose          string            `json:"pose,omitempty"`
}

// handleRender draws the skeleton overlay for one frame and returns a PNG
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFrameBody)).Decode(&req); err != nil {
		writeError(w, &ErrValidation{Field: "body", Message: "invalid request body: " + err.Error()})
		return
	}

	opts, err := s.renderOptions(req)
	if err != nil {
		writeError(w, err)
		return
	}

	if req.Pose != "" {
		pose, err := s.store.GetPose(r.Context(), req.Pose)
		if err != nil {
			writeError(w, err)
			return
		}
		if pose == nil {
			writeError(w, &ErrPoseNotFound{Ref: req.Pose})
			return
		}
		accuracy := s.analyzer.Evaluate(req.Keypoints, pose.Config).Accuracy
		opts.Accuracy = &accuracy
	}

	// Render fully before writing so failures still get a JSON error.
	var buf bytes.Buffer
	stats, err := rendering.RenderFrame(&buf, req.Keypoints, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	slog.DebugContext(r.Context(), "frame rendered",
		"width", stats.Width, "height", stats.Height,
		"segments", stats.Segments, "keypoints", stats.Keypoints)

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Skeleton-Segments", strconv.Itoa(stats.Segments))
	w.Header().Set("X-Skeleton-Keypoints", strconv.Itoa(stats.Keypoints))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.WarnContext(r.Context(), "failed to write PNG", "error", err)
	}
}

// renderOptions merges the request with the server defaults and checks bounds.
func (s *Server) renderOptions(req RenderRequest) (rendering.FrameOptions, error) {
	opts := rendering.FrameOptions{
		Width:         firstPositive(req.Width, s.render.Width),
		Height:        firstPositive(req.Height, s.render.Height),
		MinConfidence: s.render.MinConfidence,
		Scale:         req.Scale,
	}
	if req.MinConfidence != nil {
		opts.MinConfidence = *req.MinConfidence
	}
	if opts.Scale == 0 {
		opts.Scale = s.render.Scale
	}

	if opts.Width <= 0 || opts.Height <= 0 || opts.Width > MaxRenderDimension || opts.Height > MaxRenderDimension {
		return opts, &ErrValidation{
			Field:   "width/height",
			Message: fmt.Sprintf("canvas must be between 1x1 and %dx%d, got %dx%d", MaxRenderDimension, MaxRenderDimension, opts.Width, opts.Height),
		}
	}
	if opts.MinConfidence < 0 || opts.MinConfidence > 1 {
		return opts, &ErrValidation{Field: "min_confidence", Message: "must be between 0 and 1"}
	}
	if opts.Scale < 0 {
		return opts, &ErrValidation{Field: "scale", Message: "must be non-negative"}
	}
	return opts, nil
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
