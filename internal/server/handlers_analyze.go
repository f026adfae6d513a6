package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/pose-coach/internal/eventid"
	"github.com/jonathan/pose-coach/internal/frames"
	"github.com/jonathan/pose-coach/internal/logger"
	"github.com/jonathan/pose-coach/internal/scoring"
	"github.com/jonathan/pose-coach/internal/types"
)

// Request body bounds
const (
	maxFrameBody  = 1 << 20
	maxStreamBody = 64 << 20
)

// AnalyzeRequest is the body of POST /analyze: an ad-hoc config scored
// against one frame's keypoints.
type AnalyzeRequest struct {
	Config    types.PoseConfig  `json:"config"`
	Keypoints types.KeypointSet `json:"keypoints"`
}

// AnalyzeResponse is a frame's score plus the per-rule breakdown.
type AnalyzeResponse struct {
	Pose  string `json:"pose,omitempty"`
	Frame int    `json:"frame"`
	types.ScoreResult
	Framed bool                  `json:"framed"`
	Rules  []scoring.RuleOutcome `json:"rules"`
}

func newAnalyzeResponse(pose string, frame int, report *scoring.Report) AnalyzeResponse {
	rules := report.Outcomes
	if rules == nil {
		rules = []scoring.RuleOutcome{}
	}
	return AnalyzeResponse{
		Pose:        pose,
		Frame:       frame,
		ScoreResult: report.Result(),
		Framed:      report.Framed,
		Rules:       rules,
	}
}

// handleAnalyzePose scores one frame against a library pose
func (s *Server) handleAnalyzePose(w http.ResponseWriter, r *http.Request) {
	pose, err := s.lookupPose(r)
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFrameBody))
	if err != nil {
		writeError(w, &ErrValidation{Field: "body", Message: "request body too large or unreadable"})
		return
	}

	frame, err := frames.DecodeFrame(body)
	if err != nil {
		writeError(w, &ErrValidation{Field: "body", Message: err.Error()})
		return
	}

	report := s.analyzer.Evaluate(frame.Keypoints, pose.Config)
	slog.DebugContext(poseContext(r, pose), "frame analyzed", "accuracy", report.Accuracy)
	writeJSON(w, http.StatusOK, newAnalyzeResponse(pose.Slug, frame.Index, report))
}

// handleAnalyze scores one frame against a config sent with the request
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFrameBody)).Decode(&req); err != nil {
		writeError(w, &ErrValidation{Field: "body", Message: "invalid request body: " + err.Error()})
		return
	}

	if err := req.Config.Validate(); err != nil {
		writeError(w, &ErrValidation{Field: "config", Message: err.Error()})
		return
	}

	report := s.analyzer.Evaluate(req.Keypoints, req.Config)
	writeJSON(w, http.StatusOK, newAnalyzeResponse("", 0, report))
}

// StreamResult is the data of one SSE "result" event.
type StreamResult struct {
	types.FrameResult
	Framed bool                  `json:"framed"`
	Rules  []scoring.RuleOutcome `json:"rules,omitempty"`
}

// handleStreamPose scores a JSON-lines body of frames against a library pose
// and streams one "result" event per frame, then a "complete" event with the
// session summary.
func (s *Server) handleStreamPose(w http.ResponseWriter, r *http.Request) {
	pose, err := s.lookupPose(r)
	if err != nil {
		writeError(w, err)
		return
	}

	// Results are written while the body is still being read.
	if err := http.NewResponseController(w).EnableFullDuplex(); err != nil {
		slog.DebugContext(r.Context(), "full duplex unavailable", "error", err)
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		writeError(w, err)
		return
	}

	sessionID := uuid.NewString()
	ctx := logger.WithLogFields(r.Context(), logger.LogFields{
		PoseID:    logger.Ptr(pose.Slug),
		SessionID: logger.Ptr(sessionID),
		Component: "stream",
	})
	slog.InfoContext(ctx, "stream started")

	var reports []*scoring.Report
	reader := frames.NewReader(http.MaxBytesReader(w, r.Body, maxStreamBody))
	err = reader.Each(ctx, func(frame types.Frame) error {
		report := s.analyzer.Evaluate(frame.Keypoints, pose.Config)
		reports = append(reports, report)

		result := StreamResult{
			FrameResult: types.FrameResult{
				Frame:       frame.Index,
				TimestampMS: frame.TimestampMS,
				ScoreResult: report.Result(),
			},
			Framed: report.Framed,
			Rules:  report.Outcomes,
		}
		if err := sse.WriteEventWithID(eventid.NewString(), EventResult, result); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
		return nil
	})

	summary := scoring.Summarize(reports)
	if err != nil {
		var lineErr *frames.LineError
		if errors.As(err, &lineErr) {
			slog.WarnContext(ctx, "stream rejected malformed frame", "line", lineErr.Line, "error", lineErr.Cause)
		} else {
			slog.ErrorContext(ctx, "stream failed", "error", err)
		}
		sse.WriteError(err.Error())
		return
	}

	sse.WriteComplete(sessionID, summary)
	slog.InfoContext(ctx, "stream completed",
		"frames", summary.Frames,
		"mean_accuracy", summary.MeanAccuracy)
}
