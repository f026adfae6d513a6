// Package logger configures structured logging and carries per-request log fields in context.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects the handler and level.
type Options struct {
	// Env is the deployment environment; "production" selects JSON output.
	Env string
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Output defaults to stderr.
	Output io.Writer
}

// ParseLevel maps a level name to a slog level, falling back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger: JSON in production, text otherwise, both enriched
// with the context's LogFields.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	if strings.EqualFold(opts.Env, "production") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	return slog.New(NewFieldsHandler(handler))
}

// Setup installs New(opts) as the default logger.
func Setup(opts Options) {
	slog.SetDefault(New(opts))
}

// FieldsHandler adds the context's LogFields to every record.
type FieldsHandler struct {
	slog.Handler
}

func NewFieldsHandler(h slog.Handler) *FieldsHandler {
	return &FieldsHandler{Handler: h}
}

func (h *FieldsHandler) Handle(ctx context.Context, r slog.Record) error {
	fields := GetLogFields(ctx)
	if fields.PoseID != nil {
		r.AddAttrs(slog.String("pose_id", *fields.PoseID))
	}
	if fields.SessionID != nil {
		r.AddAttrs(slog.String("session_id", *fields.SessionID))
	}
	if fields.Frame != nil {
		r.AddAttrs(slog.Int("frame", *fields.Frame))
	}
	if fields.RequestID != nil {
		r.AddAttrs(slog.String("request_id", *fields.RequestID))
	}
	if fields.Component != "" {
		r.AddAttrs(slog.String("component", fields.Component))
	}

	return h.Handler.Handle(ctx, r)
}

func (h *FieldsHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &FieldsHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *FieldsHandler) WithGroup(name string) slog.Handler {
	return &FieldsHandler{Handler: h.Handler.WithGroup(name)}
}
