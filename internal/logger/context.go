package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields are added to every record logged with a context that carries them.
type LogFields struct {
	PoseID    *string // Pose library ID or slug
	SessionID *string // Stream session ID
	Frame     *int    // Frame index within a stream or batch
	RequestID *string
	Component string // e.g. "server", "pipeline"
}

// WithLogFields enriches ctx with fields. Later calls merge, with newer
// non-nil values winning.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := mergeFields(GetLogFields(ctx), fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields returns the fields carried by ctx, or empty LogFields.
func GetLogFields(ctx context.Context) LogFields {
	if ctx == nil {
		return LogFields{}
	}
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.PoseID != nil {
		result.PoseID = next.PoseID
	}
	if next.SessionID != nil {
		result.SessionID = next.SessionID
	}
	if next.Frame != nil {
		result.Frame = next.Frame
	}
	if next.RequestID != nil {
		result.RequestID = next.RequestID
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr returns a pointer to v, for filling LogFields inline.
func Ptr[T any](v T) *T {
	return &v
}
