// Package rendering draws detected keypoints and skeleton segments onto a 2D raster surface.
package rendering

import (
	"errors"
	"fmt"
)

// ErrInvalidCanvas is returned when a frame is requested with a non-positive size
// and no background image to size it from.
var ErrInvalidCanvas = errors.New("invalid canvas size")

// RenderError represents a general rendering failure
type RenderError struct {
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("render error: %s", e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
