// Package server provides the HTTP API for scoring frames and managing the pose library.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/pose-coach/internal/db"
	"github.com/jonathan/pose-coach/internal/rendering"
	"github.com/jonathan/pose-coach/internal/schemas"
)

// ErrPoseNotFound indicates no pose matches the requested ID or slug
type ErrPoseNotFound struct {
	Ref string
}

func (e *ErrPoseNotFound) Error() string {
	return fmt.Sprintf("pose not found: %s", e.Ref)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid username or password"
}

// ErrLoginDisabled indicates no author password is configured
type ErrLoginDisabled struct{}

func (e *ErrLoginDisabled) Error() string {
	return "author login is not configured"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound    *ErrPoseNotFound
		badCreds    *ErrInvalidCredentials
		disabled    *ErrLoginDisabled
		validation  *ErrValidation
		schemaError *schemas.ValidationError
	)

	switch {
	case errors.As(err, &notFound), errors.Is(err, db.ErrPoseNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrDuplicateSlug):
		return http.StatusConflict
	case errors.As(err, &badCreds):
		return http.StatusUnauthorized
	case errors.As(err, &disabled):
		return http.StatusServiceUnavailable
	case errors.As(err, &validation), errors.As(err, &schemaError), errors.Is(err, rendering.ErrInvalidCanvas):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
