package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Errors returned by the pose library.
var (
	ErrPoseNotFound  = errors.New("pose not found")
	ErrDuplicateSlug = errors.New("a pose with this slug already exists")
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// List bounds
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ListOptions controls pagination for ListPoses.
type ListOptions struct {
	Limit  int
	Offset int
}

// normalize clamps the options to valid bounds.
func (o ListOptions) normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
