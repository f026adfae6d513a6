package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/pose-coach/internal/types"
)

// -----------------------------------------------------------------------------
// Pose Methods
// -----------------------------------------------------------------------------

const poseColumns = `id, slug, name, description, image_url, config, created_at, updated_at`

// CreatePose inserts a pose and returns the stored record. The slug is
// derived from the name when empty.
func (db *DB) CreatePose(ctx context.Context, pose *types.Pose) (*types.Pose, error) {
	pose.EnsureSlug()

	configJSON, err := json.Marshal(pose.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pose config: %w", err)
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO poses (slug, name, description, image_url, config)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+poseColumns,
		pose.Slug, pose.Name, pose.Description, pose.ImageURL, configJSON,
	)
	created, err := scanPose(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSlug, pose.Slug)
		}
		return nil, fmt.Errorf("failed to create pose: %w", err)
	}
	return created, nil
}

// GetPose resolves a reference that is either a pose UUID or a slug.
// Returns nil, nil when no pose matches.
func (db *DB) GetPose(ctx context.Context, ref string) (*types.Pose, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return db.GetPoseByID(ctx, id)
	}
	return db.GetPoseBySlug(ctx, ref)
}

// GetPoseByID retrieves a pose by its UUID
func (db *DB) GetPoseByID(ctx context.Context, id uuid.UUID) (*types.Pose, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+poseColumns+` FROM poses WHERE id = $1`,
		id,
	)
	pose, err := scanPose(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pose: %w", err)
	}
	return pose, nil
}

// GetPoseBySlug retrieves a pose by its slug
func (db *DB) GetPoseBySlug(ctx context.Context, slug string) (*types.Pose, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+poseColumns+` FROM poses WHERE slug = $1`,
		slug,
	)
	pose, err := scanPose(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pose: %w", err)
	}
	return pose, nil
}

// ListPoses returns poses ordered by name
func (db *DB) ListPoses(ctx context.Context, opts ListOptions) ([]types.Pose, error) {
	opts = opts.normalize()

	rows, err := db.pool.Query(ctx,
		`SELECT `+poseColumns+` FROM poses
		 ORDER BY name, slug
		 LIMIT $1 OFFSET $2`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list poses: %w", err)
	}
	defer rows.Close()

	poses := []types.Pose{}
	for rows.Next() {
		pose, err := scanPose(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pose: %w", err)
		}
		poses = append(poses, *pose)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list poses: %w", err)
	}
	return poses, nil
}

// UpdatePose replaces the metadata and config of an existing pose.
func (db *DB) UpdatePose(ctx context.Context, id uuid.UUID, pose *types.Pose) (*types.Pose, error) {
	pose.EnsureSlug()

	configJSON, err := json.Marshal(pose.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pose config: %w", err)
	}

	row := db.pool.QueryRow(ctx,
		`UPDATE poses
		 SET slug = $2, name = $3, description = $4, image_url = $5, config = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+poseColumns,
		id, pose.Slug, pose.Name, pose.Description, pose.ImageURL, configJSON,
	)
	updated, err := scanPose(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPoseNotFound
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSlug, pose.Slug)
		}
		return nil, fmt.Errorf("failed to update pose: %w", err)
	}
	return updated, nil
}

// DeletePose removes a pose by ID
func (db *DB) DeletePose(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM poses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pose: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPoseNotFound
	}
	return nil
}

// scanPose reads one row in poseColumns order.
func scanPose(row pgx.Row) (*types.Pose, error) {
	var p types.Pose
	var configJSON []byte
	if err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.ImageURL, &configJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(configJSON, &p.Config); err != nil {
		return nil, fmt.Errorf("failed to decode config of pose %s: %w", p.Slug, err)
	}
	return &p, nil
}
