// Package posecache is a Redis read-through cache in front of the pose library.
package posecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonathan/pose-coach/internal/db"
	"github.com/jonathan/pose-coach/internal/types"
)

// KeyPrefix namespaces every key written by the cache.
const KeyPrefix = "pose_coach:pose:"

// Store is the pose library the cache sits in front of.
type Store interface {
	CreatePose(ctx context.Context, pose *types.Pose) (*types.Pose, error)
	GetPose(ctx context.Context, ref string) (*types.Pose, error)
	ListPoses(ctx context.Context, opts db.ListOptions) ([]types.Pose, error)
	UpdatePose(ctx context.Context, id uuid.UUID, pose *types.Pose) (*types.Pose, error)
	DeletePose(ctx context.Context, id uuid.UUID) error
}

// Cache implements Store. Lookups by ID or slug are served from Redis when
// present; writes go to the store and invalidate the affected keys. Redis
// failures are logged and never fail a request.
type Cache struct {
	store  Store
	client redis.Cmdable
	ttl    time.Duration
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// New wraps store. A nil client disables caching.
func New(store Store, client redis.Cmdable, ttl time.Duration) *Cache {
	return &Cache{store: store, client: client, ttl: ttl}
}

// Key returns the cache key for a pose reference (UUID or slug).
func Key(ref string) string {
	return KeyPrefix + ref
}

// GetPose returns the pose for ref, filling the cache on a miss.
func (c *Cache) GetPose(ctx context.Context, ref string) (*types.Pose, error) {
	if pose, ok := c.lookup(ctx, ref); ok {
		return pose, nil
	}

	pose, err := c.store.GetPose(ctx, ref)
	if err != nil || pose == nil {
		return pose, err
	}

	c.fill(ctx, pose)
	return pose, nil
}

// ListPoses is not cached; listings change with every write.
func (c *Cache) ListPoses(ctx context.Context, opts db.ListOptions) ([]types.Pose, error) {
	return c.store.ListPoses(ctx, opts)
}

// CreatePose stores the pose. Nothing is cached yet, so nothing is invalidated.
func (c *Cache) CreatePose(ctx context.Context, pose *types.Pose) (*types.Pose, error) {
	return c.store.CreatePose(ctx, pose)
}

// UpdatePose updates the pose and drops cached copies under its old and new keys.
func (c *Cache) UpdatePose(ctx context.Context, id uuid.UUID, pose *types.Pose) (*types.Pose, error) {
	previous, _ := c.store.GetPose(ctx, id.String())

	updated, err := c.store.UpdatePose(ctx, id, pose)
	if err != nil {
		return nil, err
	}

	c.Invalidate(ctx, previous, updated)
	return updated, nil
}

// DeletePose deletes the pose and its cached copies.
func (c *Cache) DeletePose(ctx context.Context, id uuid.UUID) error {
	previous, _ := c.store.GetPose(ctx, id.String())

	if err := c.store.DeletePose(ctx, id); err != nil {
		return err
	}

	if previous == nil {
		previous = &types.Pose{ID: id}
	}
	c.Invalidate(ctx, previous)
	return nil
}

// Invalidate removes the ID and slug keys of every given pose.
func (c *Cache) Invalidate(ctx context.Context, poses ...*types.Pose) {
	if c.client == nil {
		return
	}

	keys := poseKeys(poses...)
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		slog.WarnContext(ctx, "pose cache invalidation failed", "keys", keys, "error", err)
	}
}

func poseKeys(poses ...*types.Pose) []string {
	seen := make(map[string]bool)
	var keys []string
	add := func(ref string) {
		if ref == "" || seen[ref] {
			return
		}
		seen[ref] = true
		keys = append(keys, Key(ref))
	}

	for _, p := range poses {
		if p == nil {
			continue
		}
		if p.ID != uuid.Nil {
			add(p.ID.String())
		}
		add(p.Slug)
	}
	return keys
}

func (c *Cache) lookup(ctx context.Context, ref string) (*types.Pose, bool) {
	if c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, Key(ref)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "pose cache read failed", "ref", ref, "error", err)
		}
		return nil, false
	}

	var pose types.Pose
	if err := json.Unmarshal(data, &pose); err != nil {
		slog.WarnContext(ctx, "pose cache entry is corrupt", "ref", ref, "error", err)
		return nil, false
	}
	return &pose, true
}

// fill caches the pose under both its ID and its slug.
func (c *Cache) fill(ctx context.Context, pose *types.Pose) {
	if c.client == nil {
		return
	}

	data, err := json.Marshal(pose)
	if err != nil {
		slog.WarnContext(ctx, "pose cache encode failed", "pose_id", pose.ID, "error", err)
		return
	}

	pipe := c.client.Pipeline()
	for _, key := range poseKeys(pose) {
		pipe.Set(ctx, key, data, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		slog.WarnContext(ctx, "pose cache write failed", "pose_id", pose.ID, "error", err)
	}
}
