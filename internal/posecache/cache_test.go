package posecache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/pose-coach/internal/db"
	"github.com/jonathan/pose-coach/internal/types"
)

// memStore is an in-memory Store that counts lookups.
type memStore struct {
	mu    sync.Mutex
	poses map[uuid.UUID]*types.Pose
	gets  int
}

func newMemStore() *memStore {
	return &memStore{poses: make(map[uuid.UUID]*types.Pose)}
}

func (s *memStore) CreatePose(_ context.Context, pose *types.Pose) (*types.Pose, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pose.EnsureSlug()
	stored := *pose
	stored.ID = uuid.New()
	s.poses[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (s *memStore) GetPose(_ context.Context, ref string) (*types.Pose, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	for id, p := range s.poses {
		if id.String() == ref || p.Slug == ref {
			out := *p
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListPoses(_ context.Context, _ db.ListOptions) ([]types.Pose, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Pose, 0, len(s.poses))
	for _, p := range s.poses {
		out = append(out, *p)
	}
	return out, nil
}

func (s *memStore) UpdatePose(_ context.Context, id uuid.UUID, pose *types.Pose) (*types.Pose, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.poses[id]; !ok {
		return nil, db.ErrPoseNotFound
	}
	pose.EnsureSlug()
	stored := *pose
	stored.ID = id
	s.poses[id] = &stored
	out := stored
	return &out, nil
}

func (s *memStore) DeletePose(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.poses[id]; !ok {
		return db.ErrPoseNotFound
	}
	delete(s.poses, id)
	return nil
}

func treePose() *types.Pose {
	return &types.Pose{
		Name: "Tree",
		Config: types.PoseConfig{
			{Name: "standing_knee", P1: types.LeftHip, P2: types.LeftKnee, P3: types.LeftAnkle, Target: 180, Tolerance: 10},
		},
	}
}

func TestCache_NoClientPassesThrough(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cache := New(store, nil, time.Minute)

	created, err := cache.CreatePose(ctx, treePose())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := cache.GetPose(ctx, "tree")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, created.ID, got.ID)
	}
	assert.Equal(t, 3, store.gets)

	missing, err := cache.GetPose(ctx, "chair")
	require.NoError(t, err)
	assert.Nil(t, missing)

	update := treePose()
	update.Description = "balance"
	updated, err := cache.UpdatePose(ctx, created.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "balance", updated.Description)

	require.NoError(t, cache.DeletePose(ctx, created.ID))
	assert.ErrorIs(t, cache.DeletePose(ctx, created.ID), db.ErrPoseNotFound)
}

func TestCache_UpdateMissingReturnsStoreError(t *testing.T) {
	cache := New(newMemStore(), nil, time.Minute)
	_, err := cache.UpdatePose(context.Background(), uuid.New(), treePose())
	assert.ErrorIs(t, err, db.ErrPoseNotFound)
}

func TestPoseKeys(t *testing.T) {
	id := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	a := &types.Pose{ID: id, Slug: "tree"}
	renamed := &types.Pose{ID: id, Slug: "tree_pose"}

	keys := poseKeys(a, renamed, nil)
	assert.Equal(t, []string{
		KeyPrefix + id.String(),
		KeyPrefix + "tree",
		KeyPrefix + "tree_pose",
	}, keys)

	assert.Empty(t, poseKeys(&types.Pose{}))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "pose_coach:pose:mountain", Key("mountain"))
}

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect(context.Background(), "http://localhost:6379")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse redis url")
}

// The tests below require a running Redis server.
// Set TEST_REDIS_URL (e.g. redis://localhost:6379/15) to run them.
func getTestClient(t *testing.T) *Cache {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set, skipping integration test")
	}

	client, err := Connect(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return New(newMemStore(), client, time.Minute)
}

func TestIntegration_ReadThrough(t *testing.T) {
	cache := getTestClient(t)
	store := cache.store.(*memStore)
	ctx := context.Background()

	created, err := cache.CreatePose(ctx, treePose())
	require.NoError(t, err)
	t.Cleanup(func() { cache.Invalidate(ctx, created) })

	first, err := cache.GetPose(ctx, created.ID.String())
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, store.gets)

	// Served from Redis under both keys.
	second, err := cache.GetPose(ctx, "tree")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, 1, store.gets)
	assert.Equal(t, created.ID, second.ID)
	assert.Equal(t, []string{"standing_knee"}, second.Config.Names())

	update := treePose()
	update.Description = "balance"
	_, err = cache.UpdatePose(ctx, created.ID, update)
	require.NoError(t, err)

	third, err := cache.GetPose(ctx, "tree")
	require.NoError(t, err)
	assert.Equal(t, "balance", third.Description)

	require.NoError(t, cache.DeletePose(ctx, created.ID))
	gone, err := cache.GetPose(ctx, "tree")
	require.NoError(t, err)
	assert.Nil(t, gone)
}
