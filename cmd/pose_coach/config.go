package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/pose-coach/internal/config"
	"github.com/jonathan/pose-coach/internal/db"
	"github.com/jonathan/pose-coach/internal/posecache"
	"github.com/jonathan/pose-coach/internal/schemas"
	"github.com/jonathan/pose-coach/internal/types"
)

// resolveConfig builds the effective configuration: the --config file, then
// any flags the user set explicitly, then the environment, then defaults.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	if err := applyFlagOverrides(cmd, &cfg); err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()
	cfg = cfg.MergeWithDefaults(config.Config{})

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyFlagOverrides copies every explicitly set flag the command defines
// onto cfg. Flags a command does not define are never Changed.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	stringFlags := map[string]*string{
		"pose":       &cfg.Pose,
		"frames":     &cfg.Frames,
		"background": &cfg.Background,
		"out-dir":    &cfg.OutputDir,
		"db-url":     &cfg.DatabaseURL,
		"redis-url":  &cfg.RedisURL,
		"cache-ttl":  &cfg.CacheTTL,
	}
	for name, dst := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	floats := map[string]*float64{
		"min-confidence": &cfg.MinConfidence,
		"scale":          &cfg.Scale,
	}
	for name, dst := range floats {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetFloat64(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	ints := map[string]*int{
		"width":   &cfg.CanvasWidth,
		"height":  &cfg.CanvasHeight,
		"workers": &cfg.Workers,
	}
	for name, dst := range ints {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetInt(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if flags.Changed("verbose") {
		v, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = v
	}
	return nil
}

// openLibrary connects to the pose library, fronted by the Redis cache when
// a Redis URL is configured. The returned func releases both connections.
func openLibrary(ctx context.Context, cfg config.Config) (posecache.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, nil, err
	}

	if cfg.RedisURL == "" {
		return database, database.Close, nil
	}

	client, err := posecache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	closeAll := func() {
		_ = client.Close()
		database.Close()
	}
	return posecache.New(database, client, cfg.CacheTTLDuration()), closeAll, nil
}

// loadPose reads ref as a pose document file, or looks it up in the pose
// library by ID or slug when no such file exists.
func loadPose(ctx context.Context, ref string, cfg config.Config) (*types.Pose, error) {
	if ref == "" {
		return nil, fmt.Errorf("--pose is required (via flag or config)")
	}

	if _, err := os.Stat(ref); err == nil {
		return loadPoseFile(ref)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read pose file: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("pose file %s not found (set DATABASE_URL to look it up in the pose library)", ref)
	}

	store, closeLibrary, err := openLibrary(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeLibrary()

	pose, err := store.GetPose(ctx, ref)
	if err != nil {
		return nil, err
	}
	if pose == nil {
		return nil, fmt.Errorf("%w: %s", db.ErrPoseNotFound, ref)
	}
	return pose, nil
}

// loadPoseFile reads and validates a pose document.
func loadPoseFile(path string) (*types.Pose, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pose file: %w", err)
	}
	doc, err := schemas.ValidatePoseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("invalid pose document %s: %w", path, err)
	}
	return doc.Pose(), nil
}
