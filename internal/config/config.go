// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Defaults applied by MergeWithDefaults when neither the config file nor a flag sets a value.
const (
	DefaultMinConfidence = 0.3
	DefaultScale         = 1.0
	DefaultCanvasWidth   = 640
	DefaultCanvasHeight  = 480
	DefaultWorkers       = 4
	DefaultLogLevel      = "info"
	DefaultCacheTTL      = 10 * time.Minute
)

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Inputs
	Pose       string `json:"pose,omitempty"`       // Pose document path, or a library ID/slug
	Frames     string `json:"frames,omitempty"`     // JSON-lines keypoint frames
	Background string `json:"background,omitempty"` // Background image for rendering
	OutputDir  string `json:"output_dir,omitempty"` // Output directory for batch runs

	// Rendering
	MinConfidence float64 `json:"min_confidence,omitempty"` // Render threshold (0.0-1.0)
	Scale         float64 `json:"scale,omitempty"`          // Keypoint coordinate scale
	CanvasWidth   int     `json:"canvas_width,omitempty"`
	CanvasHeight  int     `json:"canvas_height,omitempty"`

	// Behavior
	Workers  int    `json:"workers,omitempty"` // Concurrent frames in batch runs
	Verbose  bool   `json:"verbose,omitempty"`
	LogLevel string `json:"log_level,omitempty"`

	// Backends
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	RedisURL    string `json:"redis_url,omitempty"`    // Redis URL for the pose cache
	CacheTTL    string `json:"cache_ttl,omitempty"`    // Pose cache TTL, e.g. "10m"
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required inputs are checked by the CLI after merging with flags.
func (c *Config) Validate() error {
	if c.MinConfidence < 0 || c.MinConfidence > 1 || math.IsNaN(c.MinConfidence) {
		return fmt.Errorf("config error: 'min_confidence' must be between 0 and 1")
	}
	if c.Scale < 0 || math.IsNaN(c.Scale) || math.IsInf(c.Scale, 0) {
		return fmt.Errorf("config error: 'scale' must be a non-negative number")
	}
	if c.CanvasWidth < 0 || c.CanvasHeight < 0 {
		return fmt.Errorf("config error: canvas size must be non-negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("config error: 'workers' must be non-negative")
	}

	if c.LogLevel != "" && !logLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("config error: unknown log_level %q", c.LogLevel)
	}

	if c.CacheTTL != "" {
		if _, err := time.ParseDuration(c.CacheTTL); err != nil {
			return fmt.Errorf("config error: invalid cache_ttl: %w", err)
		}
	}

	if c.Frames != "" {
		if _, err := os.Stat(c.Frames); os.IsNotExist(err) {
			return fmt.Errorf("config error: frames file not found: %s", c.Frames)
		}
	}
	if c.Background != "" {
		if _, err := os.Stat(c.Background); os.IsNotExist(err) {
			return fmt.Errorf("config error: background image not found: %s", c.Background)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults,
// then from the package defaults for the numeric tunables.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Pose == "" {
		result.Pose = defaults.Pose
	}
	if result.Frames == "" {
		result.Frames = defaults.Frames
	}
	if result.Background == "" {
		result.Background = defaults.Background
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.RedisURL == "" {
		result.RedisURL = defaults.RedisURL
	}
	if result.CacheTTL == "" {
		result.CacheTTL = defaults.CacheTTL
	}
	if result.LogLevel == "" {
		result.LogLevel = firstNonEmpty(defaults.LogLevel, DefaultLogLevel)
	}

	// Numeric fields: use default if zero
	if result.MinConfidence == 0 {
		result.MinConfidence = firstPositive(defaults.MinConfidence, DefaultMinConfidence)
	}
	if result.Scale == 0 {
		result.Scale = firstPositive(defaults.Scale, DefaultScale)
	}
	if result.CanvasWidth == 0 {
		result.CanvasWidth = int(firstPositive(float64(defaults.CanvasWidth), DefaultCanvasWidth))
	}
	if result.CanvasHeight == 0 {
		result.CanvasHeight = int(firstPositive(float64(defaults.CanvasHeight), DefaultCanvasHeight))
	}
	if result.Workers == 0 {
		result.Workers = int(firstPositive(float64(defaults.Workers), DefaultWorkers))
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// CacheTTLDuration returns the parsed cache TTL, or DefaultCacheTTL when unset or invalid.
func (c *Config) CacheTTLDuration() time.Duration {
	if c.CacheTTL == "" {
		return DefaultCacheTTL
	}
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d <= 0 {
		return DefaultCacheTTL
	}
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

// ApplyEnv fills backend settings left empty by the file and flags from the
// environment: DATABASE_URL, REDIS_URL, POSE_CACHE_TTL and LOG_LEVEL.
func (c *Config) ApplyEnv() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.RedisURL == "" {
		c.RedisURL = os.Getenv("REDIS_URL")
	}
	if c.CacheTTL == "" {
		c.CacheTTL = os.Getenv("POSE_CACHE_TTL")
	}
	if c.LogLevel == "" {
		c.LogLevel = os.Getenv("LOG_LEVEL")
	}
}
