package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonathan/pose-coach/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that scores frames, streams per-frame feedback over
Server-Sent Events, renders skeleton PNGs and serves the pose library.

Requires DATABASE_URL and JWT_SECRET. REDIS_URL enables the pose cache.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	servePort   int
	serveNodeID int64
)

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to PORT env var, then 8080)")
	serveCmd.Flags().Int64Var(&serveNodeID, "node-id", -1, "Snowflake node ID for event IDs, 0-1023 (defaults to SNOWFLAKE_NODE_ID env var, then 0)")
	serveCmd.Flags().String("db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	serveCmd.Flags().String("redis-url", "", "Redis URL of the pose cache (optional, defaults to REDIS_URL env var)")
	serveCmd.Flags().String("cache-ttl", "", "Pose cache TTL, e.g. 10m (optional, defaults to POSE_CACHE_TTL env var)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	port, err := envInt("PORT", servePort, 8080)
	if err != nil {
		return err
	}
	nodeID := serveNodeID
	if nodeID < 0 {
		n, err := envInt("SNOWFLAKE_NODE_ID", 0, 0)
		if err != nil {
			return err
		}
		nodeID = int64(n)
	}

	srv, err := server.New(server.Config{
		Port:        port,
		DatabaseURL: cfg.DatabaseURL,
		RedisURL:    cfg.RedisURL,
		CacheTTL:    cfg.CacheTTLDuration(),
		NodeID:      nodeID,
		Render: server.RenderDefaults{
			Width:         cfg.CanvasWidth,
			Height:        cfg.CanvasHeight,
			MinConfidence: cfg.MinConfidence,
			Scale:         cfg.Scale,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Start closes the server's connections when it returns.
	return srv.Start()
}

// envInt returns flagValue when set, else the named environment variable,
// else fallback.
func envInt(name string, flagValue, fallback int) (int, error) {
	if flagValue > 0 {
		return flagValue, nil
	}
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}
