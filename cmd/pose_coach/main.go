// Package main provides the pose_coach CLI: frame scoring, skeleton rendering,
// pose library management and the HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/pose-coach/internal/logger"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "pose_coach",
	Short: "Pose scoring and skeleton rendering",
	Long: `pose_coach scores body keypoints from an external pose detector against
angle rules for a target pose, renders skeleton overlays, and serves both
through an HTTP API backed by a PostgreSQL pose library.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		level := logLevel
		if level == "" {
			level = os.Getenv("LOG_LEVEL")
		}
		logger.Setup(logger.Options{Env: os.Getenv("ENV"), Level: level})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (defaults to LOG_LEVEL env var)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
