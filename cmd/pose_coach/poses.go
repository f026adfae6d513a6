package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/pose-coach/internal/db"
	"github.com/jonathan/pose-coach/internal/frames"
	"github.com/jonathan/pose-coach/internal/observability"
	"github.com/jonathan/pose-coach/internal/posecache"
	"github.com/jonathan/pose-coach/internal/types"
)

var posesCmd = &cobra.Command{
	Use:   "poses",
	Short: "Manage the pose library",
	Long:  "Imports, lists, shows and deletes poses in the PostgreSQL pose library (DATABASE_URL).",
}

var posesImportCmd = &cobra.Command{
	Use:   "import <pose.json>...",
	Short: "Import pose documents into the library",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPosesImport,
}

var posesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List library poses",
	Args:  cobra.NoArgs,
	RunE:  runPosesList,
}

var posesGetCmd = &cobra.Command{
	Use:   "get <id|slug>",
	Short: "Show one library pose",
	Args:  cobra.ExactArgs(1),
	RunE:  runPosesGet,
}

var posesDeleteCmd = &cobra.Command{
	Use:   "delete <id|slug>",
	Short: "Delete a library pose",
	Args:  cobra.ExactArgs(1),
	RunE:  runPosesDelete,
}

var (
	posesReplace bool
	posesLimit   int
	posesOffset  int
	posesJSON    bool
)

func init() {
	posesCmd.PersistentFlags().String("db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	posesCmd.PersistentFlags().String("redis-url", "", "Redis URL of the pose cache (optional, defaults to REDIS_URL env var)")

	posesImportCmd.Flags().BoolVar(&posesReplace, "replace", false, "Update poses whose slug already exists instead of failing")
	posesListCmd.Flags().IntVar(&posesLimit, "limit", db.DefaultListLimit, "Maximum poses to list")
	posesListCmd.Flags().IntVar(&posesOffset, "offset", 0, "Poses to skip")
	posesListCmd.Flags().BoolVar(&posesJSON, "json", false, "Print JSON lines instead of a table")
	posesGetCmd.Flags().BoolVar(&posesJSON, "json", false, "Print the pose as JSON")

	posesCmd.AddCommand(posesImportCmd, posesListCmd, posesGetCmd, posesDeleteCmd)
	rootCmd.AddCommand(posesCmd)
}

// withLibrary resolves the config and runs fn against the pose library.
func withLibrary(cmd *cobra.Command, fn func(ctx context.Context, store posecache.Store) error) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	store, closeLibrary, err := openLibrary(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLibrary()

	return fn(ctx, store)
}

func runPosesImport(cmd *cobra.Command, args []string) error {
	return withLibrary(cmd, func(ctx context.Context, store posecache.Store) error {
		for _, path := range args {
			pose, err := loadPoseFile(path)
			if err != nil {
				return err
			}

			stored, err := store.CreatePose(ctx, pose)
			if errors.Is(err, db.ErrDuplicateSlug) && posesReplace {
				stored, err = replacePose(ctx, store, pose)
			}
			if err != nil {
				return fmt.Errorf("failed to import %s: %w", path, err)
			}

			_, _ = fmt.Fprintf(os.Stdout, "Imported %s as %s (%s)\n", path, stored.Slug, stored.ID)
		}
		return nil
	})
}

func replacePose(ctx context.Context, store posecache.Store, pose *types.Pose) (*types.Pose, error) {
	existing, err := store.GetPose(ctx, pose.Slug)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: %s", db.ErrPoseNotFound, pose.Slug)
	}
	return store.UpdatePose(ctx, existing.ID, pose)
}

func runPosesList(cmd *cobra.Command, _ []string) error {
	return withLibrary(cmd, func(ctx context.Context, store posecache.Store) error {
		poses, err := store.ListPoses(ctx, db.ListOptions{Limit: posesLimit, Offset: posesOffset})
		if err != nil {
			return err
		}

		if posesJSON {
			out := frames.NewWriter(os.Stdout)
			for _, p := range poses {
				if err := out.Write(p); err != nil {
					return err
				}
			}
			return nil
		}

		if len(poses) == 0 {
			_, _ = fmt.Fprintln(os.Stdout, "No poses in the library")
			return nil
		}
		for _, p := range poses {
			_, _ = fmt.Fprintf(os.Stdout, "%-36s  %-24s  %-24s  %d rules\n", p.ID, p.Slug, p.Name, len(p.Config))
		}
		return nil
	})
}

func runPosesGet(cmd *cobra.Command, args []string) error {
	return withLibrary(cmd, func(ctx context.Context, store posecache.Store) error {
		pose, err := getLibraryPose(ctx, store, args[0])
		if err != nil {
			return err
		}

		if posesJSON {
			return frames.NewWriter(os.Stdout).Write(pose)
		}
		observability.NewPrinter(os.Stdout).PrintPose(pose)
		return nil
	})
}

func runPosesDelete(cmd *cobra.Command, args []string) error {
	return withLibrary(cmd, func(ctx context.Context, store posecache.Store) error {
		pose, err := getLibraryPose(ctx, store, args[0])
		if err != nil {
			return err
		}
		if err := store.DeletePose(ctx, pose.ID); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(os.Stdout, "Deleted %s (%s)\n", pose.Slug, pose.ID)
		return nil
	})
}

func getLibraryPose(ctx context.Context, store posecache.Store, ref string) (*types.Pose, error) {
	pose, err := store.GetPose(ctx, ref)
	if err != nil {
		return nil, err
	}
	if pose == nil {
		return nil, fmt.Errorf("%w: %s", db.ErrPoseNotFound, ref)
	}
	return pose, nil
}
