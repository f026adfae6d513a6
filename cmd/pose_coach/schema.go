package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/pose-coach/internal/schemas"
)

var schemaCmd = &cobra.Command{
	Use:       "schema [pose|frame]",
	Short:     "Print a generated JSON Schema",
	Long:      "Prints the JSON Schema of pose documents (default) or keypoint frames, generated from the Go types.",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"pose", "frame"},
	RunE:      runSchema,
}

var schemaOutputFile string

func init() {
	schemaCmd.Flags().StringVarP(&schemaOutputFile, "out", "o", "", "Write the schema to a file instead of stdout")
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(_ *cobra.Command, args []string) error {
	kind := "pose"
	if len(args) == 1 {
		kind = args[0]
	}

	var (
		data []byte
		err  error
	)
	switch kind {
	case "frame":
		data, err = schemas.GenerateFrameSchema()
	default:
		data, err = schemas.GeneratePoseSchema()
	}
	if err != nil {
		return err
	}

	if schemaOutputFile == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(schemaOutputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}
	_, _ = fmt.Fprintf(os.Stdout, "Wrote %s schema to %s\n", kind, schemaOutputFile)
	return nil
}
