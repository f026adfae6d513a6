package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/pose-coach/internal/schemas"
)

var validatePoseCmd = &cobra.Command{
	Use:   "validate-pose <pose.json>...",
	Short: "Validate pose documents",
	Long: `Checks each pose document against the pose JSON Schema, then checks its
rules: landmarks in range, a vertex distinct from both ends, and targets
between 0 and 180 degrees.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidatePose,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a JSON file against a JSON Schema file",
	RunE:  runValidate,
}

var (
	validateSchemaFile string
	validateJSONFile   string
)

func init() {
	validateCmd.Flags().StringVar(&validateSchemaFile, "schema", "", "Path to JSON Schema file (required)")
	validateCmd.Flags().StringVar(&validateJSONFile, "json", "", "Path to JSON file to validate (required)")
	_ = validateCmd.MarkFlagRequired("schema")
	_ = validateCmd.MarkFlagRequired("json")

	rootCmd.AddCommand(validatePoseCmd)
	rootCmd.AddCommand(validateCmd)
}

func runValidatePose(_ *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		pose, err := loadPoseFile(path)
		if err != nil {
			failed++
			_, _ = fmt.Fprintf(os.Stderr, "Validation failed: %s\n", path)
			printValidationError(err)
			continue
		}
		_, _ = fmt.Fprintf(os.Stdout, "Validation passed: %s (%s, %d rules)\n", path, pose.Name, len(pose.Config))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d pose documents failed validation", failed, len(args))
	}
	return nil
}

func runValidate(_ *cobra.Command, _ []string) error {
	err := schemas.ValidateJSON(validateSchemaFile, validateJSONFile)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Validation failed")
		printValidationError(err)
		return fmt.Errorf("%s does not match %s", validateJSONFile, validateSchemaFile)
	}
	_, _ = fmt.Fprintln(os.Stdout, "Validation passed")
	return nil
}

// printValidationError lists schema field errors one per line, or the error itself.
func printValidationError(err error) {
	var schemaErr *schemas.ValidationError
	if errors.As(err, &schemaErr) {
		for _, fe := range schemaErr.Errors {
			_, _ = fmt.Fprintf(os.Stderr, "  - %s: %s\n", fe.Field, fe.Message)
		}
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "  - %v\n", err)
}
