// Package schemas provides JSON Schema generation and validation for pose and frame documents.
package schemas

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError lists every schema violation found in a document.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is one violation; Field is a dotted path such as "config.left_knee.tolerance".
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// SchemaLoadError reports a schema that could not be read or compiled.
type SchemaLoadError struct {
	Path  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to load schema %s: %v", e.Path, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// ValidateJSON validates the JSON file at jsonPath against the schema file at schemaPath.
func ValidateJSON(schemaPath, jsonPath string) error {
	schema, err := readInput("schema", schemaPath)
	if err != nil {
		return err
	}
	doc, err := readInput("JSON", jsonPath)
	if err != nil {
		return err
	}

	if err := ValidateJSONBytes(schema, doc); err != nil {
		var loadErr *SchemaLoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = schemaPath
		}
		return err
	}
	return nil
}

func readInput(kind, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s file not found: %s", kind, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s file: %w", kind, err)
	}
	return data, nil
}

// ValidateJSONBytes validates a JSON document against a JSON Schema, both given as raw bytes.
func ValidateJSONBytes(schema, doc []byte) error {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return &SchemaLoadError{Path: "(inline)", Cause: err}
	}

	result, err := compiled.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
