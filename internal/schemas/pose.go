package schemas

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/jonathan/pose-coach/internal/types"
)

const draft07 = "http://json-schema.org/draft-07/schema#"

func reflectSchema(v any, title string) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := r.Reflect(v)
	// gojsonschema validates up to draft-07.
	schema.Version = draft07
	schema.ID = ""
	schema.Title = title
	return schema
}

// PoseSchema reflects the JSON Schema of an authored pose document.
func PoseSchema() *jsonschema.Schema {
	return reflectSchema(&types.PoseDocument{}, "Pose")
}

// FrameSchema reflects the JSON Schema of a single keypoint frame.
func FrameSchema() *jsonschema.Schema {
	return reflectSchema(&types.Frame{}, "Frame")
}

// GeneratePoseSchema renders PoseSchema as indented JSON.
func GeneratePoseSchema() ([]byte, error) {
	return marshalSchema(PoseSchema())
}

// GenerateFrameSchema renders FrameSchema as indented JSON.
func GenerateFrameSchema() ([]byte, error) {
	return marshalSchema(FrameSchema())
}

func marshalSchema(schema *jsonschema.Schema) ([]byte, error) {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}

// ValidatePoseDocument checks a pose document against the pose schema, decodes
// it, and runs struct validation on the result. Schema violations come back as
// *ValidationError.
func ValidatePoseDocument(data []byte) (*types.PoseDocument, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("pose document is not valid JSON")
	}

	schema, err := GeneratePoseSchema()
	if err != nil {
		return nil, err
	}
	if err := ValidateJSONBytes(schema, data); err != nil {
		return nil, err
	}

	var doc types.PoseDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode pose document: %w", err)
	}

	if err := doc.Pose().Validate(); err != nil {
		return nil, fmt.Errorf("pose validation failed: %w", err)
	}
	return &doc, nil
}
