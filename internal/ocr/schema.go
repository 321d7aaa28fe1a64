package ocr

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// buildDetectionSchema returns the JSON-Schema (draft 2020-12 subset) every
// remote OCR response must satisfy: a detections array whose entries are
// exactly one text plus one confidence in [0,1].
func buildDetectionSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"detections"},
		"properties": map[string]any{
			"detections": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"text", "confidence"},
					"properties": map[string]any{
						"text":       map[string]any{"type": "string"},
						"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
					},
				},
			},
		},
	}
}

var detectionSchema = mustCompileSchema(buildDetectionSchema())

// validateDetectionResponse validates a raw response body against the
// detection contract.
func validateDetectionResponse(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if err := detectionSchema.Validate(v); err != nil {
		return fmt.Errorf("response does not match schema: %w", err)
	}
	return nil
}

func mustCompileSchema(schemaMap map[string]any) *jsonschema.Schema {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		panic(fmt.Errorf("marshal schema: %w", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("detections.json", bytes.NewReader(b)); err != nil {
		panic(fmt.Errorf("add schema: %w", err))
	}
	schema, err := compiler.Compile("detections.json")
	if err != nil {
		panic(fmt.Errorf("compile schema: %w", err))
	}
	return schema
}
