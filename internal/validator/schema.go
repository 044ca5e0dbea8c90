package validator

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// requestSchema describes the shape of a raw DecompositionRequest payload,
// enough to catch malformed input (e.g. from a model-assisted upstream
// decomposition step) before it reaches Go's struct unmarshalling and the
// heuristic checks in Validate.
var requestSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"task", "templates"},
	Properties: map[string]*jsonschema.Schema{
		"task": {Type: "string", MinLength: jsonschema.Ptr(1)},
		"templates": {
			Type: "array",
			Items: &jsonschema.Schema{
				Type:     "object",
				Required: []string{"title"},
				Properties: map[string]*jsonschema.Schema{
					"title":       {Type: "string", MinLength: jsonschema.Ptr(1)},
					"description": {Type: "string"},
					"type":        {Type: "string"},
				},
			},
		},
	},
}

// ValidateRequestSchema checks a raw DecompositionRequest JSON payload
// against requestSchema before it is unmarshalled into Go types.
func ValidateRequestSchema(raw []byte) error {
	resolved, err := requestSchema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolve request schema: %w", err)
	}

	var instance interface{}
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("decompose request payload is not valid JSON: %w", err)
	}

	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("decompose request payload failed schema validation: %w", err)
	}
	return nil
}
