package api

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const (
	predictionSchemaJSON = `{
  "type": "object",
  "required": ["approved", "probability", "importance"],
  "properties": {
    "approved": {"type": "boolean"},
    "probability": {"type": "number", "minimum": 0, "maximum": 1},
    "importance": {
      "type": "object",
      "additionalProperties": {"type": "number"}
    }
  }
}`

	reportSchemaJSON = `{
  "type": "object",
  "required": ["accuracy", "precision", "recall", "bias_checks"],
  "properties": {
    "accuracy": {"type": "number"},
    "precision": {"type": "number"},
    "recall": {"type": "number"},
    "bias_checks": {"type": "array", "items": {"type": "string"}}
  }
}`

	// consent responses are not interpreted, any JSON value passes
	consentSchemaJSON = `{}`
)

var (
	predictionSchema = mustSchema(predictionSchemaJSON)
	reportSchema     = mustSchema(reportSchemaJSON)
	consentSchema    = mustSchema(consentSchemaJSON)
)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid response schema: %v", err))
	}
	return schema
}

// validate checks the body against the schema. Bodies that are not JSON
// return ErrDecode, bodies that do not match return ErrSchema.
func validate(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
}
