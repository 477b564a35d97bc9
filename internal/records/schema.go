package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/JaimeStill/quill/internal/fields"
)

const schemaURL = "persisted-records.json"

const persistedSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "type", "page_number", "x_percent", "y_percent", "width_percent", "assigned_role", "is_signed"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "type": {"enum": ["signature", "initials", "date"]},
      "page_number": {"type": "integer", "minimum": 1},
      "x_percent": {"type": "number", "minimum": 0, "maximum": 100},
      "y_percent": {"type": "number", "minimum": 0, "maximum": 100},
      "width_percent": {"type": "number", "exclusiveMinimum": 0, "maximum": 100},
      "height_percent": {"type": ["number", "null"], "minimum": 0, "maximum": 100},
      "assigned_role": {"enum": ["first_party", "second_first_party", "counterparty", "third_party"]},
      "assigned_identity_id": {"type": ["string", "null"]},
      "label": {"type": ["string", "null"]},
      "is_signed": {"type": "boolean"},
      "signature_url": {"type": ["string", "null"]},
      "signed_value": {"type": ["string", "null"]},
      "signed_by_name": {"type": ["string", "null"]},
      "signed_by_title": {"type": ["string", "null"]},
      "signed_at": {"type": ["string", "null"], "format": "date-time"}
    }
  }
}`

var compiled = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(schemaURL, strings.NewReader(persistedSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile(schemaURL)
})

// ValidateJSON checks a caller-supplied array of persisted field records
// against the record schema and decodes it.
func ValidateJSON(data []byte) ([]fields.Persisted, error) {
	schema, err := compiled()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	var recs []fields.Persisted
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return recs, nil
}
