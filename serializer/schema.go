package serializer

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	jsonschemav5 "github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaSerializer validates wire JSON against a compiled JSON Schema
// before exposing it to the caller, grounded on the teacher's
// internal/schema.Validator use of santhosh-tekuri/jsonschema/v5 as the
// compiler/validator for request and response payloads.
type SchemaSerializer struct {
	schema *jsonschemav5.Schema
}

// NewSchemaSerializer compiles schemaJSON (a JSON Schema document) and
// returns a Serializer backed by it. An empty schemaJSON produces a
// serializer that accepts anything, for descriptors that register a
// jsonschema mapper without actually constraining shape.
func NewSchemaSerializer(schemaJSON string) (*SchemaSerializer, error) {
	if strings.TrimSpace(schemaJSON) == "" {
		return &SchemaSerializer{}, nil
	}
	compiler := jsonschemav5.NewCompiler()
	const resourceName = "inline.json"
	if err := compiler.AddResource(resourceName, strings.NewReader(schemaJSON)); err != nil {
		return nil, errors.Wrap(err, "serializer: add schema resource")
	}
	compiled, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, errors.Wrap(err, "serializer: compile schema")
	}
	return &SchemaSerializer{schema: compiled}, nil
}

func (s *SchemaSerializer) Serialize(v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return raw, s.validate(raw)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "serializer: schema: marshal")
	}
	return b, s.validate(b)
}

func (s *SchemaSerializer) Deserialize(raw json.RawMessage, out any) error {
	if err := s.validate(raw); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if ptr, ok := out.(*json.RawMessage); ok {
		*ptr = raw
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "serializer: schema: unmarshal")
	}
	return nil
}

// validate checks raw against the compiled schema, honoring the
// ignore-unexpected-properties marker (§4.6): when the marker is present
// on the instance and every violation is an "additionalProperties" one,
// the instance is accepted.
func (s *SchemaSerializer) validate(raw json.RawMessage) error {
	if s.schema == nil {
		return nil
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return errors.Wrap(err, "serializer: schema: invalid json")
	}
	if err := s.schema.Validate(instance); err != nil {
		if HasIgnoreUnexpectedPropertiesMarker(raw) && isOnlyAdditionalPropertiesError(err) {
			return nil
		}
		return errors.Wrap(err, "serializer: schema validation failed")
	}
	return nil
}

func isOnlyAdditionalPropertiesError(err error) bool {
	var valErr *jsonschemav5.ValidationError
	if !errors.As(err, &valErr) {
		return false
	}
	stack := []*jsonschemav5.ValidationError{valErr}
	found := false
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(e.Causes) > 0 {
			stack = append(stack, e.Causes...)
			continue
		}
		if !strings.HasSuffix(e.KeywordLocation, "/additionalProperties") {
			return false
		}
		found = true
	}
	return found
}
