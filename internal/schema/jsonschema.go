package schema

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/roach88/rulebook/internal/value"
)

// JSONSchemaValidator validates facts against a resolved JSON Schema
// (draft 2020-12 or draft-07). Defaults declared on object properties are
// applied to the output.
type JSONSchemaValidator struct {
	resolved *jsonschema.Resolved
}

// JSONSchema resolves s for validation.
func JSONSchema(s *jsonschema.Schema) (*JSONSchemaValidator, error) {
	resolved, err := s.Resolve(&jsonschema.ResolveOptions{ValidateDefaults: true})
	if err != nil {
		return nil, fmt.Errorf("resolve json schema: %w", err)
	}
	return &JSONSchemaValidator{resolved: resolved}, nil
}

// JSONSchemaFromJSON parses and resolves a JSON Schema document.
func JSONSchemaFromJSON(data []byte) (*JSONSchemaValidator, error) {
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse json schema: %w", err)
	}
	return JSONSchema(&s)
}

// Validate implements Validator.
//
// The library checks the canonical JSON form of the input. Only the defaults
// it fills in are carried back; every value already present in the input
// keeps its kind, so a Float stays a Float and a Time stays a Time.
func (v *JSONSchemaValidator) Validate(input value.Value) Result {
	data, err := value.MarshalCanonical(input)
	if err != nil {
		return Fail(err.Error())
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return Fail(err.Error())
	}

	if err := v.resolved.ApplyDefaults(&instance); err != nil {
		return Fail(err.Error())
	}
	if err := v.resolved.Validate(instance); err != nil {
		return Fail(err.Error())
	}

	in, ok := input.(value.Map)
	if !ok {
		return Pass(value.Clone(input))
	}
	filled, err := json.Marshal(instance)
	if err != nil {
		return Fail(err.Error())
	}
	decoded, err := value.FromJSON(filled)
	if err != nil {
		return Fail(err.Error())
	}
	defaults, ok := decoded.(value.Map)
	if !ok {
		return Pass(in.Clone())
	}
	return Pass(value.Merge(in.Clone(), defaults, value.WithOverride(false)))
}
