package toolsrv

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
)

// compiledSchema is the registration-time form of a ToolDescriptor: coerced defaults,
// the JSON Schema shown to clients and its resolved validator.
type compiledSchema struct {
	schema    *jsonschema.Schema
	schemaMap map[string]any
	resolved  *jsonschema.Resolved
	defaults  map[string]any
}

// compileDescriptor checks descriptor invariants and builds its JSON Schema.
// Optional parameters must carry a default that coerces to the declared type.
func compileDescriptor(desc ToolDescriptor) (*compiledSchema, error) {
	if desc.Name == "" {
		return nil, fmt.Errorf("%w: empty tool name", ErrInvalidDescriptor)
	}
	s := &jsonschema.Schema{
		Type:                 "object",
		Description:          desc.Description,
		Properties:           make(map[string]*jsonschema.Schema, len(desc.Parameters)),
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}
	defaults := make(map[string]any)
	for _, p := range desc.Parameters {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: %s: parameter with empty name", ErrInvalidDescriptor, desc.Name)
		}
		if _, dup := s.Properties[p.Name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate parameter %q", ErrInvalidDescriptor, desc.Name, p.Name)
		}
		if !p.Type.valid() {
			return nil, fmt.Errorf("%w: %s: parameter %q has unknown type %q", ErrInvalidDescriptor, desc.Name, p.Name, p.Type)
		}
		prop := &jsonschema.Schema{Type: p.Type.jsonType(), Description: p.Description}
		if p.Required {
			s.Required = append(s.Required, p.Name)
		} else {
			if p.Default == nil {
				return nil, fmt.Errorf("%w: %s: optional parameter %q has no default", ErrInvalidDescriptor, desc.Name, p.Name)
			}
			def, err := coerce(p.Type, p.Default)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: default of %q: %v", ErrInvalidDescriptor, desc.Name, p.Name, err)
			}
			raw, err := json.Marshal(def)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: default of %q: %v", ErrInvalidDescriptor, desc.Name, p.Name, err)
			}
			prop.Default = raw
			defaults[p.Name] = def
		}
		s.Properties[p.Name] = prop
	}
	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDescriptor, desc.Name, err)
	}
	schemaMap, err := schemaToMap(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDescriptor, desc.Name, err)
	}
	return &compiledSchema{
		schema:    s,
		schemaMap: schemaMap,
		resolved:  resolved,
		defaults:  defaults,
	}, nil
}

// schemaToMap converts any schema value into a generic JSON map (for MCP raw schemas).
func schemaToMap(s any) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// cloneDescriptor copies desc so later edits by the caller cannot reach the registry.
func cloneDescriptor(desc ToolDescriptor) ToolDescriptor {
	desc.Parameters = slices.Clone(desc.Parameters)
	return desc
}
