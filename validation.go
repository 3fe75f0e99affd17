package toolsrv

import "encoding/json"

// schemaValidator validates a JSON-like value (map[string]any from json.Unmarshal).
// *jsonschema.Resolved implements it.
type schemaValidator interface {
	Validate(v any) error
}

// validateAgainstSchema runs the schema layer on coerced args. The args are round-tripped
// through JSON so the validator only sees JSON-native types.
func validateAgainstSchema(validate schemaValidator, args Args) error {
	data, err := json.Marshal(args)
	if err != nil {
		return &SystemError{Err: err}
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return &SystemError{Err: err}
	}
	if err := validate.Validate(v); err != nil {
		return &ClientError{Reason: err.Error(), Err: ErrValidation}
	}
	return nil
}
