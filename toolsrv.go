package toolsrv

import (
	"context"
	"encoding/json"
	"time"
)

// ParamType is the primitive type of a tool parameter.
type ParamType string

const (
	TypeInteger ParamType = "integer"
	TypeFloat   ParamType = "float"
	TypeString  ParamType = "string"
	TypeBoolean ParamType = "boolean"
)

// jsonType returns the JSON Schema type name for the parameter type.
func (t ParamType) jsonType() string {
	if t == TypeFloat {
		return "number"
	}
	return string(t)
}

func (t ParamType) valid() bool {
	switch t {
	case TypeInteger, TypeFloat, TypeString, TypeBoolean:
		return true
	}
	return false
}

// ParameterSpec declares one tool parameter. When Required is false, Default must be set
// and coercible to Type; Register rejects descriptors that break this.
type ParameterSpec struct {
	Name        string
	Type        ParamType
	Required    bool
	Default     any
	Description string
}

// ToolDescriptor is the schema/metadata of a tool: its unique name, description and
// ordered parameter list.
type ToolDescriptor struct {
	Name        string
	Description string
	Parameters  []ParameterSpec
}

// Handler performs one unit of work with validated, coerced arguments.
// Returned errors become Failure results; they never escape the dispatcher.
type Handler func(ctx context.Context, args Args) (any, error)

// ToolCall is a single invocation request with a JSON argument payload.
type ToolCall struct {
	ID       string
	ToolName string
	Args     json.RawMessage // JSON object of arguments; empty means no arguments
}

// InvocationSummary is passed to the after-invocation hook (WithOnAfterInvoke).
type InvocationSummary struct {
	CallID   string
	ToolName string
	Error    error
	Duration time.Duration
}
