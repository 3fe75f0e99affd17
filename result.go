package toolsrv

import (
	"encoding/json"
	"errors"
	"time"
)

var errUnknownFailure = errors.New("unknown failure")

// Result is the outcome of one invocation: either Success (Value set, Err nil) or
// Failure (Err set, Value nil). Build it with Success or Failure.
type Result struct {
	CallID   string
	ToolName string
	Value    any
	Err      error
	Duration time.Duration
}

// Success wraps a handler return value.
func Success(v any) Result {
	return Result{Value: v}
}

// Failure wraps an invocation error. A nil err still yields a Failure.
func Failure(err error) Result {
	if err == nil {
		err = errUnknownFailure
	}
	return Result{Err: err}
}

// OK reports whether the invocation succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Message returns the human-readable failure message, or "" on success.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// MarshalJSON encodes the value on success and {"error": message} on failure.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(ErrorPayload{Error: r.Message()})
	}
	return json.Marshal(r.Value)
}

// ErrorPayload is the wire shape of a Failure.
type ErrorPayload struct {
	Error string `json:"error"`
}
