package toolsrv

import (
	"errors"
	"fmt"
)

// Sentinel errors for toolsrv. Use errors.Is to check.
var (
	ErrToolNotFound      = errors.New("tool not found")
	ErrDuplicateTool     = errors.New("tool already registered")
	ErrInvalidDescriptor = errors.New("invalid tool descriptor")
	ErrSealed            = errors.New("registry is sealed")
	ErrValidation        = errors.New("validation failed")
	ErrPolicy            = errors.New("policy violation")
	ErrNotFound          = errors.New("not found")
	ErrTimeout           = errors.New("tool execution timeout")
	ErrShutdown          = errors.New("dispatcher is shutting down")
	ErrConfiguration     = errors.New("configuration error")
)

// ClientError is caused by the caller: a malformed or unknown argument, an unknown tool,
// or a request rejected by policy. Reason is shown to the caller verbatim.
// Err wraps a sentinel (ErrValidation, ErrToolNotFound, ErrPolicy) for errors.Is.
type ClientError struct {
	Reason string
	Err    error
}

func (e *ClientError) Error() string { return e.Reason }

func (e *ClientError) Unwrap() error { return e.Err }

// DownstreamError is a failure of the database or cloud provider behind a handler.
// Unlike SystemError its message is surfaced to the caller.
type DownstreamError struct {
	Op  string
	Err error
}

func (e *DownstreamError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *DownstreamError) Unwrap() error { return e.Err }

// SystemError represents an internal failure (panic, unencodable result).
// The caller should not see the underlying error message.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	return "internal system error during tool execution"
}

func (e *SystemError) Unwrap() error { return e.Err }

// Validationf returns a ClientError wrapping ErrValidation.
func Validationf(format string, args ...any) error {
	return &ClientError{Reason: fmt.Sprintf(format, args...), Err: ErrValidation}
}

// PolicyViolation returns a ClientError wrapping ErrPolicy.
func PolicyViolation(reason string) error {
	return &ClientError{Reason: reason, Err: ErrPolicy}
}

// Downstream wraps err as a DownstreamError for op. Nil, ClientError and DownstreamError
// values pass through unchanged.
func Downstream(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsClientError(err) || IsDownstreamError(err) {
		return err
	}
	return &DownstreamError{Op: op, Err: err}
}

// IsClientError returns true if err is or wraps a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// IsDownstreamError returns true if err is or wraps a DownstreamError.
func IsDownstreamError(err error) bool {
	var de *DownstreamError
	return errors.As(err, &de)
}

// IsSystemError returns true if err is or wraps a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// ErrorKind classifies invocation failures.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindPolicy     ErrorKind = "policy"
	KindDownstream ErrorKind = "downstream"
	KindInternal   ErrorKind = "internal"
)

// KindOf classifies err. Errors that are neither client nor downstream errors are internal.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrPolicy):
		return KindPolicy
	case IsClientError(err):
		return KindValidation
	case IsDownstreamError(err):
		return KindDownstream
	default:
		return KindInternal
	}
}

// panicError wraps a recovered panic value for SystemError; used by Dispatcher and WithRecovery.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
