package toolsrv

import (
	"context"
	"log/slog"
	"time"
)

// toolOptions hold optional per-tool settings.
type toolOptions struct {
	timeout      time.Duration
	tags         []string
	outputSchema map[string]any
}

// ToolOption configures a tool at registration (e.g. WithTimeout).
type ToolOption func(*toolOptions)

// WithTimeout sets a per-tool timeout that overrides the dispatcher default.
func WithTimeout(d time.Duration) ToolOption {
	return func(o *toolOptions) {
		o.timeout = d
	}
}

// WithTags sets tool tags (metadata for listings).
func WithTags(tags ...string) ToolOption {
	return func(o *toolOptions) {
		o.tags = tags
	}
}

// WithOutputSchema attaches a JSON Schema describing the tool's success value.
// RegisterFunc sets it from the handler's result type.
func WithOutputSchema(schema map[string]any) ToolOption {
	return func(o *toolOptions) {
		o.outputSchema = schema
	}
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*dispatcherOptions)

type dispatcherOptions struct {
	timeout        time.Duration
	maxConcurrency int
	recoverPanics  bool
	logger         *slog.Logger
	onBefore       func(context.Context, ToolCall)
	onAfter        func(context.Context, ToolCall, InvocationSummary)
}

// WithDefaultTimeout sets the default execution timeout for tools. Zero disables it.
func WithDefaultTimeout(d time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.timeout = d
	}
}

// WithMaxConcurrency limits concurrent handler executions (semaphore).
// Pass 0 or negative to disable the semaphore (unlimited concurrency).
func WithMaxConcurrency(n int) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.maxConcurrency = n
	}
}

// WithRecoverPanics enables panic recovery around handlers (Failure with SystemError).
func WithRecoverPanics(enable bool) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.recoverPanics = enable
	}
}

// WithLogger sets the logger used for failed invocations.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.logger = logger
	}
}

// WithOnBeforeInvoke sets a hook called after validation, right before the handler runs.
func WithOnBeforeInvoke(fn func(context.Context, ToolCall)) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.onBefore = fn
	}
}

// WithOnAfterInvoke sets a hook called when an invocation finishes, successful or not.
func WithOnAfterInvoke(fn func(context.Context, ToolCall, InvocationSummary)) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.onAfter = fn
	}
}
