package toolsrv

import (
	"context"
	"log/slog"
	"time"
)

// Middleware wraps a tool's handler with cross-cutting behavior (logging, recovery, timeout).
type Middleware func(desc ToolDescriptor, next Handler) Handler

// WithLogging returns a middleware that logs start, end, duration, and errors.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(desc ToolDescriptor, next Handler) Handler {
		return func(ctx context.Context, args Args) (any, error) {
			logger.DebugContext(ctx, "tool start", "tool", desc.Name)
			start := time.Now()
			res, err := next(ctx, args)
			dur := time.Since(start)
			if err != nil {
				logger.ErrorContext(ctx, "tool error", "tool", desc.Name, "duration", dur, "kind", KindOf(err), "error", err)
				return nil, err
			}
			logger.InfoContext(ctx, "tool end", "tool", desc.Name, "duration", dur)
			return res, nil
		}
	}
}

// WithRecovery returns a middleware that recovers panics and returns SystemError.
func WithRecovery() Middleware {
	return func(_ ToolDescriptor, next Handler) Handler {
		return func(ctx context.Context, args Args) (res any, err error) {
			defer func() {
				if p := recover(); p != nil {
					res = nil
					err = &SystemError{Err: &panicError{p: p}}
				}
			}()
			return next(ctx, args)
		}
	}
}

// WithTimeoutMiddleware returns a middleware that enforces a timeout on every wrapped handler.
// Named with "Middleware" suffix to avoid collision with ToolOption WithTimeout. When the
// dispatcher timeout also applies, the effective timeout is the minimum of the two.
func WithTimeoutMiddleware(d time.Duration) Middleware {
	return func(_ ToolDescriptor, next Handler) Handler {
		if d <= 0 {
			return next
		}
		return func(ctx context.Context, args Args) (any, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, args)
		}
	}
}
