package toolsrv

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := WithLogging(logger)(ToolDescriptor{Name: "log_me"}, func(context.Context, Args) (any, error) {
		return map[string]bool{"ok": true}, nil
	})
	out, err := h(context.Background(), Args{})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"ok": true}, out)
	logStr := buf.String()
	assert.Contains(t, logStr, "tool start")
	assert.Contains(t, logStr, "tool end")
	assert.Contains(t, logStr, "log_me")
}

func TestWithLogging_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := WithLogging(logger)(ToolDescriptor{Name: "execute_query"}, func(context.Context, Args) (any, error) {
		return nil, PolicyViolation("only read-only queries are allowed")
	})
	_, err := h(context.Background(), Args{})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "tool error")
	assert.Contains(t, buf.String(), "kind=policy")
}

func TestWithRecovery(t *testing.T) {
	h := WithRecovery()(ToolDescriptor{Name: "panic_me"}, func(context.Context, Args) (any, error) {
		panic("test panic")
	})
	res, err := h(context.Background(), Args{})
	require.Error(t, err)
	assert.Nil(t, res)
	var sysErr *SystemError
	require.ErrorAs(t, err, &sysErr)
	// SystemError hides message; unwrapped error contains "panic"
	assert.Contains(t, sysErr.Err.Error(), "panic")
}

func TestWithTimeoutMiddleware(t *testing.T) {
	h := WithTimeoutMiddleware(5*time.Millisecond)(ToolDescriptor{Name: "slow"}, func(ctx context.Context, _ Args) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	res, err := h(context.Background(), Args{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithTimeoutMiddleware_ZeroIsPassThrough(t *testing.T) {
	sentinel := errors.New("inner")
	h := WithTimeoutMiddleware(0)(ToolDescriptor{Name: "t"}, func(ctx context.Context, _ Args) (any, error) {
		_, hasDeadline := ctx.Deadline()
		assert.False(t, hasDeadline)
		return nil, sentinel
	})
	_, err := h(context.Background(), Args{})
	assert.ErrorIs(t, err, sentinel)
}

func TestMiddleware_ThroughDispatcher(t *testing.T) {
	var buf bytes.Buffer
	reg := NewRegistry()
	reg.Use(WithRecovery(), WithLogging(slog.New(slog.NewTextHandler(&buf, nil))))
	require.NoError(t, reg.Register(ToolDescriptor{Name: "boom"}, func(context.Context, Args) (any, error) {
		panic("boom")
	}))
	res := NewDispatcher(reg, WithRecoverPanics(false)).Invoke(context.Background(), "boom", nil)
	require.False(t, res.OK())
	assert.True(t, IsSystemError(res.Err))
}
