package toolclient

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/toolsrv"
	"github.com/skosovsky/toolsrv/calc"
	"github.com/skosovsky/toolsrv/mcpserver"
)

func connectCalculator(t *testing.T) *Client {
	t.Helper()
	reg := toolsrv.NewRegistry()
	require.NoError(t, calc.Register(reg))
	reg.Seal()
	logger := slog.New(slog.DiscardHandler)
	srv, err := mcpserver.New("Calculator Server", "test", toolsrv.NewDispatcher(reg, toolsrv.WithLogger(logger)), mcpserver.WithLogger(logger))
	require.NoError(t, err)
	c, err := ConnectInProcess(context.Background(), srv.MCP())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_ListTools(t *testing.T) {
	c := connectCalculator(t)
	assert.Equal(t, "Calculator Server", c.ServerName())
	tools, err := c.ListTools(context.Background())
	require.NoError(t, err)
	var names []string
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"sum", "sub", "multiply", "divide"}, names)
}

func TestClient_Call(t *testing.T) {
	c := connectCalculator(t)
	ctx := context.Background()

	v, err := c.Call(ctx, "sum", map[string]any{"a": 5, "b": 3})
	require.NoError(t, err)
	assert.InDelta(t, 8.0, v, 0)

	v, err = c.Call(ctx, "divide", map[string]any{"a": 1, "b": 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v, 0)
}

func TestClient_CallFailure(t *testing.T) {
	c := connectCalculator(t)
	_, err := c.Call(context.Background(), "divide", map[string]any{"a": 10, "b": 0})
	require.Error(t, err)
	assert.True(t, IsCallError(err))
	assert.Equal(t, "cannot divide by zero", err.Error())

	_, err = c.Call(context.Background(), "sum", nil)
	require.Error(t, err)
	assert.Equal(t, "missing required parameter: a", err.Error())
}

func TestClient_UnknownToolIsTransportError(t *testing.T) {
	c := connectCalculator(t)
	_, err := c.Call(context.Background(), "power", map[string]any{"a": 2})
	require.Error(t, err)
	assert.False(t, IsCallError(err))
}
