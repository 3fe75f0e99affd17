package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/toolsrv"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestToolsCmd_Table(t *testing.T) {
	out, err := execute(t, "tools", "calculator")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "divide")
	assert.Contains(t, out, "a:integer* b:integer*")
	assert.Contains(t, out, "calculator")
}

func TestToolsCmd_Schema(t *testing.T) {
	out, err := execute(t, "tools", "s3", "--schema")
	require.NoError(t, err)
	var schemas []toolSchema
	require.NoError(t, json.Unmarshal([]byte(out), &schemas))
	require.Len(t, schemas, 3)
	assert.Equal(t, "get_bucket_location", schemas[0].Name)
	assert.Equal(t, "object", schemas[0].InputSchema["type"])
	assert.NotNil(t, schemas[0].OutputSchema)
}

func TestToolsCmd_PostgresWithoutDSN(t *testing.T) {
	out, err := execute(t, "tools", "postgres")
	require.NoError(t, err)
	assert.Contains(t, out, "execute_query")
	assert.Contains(t, out, "condition:string=")
}

func TestToolsCmd_UnknownServer(t *testing.T) {
	_, err := execute(t, "tools", "redis")
	require.Error(t, err)
	assert.ErrorIs(t, err, toolsrv.ErrConfiguration)
}

func TestInvokeCmd_KeyValues(t *testing.T) {
	out, err := execute(t, "invoke", "calculator", "sum", "a=5", "b=3")
	require.NoError(t, err)
	assert.JSONEq(t, "8", out)
}

func TestInvokeCmd_JSON(t *testing.T) {
	out, err := execute(t, "invoke", "calculator", "divide", "--json", `{"a": 1, "b": 4}`)
	require.NoError(t, err)
	assert.JSONEq(t, "0.25", out)
}

func TestInvokeCmd_Failure(t *testing.T) {
	out, err := execute(t, "invoke", "calculator", "divide", "a=1", "b=0")
	require.Error(t, err)
	assert.ErrorIs(t, err, errInvocationFailed)
	assert.JSONEq(t, `{"error": "cannot divide by zero"}`, out)
}

func TestInvokeCmd_PostgresRequiresDSN(t *testing.T) {
	_, err := execute(t, "invoke", "postgres", "list_tables")
	require.Error(t, err)
	assert.ErrorIs(t, err, toolsrv.ErrConfiguration)
}

func TestServeCmd_PostgresRequiresDSN(t *testing.T) {
	_, err := execute(t, "postgres")
	require.Error(t, err)
	assert.ErrorIs(t, err, toolsrv.ErrConfiguration)
	assert.Contains(t, err.Error(), "usage: toolsrv postgres <connection_string>")
}

func TestServeCmd_InvalidTransportFromEnv(t *testing.T) {
	t.Setenv("TOOLSRV_SERVER_TRANSPORT", "grpc")
	_, err := execute(t, "calculator")
	require.Error(t, err)
	assert.ErrorIs(t, err, toolsrv.ErrConfiguration)
}

func TestInvocationArgs(t *testing.T) {
	raw, err := invocationArgs("", []string{"table_name=users", "condition=age > 30 AND name = 'a=b'"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"table_name": "users", "condition": "age > 30 AND name = 'a=b'"}`, string(raw))

	_, err = invocationArgs("", []string{"novalue"})
	require.Error(t, err)

	_, err = invocationArgs(`{"a": 1}`, []string{"b=2"})
	require.Error(t, err)

	raw, err = invocationArgs(`{"a": 1}`, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, string(raw))
}

func TestFormatParams(t *testing.T) {
	assert.Equal(t, "-", formatParams(nil))
	assert.Equal(t, "bucket:string* limit:integer=1000", formatParams([]toolsrv.ParameterSpec{
		{Name: "bucket", Type: toolsrv.TypeString, Required: true},
		{Name: "limit", Type: toolsrv.TypeInteger, Default: 1000},
	}))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, loggerConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = newLogger(&buf, loggerConfig{Format: "xml"})
	require.Error(t, err)
	_, err = newLogger(&buf, loggerConfig{Level: "loud"})
	require.Error(t, err)
}

func TestParseSlogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{"": slog.LevelInfo, "DEBUG": slog.LevelDebug, "warning": slog.LevelWarn, " error ": slog.LevelError} {
		got, err := parseSlogLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
}
