package toolsrv

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, desc ToolDescriptor) *compiledSchema {
	t.Helper()
	cs, err := compileDescriptor(desc)
	require.NoError(t, err)
	return cs
}

func TestExtract_DefaultsAndCoercion(t *testing.T) {
	desc := ToolDescriptor{
		Name: "mixed",
		Parameters: []ParameterSpec{
			{Name: "n", Type: TypeInteger, Required: true},
			{Name: "f", Type: TypeFloat, Required: true},
			{Name: "s", Type: TypeString, Default: "x"},
			{Name: "b", Type: TypeBoolean, Default: false},
		},
	}
	cs := mustCompile(t, desc)
	args, err := extract(desc, cs, map[string]any{"n": json.Number("42"), "f": 3})
	require.NoError(t, err)
	assert.Equal(t, Args{"n": int64(42), "f": float64(3), "s": "x", "b": false}, args)
	assert.Equal(t, int64(42), args.Int("n"))
	assert.InDelta(t, 3.0, args.Float("f"), 0)
	assert.Equal(t, "x", args.String("s"))
	assert.False(t, args.Bool("b"))
}

func TestExtract_NullMeansMissing(t *testing.T) {
	desc := countRowsDescriptor()
	cs := mustCompile(t, desc)

	args, err := extract(desc, cs, map[string]any{"table_name": "users", "condition": nil})
	require.NoError(t, err)
	assert.Equal(t, "", args.String("condition"))

	_, err = extract(desc, cs, map[string]any{"table_name": nil})
	require.Error(t, err)
	assert.Equal(t, "missing required parameter: table_name", err.Error())
}

func TestExtract_Failures(t *testing.T) {
	desc := ToolDescriptor{
		Name: "sum",
		Parameters: []ParameterSpec{
			{Name: "a", Type: TypeInteger, Required: true},
			{Name: "b", Type: TypeInteger, Required: true},
		},
	}
	cs := mustCompile(t, desc)
	tests := []struct {
		name    string
		raw     map[string]any
		message string
	}{
		{"missing first", map[string]any{"b": 1}, "missing required parameter: a"},
		{"missing second", map[string]any{"a": 1}, "missing required parameter: b"},
		{"non numeric string", map[string]any{"a": "abc", "b": 1}, `invalid value for parameter "a": expected integer, got string "abc"`},
		{"fraction", map[string]any{"a": 1.5, "b": 1}, `invalid value for parameter "a": expected integer, got 1.5`},
		{"unknown extra", map[string]any{"a": 1, "b": 2, "c": 3}, "unknown parameter: c"},
		{"typo", map[string]any{"a": 1, "bb": 2}, "missing required parameter: b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extract(desc, cs, tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    int64
		wantErr bool
	}{
		{"int", 7, 7, false},
		{"int32", int32(-3), -3, false},
		{"uint8", uint8(200), 200, false},
		{"integral float", 20.0, 20, false},
		{"json integer", json.Number("9007199254740993"), 9007199254740993, false},
		{"json integral float", json.Number("5.0"), 5, false},
		{"numeric string", " 12 ", 12, false},
		{"fractional float", 2.5, 0, true},
		{"fractional json", json.Number("2.5"), 0, true},
		{"fractional string", "2.5", 0, true},
		{"word", "ten", 0, true},
		{"bool", true, 0, true},
		{"nan", math.NaN(), 0, true},
		{"huge uint", uint64(math.MaxUint64), 0, true},
		{"huge float", 1e20, 0, true},
		{"largest exact float", float64(1<<53 - 1), 1<<53 - 1, false},
		{"ambiguous float", float64(1 << 53), 0, true},
		{"ambiguous negative float", -float64(1 << 53), 0, true},
		{"big integer string", "9007199254740993", 9007199254740993, false},
		{"object", map[string]any{}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toInt64(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    float64
		wantErr bool
	}{
		{"int widens", 20, 20, false},
		{"int64 widens", int64(-4), -4, false},
		{"float", 2.5, 2.5, false},
		{"json", json.Number("0.25"), 0.25, false},
		{"string", "1e3", 1000, false},
		{"inexact int", int64(1<<53 + 1), 0, true},
		{"bool", false, 0, true},
		{"word", "half", 0, true},
		{"inf string", "Inf", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toFloat64(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0)
		})
	}
}

func TestToBool(t *testing.T) {
	for _, in := range []any{true, "true", "YES", "on", "1", 1, json.Number("1")} {
		got, err := toBool(in)
		require.NoError(t, err, "%v", in)
		assert.True(t, got, "%v", in)
	}
	for _, in := range []any{false, "false", "no", "off", "0", 0.0} {
		got, err := toBool(in)
		require.NoError(t, err, "%v", in)
		assert.False(t, got, "%v", in)
	}
	for _, in := range []any{"maybe", 2, []any{}} {
		_, err := toBool(in)
		assert.Error(t, err, "%v", in)
	}
}

func TestCoerce_StringOnlyAcceptsStrings(t *testing.T) {
	v, err := coerce(TypeString, "users")
	require.NoError(t, err)
	assert.Equal(t, "users", v)
	_, err = coerce(TypeString, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected string, got number 5")
}

func TestDecodeArgs(t *testing.T) {
	m, err := decodeArgs(nil)
	require.NoError(t, err)
	assert.Empty(t, m)

	m, err = decodeArgs([]byte(" null "))
	require.NoError(t, err)
	assert.Empty(t, m)

	m, err = decodeArgs([]byte(`{"a": 9007199254740993}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("9007199254740993"), m["a"])

	_, err = decodeArgs([]byte(`{invalid`))
	require.Error(t, err)
	assert.True(t, IsClientError(err))

	_, err = decodeArgs([]byte(`[1,2]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arguments must be a JSON object, got array")
}
