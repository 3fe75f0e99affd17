package toolsrv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// maxExactFloatInt is the largest integer magnitude a float64 represents exactly (2^53).
const maxExactFloatInt = 1 << 53

// Args holds validated, coerced arguments: integers are int64, floats float64,
// strings string and booleans bool. Every declared parameter is present.
type Args map[string]any

// Int returns an integer argument (0 if absent).
func (a Args) Int(name string) int64 {
	v, _ := a[name].(int64)
	return v
}

// Float returns a float argument (0 if absent).
func (a Args) Float(name string) float64 {
	v, _ := a[name].(float64)
	return v
}

// String returns a string argument ("" if absent).
func (a Args) String(name string) string {
	v, _ := a[name].(string)
	return v
}

// Bool returns a boolean argument (false if absent).
func (a Args) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}

// extract validates raw against the descriptor and returns coerced Args.
// Layer 1: per-parameter presence and coercion in declaration order, then closed-world check.
// Layer 2: the coerced value is validated against the compiled JSON Schema.
func extract(desc ToolDescriptor, cs *compiledSchema, raw map[string]any) (Args, error) {
	args := make(Args, len(desc.Parameters))
	for _, p := range desc.Parameters {
		v, ok := raw[p.Name]
		if !ok || v == nil {
			if p.Required {
				return nil, Validationf("missing required parameter: %s", p.Name)
			}
			args[p.Name] = cs.defaults[p.Name]
			continue
		}
		cv, err := coerce(p.Type, v)
		if err != nil {
			return nil, Validationf("invalid value for parameter %q: %v", p.Name, err)
		}
		args[p.Name] = cv
	}
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		if _, ok := args[name]; !ok {
			return nil, Validationf("unknown parameter: %s", name)
		}
	}
	if err := validateAgainstSchema(cs.resolved, args); err != nil {
		return nil, err
	}
	return args, nil
}

// decodeArgs parses a JSON argument payload. Empty payloads and null mean no arguments.
// Numbers are kept as json.Number so integer coercion of this payload never goes through float64.
func decodeArgs(payload []byte) (map[string]any, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, Validationf("json parse error: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, Validationf("arguments must be a JSON object, got %s", describe(v))
	}
	return m, nil
}

// coerce converts v to the Go representation of t.
func coerce(t ParamType, v any) (any, error) {
	switch t {
	case TypeInteger:
		return toInt64(v)
	case TypeFloat:
		return toFloat64(v)
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %s", describe(v))
		}
		return s, nil
	case TypeBoolean:
		return toBool(v)
	default:
		return nil, fmt.Errorf("unsupported parameter type %q", t)
	}
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return uintToInt64(uint64(x))
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return uintToInt64(x)
	case float32:
		return floatToInt64(float64(x))
	case float64:
		return floatToInt64(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %s", describe(v))
		}
		return floatToInt64(f)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %s", describe(v))
		}
		return i, nil
	default:
		return 0, fmt.Errorf("expected integer, got %s", describe(v))
	}
}

func uintToInt64(u uint64) (int64, error) {
	if u > math.MaxInt64 {
		return 0, fmt.Errorf("integer %d out of range", u)
	}
	return int64(u), nil
}

// floatToInt64 accepts only integral values a float64 holds exactly; fractional input is never
// truncated. At 2^53 and beyond neighbouring integers share a float, so the value is ambiguous.
func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("expected integer, got %v", f)
	}
	if f <= -maxExactFloatInt || f >= maxExactFloatInt {
		return 0, fmt.Errorf("integer %v is beyond the exactly representable range; pass it as a string", f)
	}
	return int64(f), nil
}

func toFloat64(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return intToFloat64(i)
		}
		parsed, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("expected number, got %s", describe(v))
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %s", describe(v))
		}
		f = parsed
	case bool:
		return 0, fmt.Errorf("expected number, got %s", describe(v))
	default:
		i, err := toInt64(v)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %s", describe(v))
		}
		return intToFloat64(i)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expected finite number, got %v", f)
	}
	return f, nil
}

// intToFloat64 widens i, refusing magnitudes a float64 cannot hold exactly.
func intToFloat64(i int64) (float64, error) {
	if i > maxExactFloatInt || i < -maxExactFloatInt {
		return 0, fmt.Errorf("integer %d cannot be represented exactly as a float", i)
	}
	return float64(i), nil
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1", "yes", "on", "t", "y":
			return true, nil
		case "false", "0", "no", "off", "f", "n":
			return false, nil
		}
	default:
		if i, err := toInt64(v); err == nil && (i == 0 || i == 1) {
			return i == 1, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %s", describe(v))
}

// describe renders a raw argument for error messages.
func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return "string " + strconv.Quote(x)
	case bool:
		return "boolean " + strconv.FormatBool(x)
	case json.Number:
		return "number " + x.String()
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("number %v", x)
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
