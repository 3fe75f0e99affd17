package pgtool

import (
	"math"
	"net/netip"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// jsonValue converts a value from pgx.Rows.Values into something encoding/json renders
// meaningfully: UUIDs as strings, numerics as floats, points as {x, y}.
func jsonValue(v any) any {
	switch x := v.(type) {
	case [16]byte:
		return uuid.UUID(x).String()
	case pgtype.UUID:
		if !x.Valid {
			return nil
		}
		return uuid.UUID(x.Bytes).String()
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return finite(f.Float64)
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case pgtype.Point:
		if !x.Valid {
			return nil
		}
		return map[string]float64{"x": x.P.X, "y": x.P.Y}
	case netip.Prefix:
		return x.String()
	case []byte:
		if utf8.Valid(x) {
			return string(x)
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = jsonValue(e)
		}
		return out
	default:
		return v
	}
}

// finite keeps f as a number unless JSON cannot carry it; NaN and the infinities
// use their PostgreSQL text forms.
func finite(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return f
	}
}

// jsonRecord converts every value of a row map in place.
func jsonRecord(row map[string]any) map[string]any {
	for k, v := range row {
		row[k] = jsonValue(v)
	}
	return row
}
