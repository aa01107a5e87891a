package schema

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Bound keeps a numeric keyword (minimum, maximum, multipleOf) exactly as it
// was declared. Coercion to a number happens at check time so a malformed
// bound is skipped instead of rejected.
type Bound struct {
	raw any
	set bool
}

// BoundOf wraps a declared keyword value.
func BoundOf(raw any) Bound {
	return Bound{raw: raw, set: true}
}

// IsSet reports whether the keyword was declared.
func (b Bound) IsSet() bool {
	return b.set
}

// Raw returns the declared value.
func (b Bound) Raw() any {
	return b.raw
}

// Float coerces the bound the way a loosely typed form runtime would:
// numbers pass through, numeric strings are parsed (blank is zero), booleans
// map to 0/1 and null to 0. Everything else, and any NaN result, reports
// false.
func (b Bound) Float() (float64, bool) {
	if !b.set {
		return 0, false
	}
	num, ok := coerceNumber(b.raw)
	if !ok || math.IsNaN(num) {
		return 0, false
	}
	return num, true
}

// MarshalJSON emits the declared value.
func (b Bound) MarshalJSON() ([]byte, error) {
	if !b.set {
		return []byte("null"), nil
	}
	return json.Marshal(b.raw)
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
