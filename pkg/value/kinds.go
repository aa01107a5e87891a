package value

import (
	"math"
	"reflect"

	"github.com/goccy/go-json"
)

// Truthy mirrors loose truthiness: nil, false, zero, NaN and "" are falsy.
func Truthy(v any) bool {
	switch typed := v.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		return typed != ""
	}
	if num, ok := Number(v); ok {
		return num != 0 && !math.IsNaN(num)
	}
	return true
}

// IsArrayLike reports whether v is a slice or array.
func IsArrayLike(v any) bool {
	if _, ok := v.([]any); ok {
		return true
	}
	if v == nil {
		return false
	}
	kind := reflect.TypeOf(v).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

// IsPlainObject reports whether v is a string-keyed map.
func IsPlainObject(v any) bool {
	if _, ok := v.(map[string]any); ok {
		return true
	}
	if v == nil {
		return false
	}
	rt := reflect.TypeOf(v)
	return rt.Kind() == reflect.Map && rt.Key().Kind() == reflect.String
}

// Len returns the length of an array-like value.
func Len(v any) (int, bool) {
	if list, ok := v.([]any); ok {
		return len(list), true
	}
	if !IsArrayLike(v) {
		return 0, false
	}
	return reflect.ValueOf(v).Len(), true
}

// Index returns element i of an array-like value.
func Index(v any, i int) (any, bool) {
	if list, ok := v.([]any); ok {
		if i < 0 || i >= len(list) {
			return nil, false
		}
		return list[i], true
	}
	n, ok := Len(v)
	if !ok || i < 0 || i >= n {
		return nil, false
	}
	return reflect.ValueOf(v).Index(i).Interface(), true
}

// Number converts numeric runtime values to float64. Strings and booleans are
// not numbers.
func Number(v any) (float64, bool) {
	switch typed := v.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int8:
		return float64(typed), true
	case int16:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint:
		return float64(typed), true
	case uint8:
		return float64(typed), true
	case uint16:
		return float64(typed), true
	case uint32:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	case json.Number:
		f, err := typed.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// IsIntegral reports whether v is a finite number without a fractional part.
func IsIntegral(v any) bool {
	num, ok := Number(v)
	if !ok || math.IsInf(num, 0) || math.IsNaN(num) {
		return false
	}
	return num == math.Trunc(num)
}

// Canonical serializes v with sorted map keys so structurally equal values
// compare equal as strings.
func Canonical(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
