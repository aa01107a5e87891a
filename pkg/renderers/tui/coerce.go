package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/pkg/schema"
)

// coerce converts prompt input into a value of typ. Numbers are stored as
// float64 to match decoded documents.
func coerce(typ schema.Type, raw string) (any, error) {
	switch typ {
	case schema.TypeNumber, schema.TypeInteger:
		trimmed := strings.TrimSpace(raw)
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("%q is not a number", trimmed)
		}
		if typ == schema.TypeInteger && n != math.Trunc(n) {
			return nil, fmt.Errorf("%q is not an integer", trimmed)
		}
		return n, nil
	case schema.TypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", raw)
		}
		return b, nil
	case schema.TypeNull:
		if strings.TrimSpace(raw) != "" && strings.TrimSpace(raw) != "null" {
			return nil, fmt.Errorf("%q is not null", raw)
		}
		return nil, nil
	default:
		return raw, nil
	}
}

// numberValidator rejects input the prompt cannot coerce. Empty input is
// accepted so optional values can be skipped.
func numberValidator(typ schema.Type) func(string) error {
	return func(raw string) error {
		if strings.TrimSpace(raw) == "" {
			return nil
		}
		_, err := coerce(typ, raw)
		return err
	}
}

// initialValue is the value appended for a new array item.
func initialValue(s schema.Schema) any {
	if s.Default != nil {
		return s.Default
	}
	switch s.Type {
	case schema.TypeString:
		return ""
	case schema.TypeNumber, schema.TypeInteger:
		return float64(0)
	case schema.TypeBoolean:
		return false
	case schema.TypeObject:
		return map[string]any{}
	case schema.TypeArray:
		return []any{}
	default:
		return nil
	}
}

// schemaAt resolves the schema describing the value at path.
func schemaAt(root schema.Schema, path string) (schema.Schema, bool) {
	current, err := schema.Deref(root, root)
	if err != nil {
		return schema.Schema{}, false
	}
	if path == "" {
		return current, true
	}
	for _, segment := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		var next schema.Schema
		switch current.Type {
		case schema.TypeArray:
			idx, err := strconv.Atoi(segment)
			if err != nil {
				return schema.Schema{}, false
			}
			item, ok := schema.ItemSchema(current, idx, root)
			if !ok {
				return schema.Schema{}, false
			}
			next = item
		default:
			prop, ok := current.Properties[segment]
			if !ok {
				return schema.Schema{}, false
			}
			next = prop
		}
		current, err = schema.Deref(next, root)
		if err != nil {
			return schema.Schema{}, false
		}
	}
	return current, true
}
