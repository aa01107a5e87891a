package schema

import (
	"strings"
)

// Type enumerates the JSON Schema value types a form node can declare.
type Type string

const (
	TypeUnknown Type = ""
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeNull    Type = "null"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Types lists every supported type in a stable order.
var Types = []Type{TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeNull, TypeArray, TypeObject}

// ParseType maps a raw `type` keyword onto the closed Type enumeration.
func ParseType(raw string) (Type, bool) {
	switch Type(strings.TrimSpace(raw)) {
	case TypeString:
		return TypeString, true
	case TypeNumber:
		return TypeNumber, true
	case TypeInteger:
		return TypeInteger, true
	case TypeBoolean:
		return TypeBoolean, true
	case TypeNull:
		return TypeNull, true
	case TypeArray:
		return TypeArray, true
	case TypeObject:
		return TypeObject, true
	default:
		return TypeUnknown, false
	}
}

// IsNumeric reports whether the type is number or integer.
func (t Type) IsNumeric() bool {
	return t == TypeNumber || t == TypeInteger
}

func (t Type) String() string {
	return string(t)
}

// Reserved extension namespaces carried on schema nodes.
const (
	// OptionNamespace holds UI options (`$vf_opt/option`, `$vf_opt/widget`).
	OptionNamespace = "$vf_opt"
	// ExtensionNamespace holds behavioural extensions (`$vf_ext/validate`).
	ExtensionNamespace = "$vf_ext"
)

// Schema is the immutable-per-render description of one value position.
type Schema struct {
	Ref         string
	Type        Type
	Title       string
	Description string
	Format      string
	Pattern     string
	Default     any
	Enum        []any

	MinLength *int
	MaxLength *int
	MinItems  *int
	MaxItems  *int

	Minimum    Bound
	Maximum    Bound
	MultipleOf Bound

	// UniqueItems keeps the declared value; only a boolean true activates the
	// uniqueness check.
	UniqueItems any

	Required     []string
	Dependencies map[string][]string
	Properties   map[string]Schema
	Items        *Items
	Definitions  map[string]Schema

	Extensions map[string]any `json:"Extensions,omitempty"`
}

// Items describes the `items` keyword: either one schema for every index or
// an ordered tuple prefix with optional overflow schema.
type Items struct {
	Single     *Schema
	Tuple      []Schema
	Additional *Schema
}

// IsTuple reports whether items were declared as an ordered list.
func (i *Items) IsTuple() bool {
	return i != nil && i.Single == nil && i.Tuple != nil
}

// TupleLen returns the tuple-prefix length, zero for uniform items.
func (s Schema) TupleLen() int {
	if !s.Items.IsTuple() {
		return 0
	}
	return len(s.Items.Tuple)
}

// UniqueItemsEnabled reports whether uniqueItems is strictly boolean true.
func (s Schema) UniqueItemsEnabled() bool {
	flag, ok := s.UniqueItems.(bool)
	return ok && flag
}

// IsRequired reports whether key is listed in the required set.
func (s Schema) IsRequired(key string) bool {
	for _, name := range s.Required {
		if name == key {
			return true
		}
	}
	return false
}

// PropertyTitle resolves the title of a nested property, falling back to the
// raw key when the property or its title is missing.
func (s Schema) PropertyTitle(key string) string {
	if s.Properties == nil {
		return key
	}
	prop, ok := s.Properties[key]
	if !ok || strings.TrimSpace(prop.Title) == "" {
		return key
	}
	return prop.Title
}
