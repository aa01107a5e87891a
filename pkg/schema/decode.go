package schema

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

var knownKeywords = map[string]struct{}{
	"$schema":          {},
	"$id":              {},
	"$ref":             {},
	"$defs":            {},
	"$comment":         {},
	"definitions":      {},
	"type":             {},
	"title":            {},
	"description":      {},
	"default":          {},
	"enum":             {},
	"const":            {},
	"format":           {},
	"pattern":          {},
	"minLength":        {},
	"maxLength":        {},
	"minItems":         {},
	"maxItems":         {},
	"minimum":          {},
	"maximum":          {},
	"multipleOf":       {},
	"uniqueItems":      {},
	"required":         {},
	"dependencies":     {},
	"properties":       {},
	"items":            {},
	"additionalItems":  {},
	"readOnly":         {},
	"examples":         {},
	OptionNamespace:    {},
	ExtensionNamespace: {},
}

// Decode converts a generic JSON Schema payload into a Schema tree. Unknown
// keywords are ignored; malformed known keywords (and patterns that do not
// compile) are reported with the JSON pointer of the offending node.
func Decode(payload map[string]any) (Schema, error) {
	d := decoder{}
	return d.decode(payload, "#")
}

// DecodeStrict behaves like Decode but also rejects keywords the form runtime
// does not understand.
func DecodeStrict(payload map[string]any) (Schema, error) {
	d := decoder{strict: true}
	return d.decode(payload, "#")
}

type decoder struct {
	strict bool
}

func (d decoder) decode(node any, path string) (Schema, error) {
	if node == nil {
		return Schema{}, fmt.Errorf("schema: schema is nil at %s", path)
	}
	payload, ok := node.(map[string]any)
	if !ok {
		return Schema{}, fmt.Errorf("schema: schema must be an object at %s", path)
	}
	if d.strict {
		if err := validateKeywords(payload, path); err != nil {
			return Schema{}, err
		}
	}

	out := Schema{
		Ref:         strings.TrimSpace(readString(payload, "$ref")),
		Title:       strings.TrimSpace(readString(payload, "title")),
		Description: strings.TrimSpace(readString(payload, "description")),
		Format:      strings.TrimSpace(readString(payload, "format")),
		Default:     payload["default"],
		UniqueItems: payload["uniqueItems"],
		Extensions:  extractExtensions(payload),
	}

	if rawType, ok := payload["type"]; ok {
		typ, err := decodeType(rawType, path)
		if err != nil {
			return Schema{}, err
		}
		out.Type = typ
	}

	if enumRaw, ok := payload["enum"]; ok {
		list, ok := enumRaw.([]any)
		if !ok {
			return Schema{}, fmt.Errorf("schema: enum must be an array at %s", path)
		}
		out.Enum = append([]any(nil), list...)
	}

	if patternRaw, ok := payload["pattern"]; ok {
		pattern, ok := patternRaw.(string)
		if !ok {
			return Schema{}, fmt.Errorf("schema: pattern must be a string at %s", path)
		}
		if _, err := CompilePattern(pattern); err != nil {
			return Schema{}, fmt.Errorf("schema: invalid pattern %q at %s: %w", pattern, path, err)
		}
		out.Pattern = pattern
	}

	for _, entry := range []struct {
		key    string
		target **int
	}{
		{"minLength", &out.MinLength},
		{"maxLength", &out.MaxLength},
		{"minItems", &out.MinItems},
		{"maxItems", &out.MaxItems},
	} {
		raw, ok := payload[entry.key]
		if !ok {
			continue
		}
		value, ok := toInt(raw)
		if !ok {
			return Schema{}, fmt.Errorf("schema: %s must be an integer at %s", entry.key, path)
		}
		*entry.target = &value
	}

	if raw, ok := payload["minimum"]; ok {
		out.Minimum = BoundOf(raw)
	}
	if raw, ok := payload["maximum"]; ok {
		out.Maximum = BoundOf(raw)
	}
	if raw, ok := payload["multipleOf"]; ok {
		out.MultipleOf = BoundOf(raw)
	}

	if requiredRaw, ok := payload["required"]; ok {
		list, ok := requiredRaw.([]any)
		if !ok {
			return Schema{}, fmt.Errorf("schema: required must be an array at %s", path)
		}
		required := make([]string, 0, len(list))
		for idx, item := range list {
			str, ok := item.(string)
			if !ok || strings.TrimSpace(str) == "" {
				return Schema{}, fmt.Errorf("schema: required[%d] must be a string at %s", idx, path)
			}
			required = append(required, str)
		}
		out.Required = required
	}

	if depsRaw, ok := payload["dependencies"]; ok {
		deps, ok := depsRaw.(map[string]any)
		if !ok {
			return Schema{}, fmt.Errorf("schema: dependencies must be an object at %s", path)
		}
		out.Dependencies = make(map[string][]string, len(deps))
		for _, key := range sortedKeys(deps) {
			list, ok := deps[key].([]any)
			if !ok {
				// schema dependencies carry no field list
				continue
			}
			names := make([]string, 0, len(list))
			for _, item := range list {
				if name, ok := item.(string); ok {
					names = append(names, name)
				}
			}
			out.Dependencies[key] = names
		}
	}

	for _, key := range []string{"definitions", "$defs"} {
		defsRaw, ok := payload[key]
		if !ok {
			continue
		}
		defs, ok := defsRaw.(map[string]any)
		if !ok {
			return Schema{}, fmt.Errorf("schema: %s must be an object at %s", key, path)
		}
		if out.Definitions == nil {
			out.Definitions = make(map[string]Schema, len(defs))
		}
		for _, name := range sortedKeys(defs) {
			child, err := d.decode(defs[name], joinPath(path, key, name))
			if err != nil {
				return Schema{}, err
			}
			out.Definitions[name] = child
		}
	}

	if propertiesRaw, ok := payload["properties"]; ok {
		props, ok := propertiesRaw.(map[string]any)
		if !ok {
			return Schema{}, fmt.Errorf("schema: properties must be an object at %s", path)
		}
		out.Properties = make(map[string]Schema, len(props))
		for _, key := range sortedKeys(props) {
			child, err := d.decode(props[key], joinPath(path, "properties", key))
			if err != nil {
				return Schema{}, err
			}
			out.Properties[key] = child
		}
	}

	if itemsRaw, ok := payload["items"]; ok {
		items, err := d.decodeItems(itemsRaw, payload["additionalItems"], path)
		if err != nil {
			return Schema{}, err
		}
		out.Items = items
	}

	return out, nil
}

func (d decoder) decodeItems(raw, additional any, path string) (*Items, error) {
	switch typed := raw.(type) {
	case map[string]any:
		single, err := d.decode(typed, joinPath(path, "items"))
		if err != nil {
			return nil, err
		}
		return &Items{Single: &single}, nil
	case []any:
		items := &Items{Tuple: make([]Schema, 0, len(typed))}
		for idx, entry := range typed {
			child, err := d.decode(entry, joinPath(path, "items", fmt.Sprintf("%d", idx)))
			if err != nil {
				return nil, err
			}
			items.Tuple = append(items.Tuple, child)
		}
		if extra, ok := additional.(map[string]any); ok {
			overflow, err := d.decode(extra, joinPath(path, "additionalItems"))
			if err != nil {
				return nil, err
			}
			items.Additional = &overflow
		}
		return items, nil
	default:
		return nil, fmt.Errorf("schema: items must be an object or array at %s", path)
	}
}

func decodeType(raw any, path string) (Type, error) {
	var name string
	switch v := raw.(type) {
	case string:
		name = v
	case []any:
		// a nullable union declares its concrete type first
		for _, entry := range v {
			str, ok := entry.(string)
			if !ok {
				return TypeUnknown, fmt.Errorf("schema: type entries must be strings at %s", path)
			}
			if name == "" || (name == string(TypeNull) && str != string(TypeNull)) {
				name = str
			}
		}
	default:
		return TypeUnknown, fmt.Errorf("schema: type must be a string at %s", path)
	}
	typ, ok := ParseType(name)
	if !ok {
		return TypeUnknown, fmt.Errorf("schema: unsupported type %q at %s", name, path)
	}
	return typ, nil
}

func validateKeywords(payload map[string]any, path string) error {
	for _, key := range sortedKeys(payload) {
		if isVendorExtension(key) {
			continue
		}
		if _, ok := knownKeywords[key]; ok {
			continue
		}
		return fmt.Errorf("schema: unsupported keyword %q at %s", key, path)
	}
	return nil
}

func isVendorExtension(key string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(key)), "x-")
}

func extractExtensions(payload map[string]any) map[string]any {
	var extensions map[string]any
	for _, key := range sortedKeys(payload) {
		if key != OptionNamespace && key != ExtensionNamespace && !isVendorExtension(key) {
			continue
		}
		if extensions == nil {
			extensions = make(map[string]any)
		}
		extensions[key] = payload[key]
	}
	return extensions
}

func readString(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	value, _ := payload[key].(string)
	return value
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int(v), true
		}
		return 0, false
	case float32:
		if v == float32(math.Trunc(float64(v))) {
			return int(v), true
		}
		return 0, false
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func joinPath(path string, segments ...string) string {
	if path == "" {
		path = "#"
	}
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		path = path + "/" + escapeJSONPointer(segment)
	}
	return path
}

func escapeJSONPointer(value string) string {
	replacer := strings.NewReplacer("~", "~0", "/", "~1")
	return replacer.Replace(value)
}

func unescapeJSONPointer(value string) string {
	value = strings.ReplaceAll(value, "~1", "/")
	return strings.ReplaceAll(value, "~0", "~")
}

func sortedKeys(payload map[string]any) []string {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
