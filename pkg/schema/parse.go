package schema

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a raw document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat treats payloads that open with `{` or `[` as JSON and
// everything else as YAML.
func DetectFormat(raw []byte) Format {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

// ParsePayload decodes a JSON or YAML document into a generic object.
func ParsePayload(raw []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("schema: raw document is empty")
	}
	var payload map[string]any
	switch DetectFormat(trimmed) {
	case FormatJSON:
		if err := json.Unmarshal(trimmed, &payload); err != nil {
			return nil, fmt.Errorf("schema: parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(trimmed, &payload); err != nil {
			return nil, fmt.Errorf("schema: parse yaml: %w", err)
		}
	}
	if payload == nil {
		return nil, errors.New("schema: document is not an object")
	}
	return payload, nil
}

// Parse decodes a JSON or YAML JSON-Schema document.
func Parse(raw []byte) (Schema, error) {
	payload, err := ParsePayload(raw)
	if err != nil {
		return Schema{}, err
	}
	return Decode(payload)
}

// ParseValue decodes a JSON or YAML value document. Unlike schemas, any JSON
// value (including scalars) is accepted.
func ParseValue(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var out any
	switch DetectFormat(trimmed) {
	case FormatJSON:
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("schema: parse json value: %w", err)
		}
	default:
		if err := yaml.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("schema: parse yaml value: %w", err)
		}
	}
	return out, nil
}

// IsOpenAPI reports whether a decoded payload is an OpenAPI/Swagger document
// rather than a bare JSON Schema.
func IsOpenAPI(payload map[string]any) bool {
	if payload == nil {
		return false
	}
	if _, ok := payload["openapi"]; ok {
		return true
	}
	_, ok := payload["swagger"]
	return ok
}
