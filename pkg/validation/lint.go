package validation

import (
	"strings"

	"github.com/goliatone/go-formstate/pkg/schema"
)

// SchemaIssue represents a schema authoring error with optional location
// metadata.
type SchemaIssue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// SchemaValidationResult captures lint outcomes.
type SchemaValidationResult struct {
	Valid  bool          `json:"valid"`
	Issues []SchemaIssue `json:"issues,omitempty"`
}

// LintOptions configures LintSchema.
type LintOptions struct {
	// Strict rejects keywords the form runtime does not understand.
	Strict bool
}

// LintSchema checks that a JSON or YAML schema decodes into a form schema,
// reporting the first problem with its pointer and dotted field path.
func LintSchema(raw []byte, opts LintOptions) SchemaValidationResult {
	result := SchemaValidationResult{Valid: true}

	payload, err := schema.ParsePayload(raw)
	if err != nil {
		result.Valid = false
		result.Issues = []SchemaIssue{issueFromError(err)}
		return result
	}

	decode := schema.Decode
	if opts.Strict {
		decode = schema.DecodeStrict
	}
	if _, err := decode(payload); err != nil {
		result.Valid = false
		result.Issues = []SchemaIssue{issueFromError(err)}
	}
	return result
}

func issueFromError(err error) SchemaIssue {
	if err == nil {
		return SchemaIssue{Message: "unknown error"}
	}

	msg := strings.TrimSpace(err.Error())
	path := extractJSONPointer(msg)
	if path != "" {
		if idx := strings.LastIndex(msg, " at "+path); idx >= 0 {
			msg = msg[:idx] + msg[idx+len(" at "+path):]
		}
	}
	msg = strings.TrimPrefix(msg, "schema: ")
	msg = strings.TrimSpace(msg)

	return SchemaIssue{
		Path:    path,
		Field:   fieldPathFromPointer(path),
		Message: msg,
	}
}

func extractJSONPointer(message string) string {
	if message == "" {
		return ""
	}
	if idx := strings.LastIndex(message, " at #"); idx >= 0 {
		candidate := strings.TrimSpace(message[idx+4:])
		if end := strings.IndexAny(candidate, " :"); end >= 0 {
			candidate = candidate[:end]
		}
		return trimPointer(candidate)
	}
	return ""
}

func trimPointer(pointer string) string {
	if pointer == "" {
		return ""
	}
	trimmed := strings.TrimRight(pointer, ".)];,")
	return strings.TrimSpace(trimmed)
}

func fieldPathFromPointer(pointer string) string {
	trimmed := strings.TrimSpace(pointer)
	trimmed = strings.TrimPrefix(trimmed, "#")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return ""
	}

	parts := strings.Split(trimmed, "/")
	out := make([]string, 0, len(parts))
	for idx := 0; idx < len(parts); idx++ {
		segment := unescape(parts[idx])
		switch segment {
		case "properties":
			if idx+1 < len(parts) {
				out = append(out, unescape(parts[idx+1]))
				idx++
			}
		case "items":
			out = append(out, "items")
			if idx+1 < len(parts) && isNumeric(parts[idx+1]) {
				out = append(out, parts[idx+1])
				idx++
			}
		case "definitions", "$defs":
			if idx+1 < len(parts) {
				idx++
			}
		default:
			if segment == "" {
				continue
			}
			out = append(out, segment)
		}
	}
	return strings.Join(out, ".")
}

func unescape(segment string) string {
	segment = strings.ReplaceAll(segment, "~1", "/")
	return strings.ReplaceAll(segment, "~0", "~")
}

func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
