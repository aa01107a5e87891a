package validation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLintSchema_Valid(t *testing.T) {
	raw := []byte(`{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "title": { "type": "string" }
  }
}`)
	result := LintSchema(raw, LintOptions{})
	if !result.Valid {
		t.Fatalf("expected schema to be valid: %#v", result.Issues)
	}
}

func TestLintSchema_FieldPath(t *testing.T) {
	raw := []byte(`{
  "type": "object",
  "properties": {
    "title": { "type": "string", "minLength": "oops" }
  }
}`)
	result := LintSchema(raw, LintOptions{})
	if result.Valid {
		t.Fatalf("expected schema to be invalid")
	}
	want := []SchemaIssue{{
		Path:    "#/properties/title",
		Field:   "title",
		Message: "minLength must be an integer",
	}}
	if diff := cmp.Diff(want, result.Issues); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestLintSchema_InvalidPatternInArrayItem(t *testing.T) {
	raw := []byte(`
type: object
properties:
  tags:
    type: array
    items:
      type: string
      pattern: "(["
`)
	result := LintSchema(raw, LintOptions{})
	if result.Valid || len(result.Issues) != 1 {
		t.Fatalf("expected one issue, got %#v", result)
	}
	if got := result.Issues[0].Field; got != "tags.items" {
		t.Fatalf("expected field tags.items, got %q", got)
	}
}

func TestLintSchema_StrictKeywords(t *testing.T) {
	raw := []byte(`{"type": "object", "properties": {"a": {"type": "string", "oneOf": []}}}`)
	if result := LintSchema(raw, LintOptions{}); !result.Valid {
		t.Fatalf("expected permissive lint to pass: %#v", result.Issues)
	}
	result := LintSchema(raw, LintOptions{Strict: true})
	if result.Valid {
		t.Fatalf("expected strict lint to fail")
	}
	if got := result.Issues[0].Field; got != "a" {
		t.Fatalf("expected field a, got %q", got)
	}
}

func TestLintSchema_EmptyDocument(t *testing.T) {
	result := LintSchema(nil, LintOptions{})
	if result.Valid || result.Issues[0].Message != "raw document is empty" {
		t.Fatalf("unexpected result %#v", result)
	}
}
