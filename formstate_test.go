package formstate

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/schema"
)

func TestGenerateFromDocument(t *testing.T) {
	doc := schema.MustNewDocument(schema.SourceFromFile("inline.json"), []byte(`{
  "type": "array",
  "uniqueItems": true,
  "items": {"type": "string"}
}`))

	result, err := GenerateFromDocument(context.Background(), doc, "", []any{"a", "a"}, "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, ok := result.Output.Errors["/1"]; !ok {
		t.Fatalf("expected duplicate error on /1, got %v", result.Output.Errors)
	}
	if diff := cmp.Diff([]any{"a", "a"}, result.Output.Value); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestNewForm(t *testing.T) {
	f, err := NewForm(schema.Schema{Type: schema.TypeString, Title: "Name", MinLength: func() *int { v := 3; return &v }()})
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	if _, err := f.Render(); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !f.Valid() {
		t.Fatalf("undefined optional value should be valid, got %v", f.Errors())
	}
}
