package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func intPtr(v int) *int { return &v }

func TestParse_JSONAndYAMLAgree(t *testing.T) {
	jsonDoc := []byte(`{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string", "minLength": 2, "title": "Name"},
			"tags": {"type": "array", "items": {"type": "string"}, "uniqueItems": true}
		}
	}`)
	yamlDoc := []byte(`
type: object
required: [name]
properties:
  name:
    type: string
    minLength: 2
    title: Name
  tags:
    type: array
    items:
      type: string
    uniqueItems: true
`)

	fromJSON, err := Parse(jsonDoc)
	if err != nil {
		t.Fatalf("parse json: %v", err)
	}
	fromYAML, err := Parse(yamlDoc)
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}

	if diff := cmp.Diff(fromJSON, fromYAML, cmp.AllowUnexported(Bound{})); diff != "" {
		t.Fatalf("json/yaml mismatch (-json +yaml):\n%s", diff)
	}
	if fromJSON.Type != TypeObject {
		t.Fatalf("expected object type, got %q", fromJSON.Type)
	}
	name := fromJSON.Properties["name"]
	if diff := cmp.Diff(intPtr(2), name.MinLength); diff != "" {
		t.Fatalf("minLength mismatch (-want +got):\n%s", diff)
	}
	if !fromJSON.Properties["tags"].UniqueItemsEnabled() {
		t.Fatalf("expected uniqueItems to be enabled")
	}
}

func TestDecode_ECMAScriptPattern(t *testing.T) {
	s, err := Decode(map[string]any{"type": "string", "pattern": `^(?!admin$).+$`})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	re, err := CompilePattern(s.Pattern)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got := map[string]bool{"bob": MatchPattern(re, "bob"), "admin": MatchPattern(re, "admin")}
	if diff := cmp.Diff(map[string]bool{"bob": true, "admin": false}, got); diff != "" {
		t.Fatalf("matches mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_ErrorsCarryPointer(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]any
		expect  string
	}{
		{
			name: "bad minLength",
			payload: map[string]any{
				"type":       "object",
				"properties": map[string]any{"name": map[string]any{"type": "string", "minLength": "two"}},
			},
			expect: "minLength must be an integer at #/properties/name",
		},
		{
			name:    "invalid pattern",
			payload: map[string]any{"type": "string", "pattern": "(["},
			expect:  "invalid pattern",
		},
		{
			name:    "unsupported type",
			payload: map[string]any{"type": "date"},
			expect:  `unsupported type "date" at #`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.payload)
			if err == nil || !strings.Contains(err.Error(), tc.expect) {
				t.Fatalf("expected error containing %q, got %v", tc.expect, err)
			}
		})
	}
}

func TestDecodeStrict_RejectsUnknownKeywords(t *testing.T) {
	payload := map[string]any{"type": "string", "x-ui": true, "widgetz": 1}
	if _, err := Decode(payload); err != nil {
		t.Fatalf("permissive decode failed: %v", err)
	}
	_, err := DecodeStrict(payload)
	if err == nil || !strings.Contains(err.Error(), `"widgetz"`) {
		t.Fatalf("expected unknown keyword error, got %v", err)
	}
}

func TestDecode_NullableTypeUnion(t *testing.T) {
	got, err := Decode(map[string]any{"type": []any{"null", "integer"}})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != TypeInteger {
		t.Fatalf("expected integer, got %q", got.Type)
	}
}

func TestArrayOptions_MergesDefaults(t *testing.T) {
	s, err := Decode(map[string]any{
		"type": "array",
		"$vf_opt": map[string]any{
			"option": map[string]any{"orderable": false, "appendable": true, "removable": "yes"},
		},
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := ArrayOptions{Orderable: false, Addable: true, Removable: true, Appendable: true}
	if diff := cmp.Diff(want, s.ArrayOptions()); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(DefaultArrayOptions(), Schema{}.ArrayOptions()); diff != "" {
		t.Fatalf("default options mismatch (-want +got):\n%s", diff)
	}
}

func TestValidatorRules_SortedByName(t *testing.T) {
	s := Schema{Extensions: map[string]any{
		ExtensionNamespace: map[string]any{
			"validate": map[string]any{"zeta": 1, "alpha": "x"},
		},
	}}
	want := []RuleConfig{{Name: "alpha", Value: "x"}, {Name: "zeta", Value: 1}}
	if diff := cmp.Diff(want, s.ValidatorRules()); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
}

func TestEditorFor_OutOfRange(t *testing.T) {
	editors := []string{"a", "b"}
	if got := EditorFor(editors, 1); got != "b" {
		t.Fatalf("expected b, got %q", got)
	}
	if got := EditorFor(editors, 2); got != "" {
		t.Fatalf("expected no override, got %q", got)
	}
}

func TestItemSchema_TupleUniformAndRefs(t *testing.T) {
	root, err := Decode(map[string]any{
		"definitions": map[string]any{
			"tag": map[string]any{"type": "string", "title": "Tag"},
		},
		"type": "object",
		"properties": map[string]any{
			"pair": map[string]any{
				"type":            "array",
				"items":           []any{map[string]any{"type": "string"}, map[string]any{"type": "integer"}},
				"additionalItems": map[string]any{"type": "boolean"},
			},
			"fixed": map[string]any{
				"type":  "array",
				"items": []any{map[string]any{"type": "string"}},
			},
			"tags": map[string]any{
				"type":  "array",
				"items": map[string]any{"$ref": "#/definitions/tag", "title": "Label"},
			},
		},
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	pair := root.Properties["pair"]
	for idx, want := range []Type{TypeString, TypeInteger, TypeBoolean, TypeBoolean} {
		got, ok := ItemSchema(pair, idx, root)
		if !ok || got.Type != want {
			t.Fatalf("pair[%d]: expected %q, got %q (ok=%v)", idx, want, got.Type, ok)
		}
	}
	if pair.TupleLen() != 2 {
		t.Fatalf("expected tuple length 2, got %d", pair.TupleLen())
	}

	if _, ok := ItemSchema(root.Properties["fixed"], 1, root); ok {
		t.Fatalf("expected no schema past the tuple without additionalItems")
	}

	tag, ok := ItemSchema(root.Properties["tags"], 5, root)
	if !ok {
		t.Fatalf("expected uniform item schema")
	}
	if tag.Type != TypeString || tag.Title != "Label" {
		t.Fatalf("expected dereferenced string titled Label, got %+v", tag)
	}
}

func TestDeref_DetectsCycles(t *testing.T) {
	root := Schema{Definitions: map[string]Schema{
		"a": {Ref: "#/definitions/b"},
		"b": {Ref: "#/definitions/a"},
	}}
	_, err := Deref(Schema{Ref: "#/definitions/a"}, root)
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}

	_, err = Deref(Schema{Ref: "#/definitions/missing"}, root)
	if !errors.Is(err, ErrUnresolvedRef) {
		t.Fatalf("expected ErrUnresolvedRef, got %v", err)
	}
}

func TestBound_Float(t *testing.T) {
	cases := []struct {
		raw  any
		want float64
		ok   bool
	}{
		{raw: 3.5, want: 3.5, ok: true},
		{raw: "4", want: 4, ok: true},
		{raw: " ", want: 0, ok: true},
		{raw: true, want: 1, ok: true},
		{raw: nil, want: 0, ok: true},
		{raw: "abc", ok: false},
		{raw: []any{1}, ok: false},
	}
	for _, tc := range cases {
		got, ok := BoundOf(tc.raw).Float()
		if ok != tc.ok || got != tc.want {
			t.Fatalf("BoundOf(%#v).Float() = %v, %v; want %v, %v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
	if _, ok := (Bound{}).Float(); ok {
		t.Fatalf("unset bound must not coerce")
	}
}

func TestPropertyTitle_FallsBackToKey(t *testing.T) {
	s := Schema{Properties: map[string]Schema{"email": {Title: "E-mail"}, "plain": {}}}
	if got := s.PropertyTitle("email"); got != "E-mail" {
		t.Fatalf("expected title, got %q", got)
	}
	if got := s.PropertyTitle("plain"); got != "plain" {
		t.Fatalf("expected key fallback, got %q", got)
	}
	if got := (Schema{}).PropertyTitle("other"); got != "other" {
		t.Fatalf("expected key fallback without properties, got %q", got)
	}
}

func TestParseValue_AcceptsScalars(t *testing.T) {
	got, err := ParseValue([]byte(`[1, "a"]`))
	if err != nil {
		t.Fatalf("parse value: %v", err)
	}
	if diff := cmp.Diff([]any{float64(1), "a"}, got); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
	if !IsOpenAPI(map[string]any{"openapi": "3.0.3"}) {
		t.Fatalf("expected openapi detection")
	}
}
