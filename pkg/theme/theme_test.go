package theme

import (
	"errors"
	"testing"

	gotheme "github.com/goliatone/go-theme"
	"github.com/google/go-cmp/cmp"
	"github.com/samber/mo"

	"github.com/goliatone/go-formstate/pkg/messages"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/validation"
)

type selectorCall struct {
	name    string
	variant string
}

type stubThemeSelector struct {
	selection *gotheme.Selection
	err       error
	calls     []selectorCall
}

func (s *stubThemeSelector) Select(name, variant string, _ ...gotheme.QueryOption) (*gotheme.Selection, error) {
	s.calls = append(s.calls, selectorCall{name: name, variant: variant})
	return s.selection, s.err
}

func TestEditorRegistry_Resolve(t *testing.T) {
	reg := NewEditorRegistry()
	cases := []struct {
		name   string
		schema schema.Schema
		want   string
	}{
		{"boolean", schema.Schema{Type: schema.TypeBoolean}, EditorToggle},
		{"enum", schema.Schema{Type: schema.TypeString, Enum: []any{"a", "b"}}, EditorSelect},
		{"email", schema.Schema{Type: schema.TypeString, Format: "email"}, EditorEmail},
		{"uri", schema.Schema{Type: schema.TypeString, Format: "URI"}, EditorURL},
		{"integer", schema.Schema{Type: schema.TypeInteger}, EditorNumber},
		{"array", schema.Schema{Type: schema.TypeArray}, EditorRepeater},
		{"object", schema.Schema{Type: schema.TypeObject}, EditorFieldset},
		{"string", schema.Schema{Type: schema.TypeString}, EditorInput},
		{"hint", schema.Schema{
			Type:       schema.TypeBoolean,
			Extensions: map[string]any{"$vf_opt": map[string]any{"widget": "checkbox"}},
		}, "checkbox"},
	}
	for _, tc := range cases {
		got, ok := reg.Resolve(tc.schema)
		if !ok || got != tc.want {
			t.Fatalf("%s: got %q (%v) want %q", tc.name, got, ok, tc.want)
		}
	}

	if _, ok := reg.Resolve(schema.Schema{Type: schema.TypeNull}); ok {
		t.Fatalf("null should not resolve an editor")
	}
}

func TestEditorRegistry_PriorityAndOverride(t *testing.T) {
	reg := NewEditorRegistry()
	reg.Register("slider", 65, func(s schema.Schema) bool { return s.Type == schema.TypeNumber })
	if got, _ := reg.Resolve(schema.Schema{Type: schema.TypeNumber}); got != "slider" {
		t.Fatalf("expected higher priority matcher, got %q", got)
	}

	reg.Override(schema.TypeString, "textarea")
	if got, _ := reg.Resolve(schema.Schema{Type: schema.TypeString, Format: "email"}); got != "textarea" {
		t.Fatalf("expected type override, got %q", got)
	}
	reg.Override(schema.TypeString, "")
	if got, _ := reg.Resolve(schema.Schema{Type: schema.TypeString}); got != EditorInput {
		t.Fatalf("expected override cleared, got %q", got)
	}
}

func TestCache_DefaultsAndOverrides(t *testing.T) {
	custom := func(validation.Args) mo.Option[any] { return mo.Some[any]("custom") }
	cache := MustNew(
		WithValidator(validation.RuleRequired, custom),
		WithValidator(validation.RulePattern, nil),
		WithComponent(schema.TypeBoolean, Component{Editor: "checkbox"}),
	)

	rules := cache.Validators()
	if _, ok := rules[validation.RulePattern]; ok {
		t.Fatalf("pattern should be disabled")
	}
	if len(rules) != len(validation.BuiltinRules)-1 {
		t.Fatalf("expected %d rules, got %d", len(validation.BuiltinRules)-1, len(rules))
	}
	if got := rules[validation.RuleRequired](validation.Args{}).OrEmpty(); got != "custom" {
		t.Fatalf("expected overridden rule, got %v", got)
	}
	if len(cache.Generators()) != len(schema.Types) {
		t.Fatalf("expected a generator per type")
	}
	if got := cache.Editor(schema.Schema{Type: schema.TypeBoolean}); got != "checkbox" {
		t.Fatalf("expected component editor, got %q", got)
	}
	component, ok := cache.Component(schema.TypeBoolean)
	if !ok || component.ErrorObjGenerator == nil {
		t.Fatalf("component override should keep the default generator")
	}
}

func TestCache_ValidatorUsesCatalog(t *testing.T) {
	cache := MustNew(WithMessageTemplates(map[string]string{"required": "Fill in {{ title }}"}))
	v := cache.Validator(nil)

	parent := schema.Schema{Type: schema.TypeObject, Required: []string{"name"}}
	errs := validation.ErrorMap{}
	err := v.Validate(validation.Node{
		Schema:       schema.Schema{Type: schema.TypeString, Title: "Name"},
		ParentSchema: &parent,
		ParentValue:  map[string]any{},
		ValuePath:    "/name",
		Key:          mo.Some("name"),
	}, errs)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	obj, ok := errs["/name"].(messages.ErrorObject)
	if !ok {
		t.Fatalf("expected error object, got %#v", errs["/name"])
	}
	if obj.Message != "Fill in Name" {
		t.Fatalf("unexpected message %q", obj.Message)
	}
}

func TestFromSelection_LayersVariant(t *testing.T) {
	manifest := &gotheme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens: map[string]string{
			"messages.required": "{{ title }} is mandatory",
			"brand":             "#123456",
		},
		Templates: map[string]string{
			"editors.boolean": "switch",
		},
		Variants: map[string]gotheme.Variant{
			"compact": {
				Tokens: map[string]string{
					"messages.required": "{{ title }}?",
				},
				Templates: map[string]string{
					"editors.string": "line",
				},
			},
		},
	}
	selector := &stubThemeSelector{selection: &gotheme.Selection{Theme: "acme", Variant: "compact", Manifest: manifest}}

	cache, err := Resolve(selector, "acme", "compact")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if diff := cmp.Diff([]selectorCall{{name: "acme", variant: "compact"}}, selector.calls, cmp.AllowUnexported(selectorCall{})); diff != "" {
		t.Fatalf("selector calls mismatch (-want +got):\n%s", diff)
	}
	if cache.Name() != "acme" || cache.Variant() != "compact" {
		t.Fatalf("unexpected theme %s/%s", cache.Name(), cache.Variant())
	}

	editors := map[schema.Type]string{
		schema.TypeBoolean: cache.Editor(schema.Schema{Type: schema.TypeBoolean}),
		schema.TypeString:  cache.Editor(schema.Schema{Type: schema.TypeString}),
		schema.TypeArray:   cache.Editor(schema.Schema{Type: schema.TypeArray}),
	}
	want := map[schema.Type]string{
		schema.TypeBoolean: "switch",
		schema.TypeString:  "line",
		schema.TypeArray:   EditorRepeater,
	}
	if diff := cmp.Diff(want, editors); diff != "" {
		t.Fatalf("editors mismatch (-want +got):\n%s", diff)
	}

	message, err := cache.Catalog().Render(validation.Args{Rule: validation.RuleRequired, Schema: schema.Schema{Title: "Name"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if message != "Name?" {
		t.Fatalf("expected variant message, got %q", message)
	}
}

func TestFromSelection_Errors(t *testing.T) {
	bad := &gotheme.Selection{Theme: "acme", Manifest: &gotheme.Manifest{
		Name:      "acme",
		Templates: map[string]string{"editors.date": "calendar"},
	}}
	if _, err := FromSelection(bad); err == nil {
		t.Fatalf("expected unknown type error")
	}

	selector := &stubThemeSelector{err: errors.New("not found")}
	if _, err := Resolve(selector, "missing", ""); err == nil {
		t.Fatalf("expected selector error")
	}

	cache, err := Resolve(nil, "", "")
	if err != nil || cache.Name() != "" {
		t.Fatalf("nil selector should give the default cache, got %v %v", cache, err)
	}
}
