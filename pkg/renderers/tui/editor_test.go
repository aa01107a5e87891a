package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/schema"
)

type stubDriver struct {
	inputs    []string
	selectIdx []int
	confirm   []bool
	textAreas []string
	passwords []string

	infoMessages []string
	selectOpts   [][]string
	inputPos     int
	selectPos    int
	confirmPos   int
	textPos      int
	passPos      int
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Password(_ context.Context, _ InputConfig) (string, error) {
	if s.passPos >= len(s.passwords) {
		return "", errors.New("no password scripted")
	}
	val := s.passwords[s.passPos]
	s.passPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.selectOpts = append(s.selectOpts, cfg.Options)
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func intPtr(v int) *int { return &v }

func TestEdit_ScalarsWithRetry(t *testing.T) {
	s := schema.Schema{
		Type:     schema.TypeObject,
		Required: []string{"name"},
		Properties: map[string]schema.Schema{
			"active": {Type: schema.TypeBoolean, Title: "Active"},
			"age":    {Type: schema.TypeInteger, Title: "Age"},
			"name":   {Type: schema.TypeString, Title: "Name", MinLength: intPtr(2)},
			"role":   {Type: schema.TypeString, Title: "Role", Enum: []any{"admin", "user"}},
		},
	}
	f, err := form.New(s)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	driver := &stubDriver{
		confirm:   []bool{true, true},
		inputs:    []string{"41", "A", "Ada"},
		selectIdx: []int{1},
	}

	if err := New(WithPromptDriver(driver)).Edit(context.Background(), f); err != nil {
		t.Fatalf("edit: %v", err)
	}

	got, defined := f.Value()
	want := map[string]any{"active": true, "age": float64(41), "name": "Ada", "role": "user"}
	if diff := cmp.Diff(want, got); !defined || diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
	if !f.Valid() {
		t.Fatalf("form should be valid, errors %v", f.Errors())
	}
	if driver.inputPos != 3 || driver.confirmPos != 2 || driver.selectPos != 1 {
		t.Fatalf("prompts not consumed as expected: %+v", driver)
	}
	if len(driver.infoMessages) < 2 {
		t.Fatalf("expected the required and minLength messages, got %v", driver.infoMessages)
	}
	for _, msg := range driver.infoMessages {
		if !strings.HasPrefix(msg, "! ") {
			t.Fatalf("messages should carry the error prefix: %q", msg)
		}
	}
}

func TestEdit_ArrayActions(t *testing.T) {
	s := schema.Schema{
		Type: schema.TypeObject,
		Properties: map[string]schema.Schema{
			"tags": {
				Type:       schema.TypeArray,
				Title:      "Tags",
				MaxItems:   intPtr(3),
				Items:      &schema.Items{Single: &schema.Schema{Type: schema.TypeString}},
				Extensions: map[string]any{"$vf_opt": map[string]any{"option": map[string]any{"appendable": true}}},
			},
		},
	}
	f, err := form.New(s, form.WithValue(map[string]any{"tags": []any{"a", "b"}}))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	driver := &stubDriver{
		// move item 1 down, append, edit item 3, done
		selectIdx: []int{1, 6, 7, 10},
		inputs:    []string{"c"},
	}

	if err := New(WithPromptDriver(driver)).Edit(context.Background(), f); err != nil {
		t.Fatalf("edit: %v", err)
	}

	got, _ := f.Value()
	if diff := cmp.Diff(map[string]any{"tags": []any{"b", "a", "c"}}, got); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}

	first := []string{
		"Edit item 1 (a)", "Move item 1 (a) down", "Remove item 1 (a)",
		"Edit item 2 (b)", "Move item 2 (b) up", "Remove item 2 (b)",
		"Append item", "Done",
	}
	if diff := cmp.Diff(first, driver.selectOpts[0]); diff != "" {
		t.Fatalf("first menu mismatch (-want +got):\n%s", diff)
	}
	for _, option := range driver.selectOpts[2] {
		if option == "Append item" {
			t.Fatalf("append should be hidden at maxItems: %v", driver.selectOpts[2])
		}
	}
	if f.LastChange().Extra != nil {
		t.Fatalf("last change was an item edit, got %+v", f.LastChange())
	}
}

func TestEdit_EmptyArrayAtMaxItemsHidesAppend(t *testing.T) {
	s := schema.Schema{
		Type: schema.TypeObject,
		Properties: map[string]schema.Schema{
			"tags": {
				Type:       schema.TypeArray,
				Title:      "Tags",
				MaxItems:   intPtr(0),
				Items:      &schema.Items{Single: &schema.Schema{Type: schema.TypeString}},
				Extensions: map[string]any{"$vf_opt": map[string]any{"option": map[string]any{"appendable": true}}},
			},
		},
	}
	f, err := form.New(s, form.WithValue(map[string]any{"tags": []any{}}))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	driver := &stubDriver{selectIdx: []int{0}}

	if err := New(WithPromptDriver(driver)).Edit(context.Background(), f); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if diff := cmp.Diff([][]string{{"Done"}}, driver.selectOpts); diff != "" {
		t.Fatalf("menu mismatch (-want +got):\n%s", diff)
	}
}

func TestEdit_Errors(t *testing.T) {
	if err := New(WithPromptDriver(&stubDriver{})).Edit(context.Background(), nil); !errors.Is(err, ErrNoForm) {
		t.Fatalf("expected ErrNoForm, got %v", err)
	}

	f, err := form.New(schema.Schema{Type: schema.TypeString, Title: "Name"})
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	err = New(WithPromptDriver(&stubDriver{})).Edit(context.Background(), f)
	if err == nil || !strings.Contains(err.Error(), "no input scripted") {
		t.Fatalf("driver errors should propagate, got %v", err)
	}
}

func TestCoerce(t *testing.T) {
	cases := []struct {
		typ     schema.Type
		raw     string
		want    any
		wantErr bool
	}{
		{schema.TypeInteger, " 7 ", float64(7), false},
		{schema.TypeInteger, "7.5", nil, true},
		{schema.TypeNumber, "7.5", 7.5, false},
		{schema.TypeNumber, "seven", nil, true},
		{schema.TypeBoolean, "true", true, false},
		{schema.TypeString, " keep ", " keep ", false},
		{schema.TypeNull, "", nil, false},
	}
	for _, tc := range cases {
		got, err := coerce(tc.typ, tc.raw)
		if (err != nil) != tc.wantErr {
			t.Fatalf("coerce(%s, %q) error = %v", tc.typ, tc.raw, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("coerce(%s, %q) mismatch (-want +got):\n%s", tc.typ, tc.raw, diff)
		}
	}
}

func TestSchemaAt(t *testing.T) {
	root := schema.Schema{
		Type: schema.TypeObject,
		Properties: map[string]schema.Schema{
			"owner": {Ref: "#/definitions/Person"},
		},
		Definitions: map[string]schema.Schema{
			"Person": {
				Type: schema.TypeObject,
				Properties: map[string]schema.Schema{
					"emails": {Type: schema.TypeArray, Items: &schema.Items{Single: &schema.Schema{Type: schema.TypeString, Format: "email"}}},
				},
			},
		},
	}
	got, ok := schemaAt(root, "/owner/emails/3")
	if !ok || got.Format != "email" {
		t.Fatalf("unexpected schema %+v", got)
	}
	if _, ok := schemaAt(root, "/missing"); ok {
		t.Fatalf("unknown property should not resolve")
	}
}
