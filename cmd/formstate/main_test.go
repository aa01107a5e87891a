package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/model"
)

const profileSchema = `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string", "title": "Name", "minLength": 2},
    "tags": {"type": "array", "items": {"type": "string"}}
  }
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func decodeOutput(t *testing.T, raw []byte) (any, []string) {
	t.Helper()
	var out struct {
		Value  any            `json:"value"`
		Errors map[string]any `json:"errors"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode output %q: %v", raw, err)
	}
	paths := make([]string, 0, len(out.Errors))
	for path := range out.Errors {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return out.Value, paths
}

func TestRun_PrintsValueAndErrors(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "profile.json", profileSchema)
	valuePath := writeFile(t, dir, "value.yaml", "name: A\ntags: [x]\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-schema", schemaPath, "-value", valuePath}, &stdout, &stderr, nil)
	if code != exitInvalid {
		t.Fatalf("exit code = %d, want %d (stderr %s)", code, exitInvalid, stderr.String())
	}

	value, paths := decodeOutput(t, stdout.Bytes())
	want := map[string]any{"name": "A", "tags": []any{"x"}}
	if diff := cmp.Diff(want, value); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/name"}, paths); diff != "" {
		t.Fatalf("error paths mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_ValidFormExitsZero(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "profile.json", profileSchema)
	valuePath := writeFile(t, dir, "value.json", `{"name": "Ada"}`)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-schema", schemaPath, "-value", valuePath, "-format", "yaml"}, &stdout, &stderr, nil)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "name: Ada") {
		t.Fatalf("expected yaml output, got %s", stdout.String())
	}
}

func TestRun_ConfigFormatAndFlagOverride(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "profile.json", profileSchema)
	valuePath := writeFile(t, dir, "value.json", `{"name": "Ada"}`)
	configPath := writeFile(t, dir, "formstate.yaml", "format: yaml\nmessages:\n  required: \"{{ title }} please\"\n")

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-schema", schemaPath, "-value", valuePath, "-config", configPath}, &stdout, &stderr, nil); code != exitOK {
		t.Fatalf("exit code = %d, stderr %s", code, stderr.String())
	}
	if !strings.HasPrefix(strings.TrimSpace(stdout.String()), "value:") && !strings.Contains(stdout.String(), "\nvalue:") {
		t.Fatalf("config format should select yaml, got %s", stdout.String())
	}

	stdout.Reset()
	args := []string{"-schema", schemaPath, "-value", valuePath, "-config", configPath, "-format", "json"}
	if code := run(context.Background(), args, &stdout, &stderr, nil); code != exitOK {
		t.Fatalf("exit code = %d, stderr %s", code, stderr.String())
	}
	if !json.Valid(stdout.Bytes()) {
		t.Fatalf("flag should override config format, got %s", stdout.String())
	}
}

func TestRun_Interactive(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "profile.json", profileSchema)
	valuePath := writeFile(t, dir, "value.json", `{"name": "A"}`)

	var edited bool
	edit := func(_ context.Context, f *form.Form, _ *slog.Logger) error {
		edited = true
		if _, err := f.Render(); err != nil {
			return err
		}
		node := f.Tree().Find("/name")
		if node == nil || node.Handle == nil {
			return errors.New("name node missing")
		}
		if err := node.Handle.OnChange("Ada", model.ChangeMeta{}); err != nil {
			return err
		}
		_, err := f.Render()
		return err
	}

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-schema", schemaPath, "-value", valuePath, "-interactive"}, &stdout, &stderr, edit)
	if !edited {
		t.Fatalf("interactive mode should run the editor")
	}
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr %s", code, stderr.String())
	}
	value, paths := decodeOutput(t, stdout.Bytes())
	if diff := cmp.Diff(map[string]any{"name": "Ada"}, value); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
	if len(paths) != 0 {
		t.Fatalf("expected no errors, got %v", paths)
	}
}

func TestRun_Failures(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "profile.json", profileSchema)
	badConfig := writeFile(t, dir, "bad.yaml", "format: xml\n")

	cases := map[string][]string{
		"missing schema": {},
		"unknown flag":   {"-nope"},
		"missing file":   {"-schema", filepath.Join(dir, "missing.json")},
		"invalid config": {"-schema", schemaPath, "-config", badConfig},
		"unknown format": {"-schema", schemaPath, "-format", "xml"},
		"missing value":  {"-schema", schemaPath, "-value", filepath.Join(dir, "missing.json")},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(context.Background(), args, &stdout, &stderr, nil); code != exitFailure {
				t.Fatalf("exit code = %d, want %d", code, exitFailure)
			}
			if stdout.Len() != 0 {
				t.Fatalf("nothing should be printed on failure, got %s", stdout.String())
			}
		})
	}
}
