// Package testsupport holds fixture and golden helpers shared by package tests.
package testsupport

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// UpdateGoldensEnv enables golden rewrites when set to any value.
const UpdateGoldensEnv = "UPDATE_GOLDENS"

// LoadSchema reads a JSON or YAML schema fixture, failing the test on error.
func LoadSchema(t testing.TB, path string) schema.Schema {
	t.Helper()

	s, err := LoadSchemaFromPath(path)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	return s
}

// LoadSchemaFromPath returns a decoded schema without requiring testing.T,
// so fixtures can be wired from setup functions.
func LoadSchemaFromPath(path string) (schema.Schema, error) {
	data, err := readFixture(path)
	if err != nil {
		return schema.Schema{}, err
	}
	s, err := schema.Parse(data)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("testsupport: parse schema %s: %w", path, err)
	}
	return s, nil
}

// LoadValue reads a JSON or YAML value fixture, normalised the way the form
// stores values.
func LoadValue(t testing.TB, path string) any {
	t.Helper()

	data, err := readFixture(path)
	if err != nil {
		t.Fatalf("load value: %v", err)
	}
	v, err := schema.ParseValue(data)
	if err != nil {
		t.Fatalf("parse value %s: %v", path, err)
	}
	return v
}

func readFixture(path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("testsupport: fixture path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read fixture: %w", err)
	}
	return data, nil
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
func WriteGolden(t testing.TB, path string, value any) {
	t.Helper()

	if os.Getenv(UpdateGoldensEnv) == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	WriteMaybeGolden(t, path, payload)
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t testing.TB, path string, data []byte) bool {
	t.Helper()
	if os.Getenv(UpdateGoldensEnv) == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t testing.TB, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// CompareGolden decodes the golden at path and diffs it against got after a
// JSON round trip, so typed values compare with their encoded form.
func CompareGolden(t testing.TB, path string, got any) string {
	t.Helper()

	encoded, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal value: %v", err)
	}
	var normalised, want any
	if err := json.Unmarshal(encoded, &normalised); err != nil {
		t.Fatalf("normalise value: %v", err)
	}
	if err := json.Unmarshal(MustReadGolden(t, path), &want); err != nil {
		t.Fatalf("decode golden %s: %v", path, err)
	}
	return cmp.Diff(want, normalised)
}

// Change is one notification captured by a Recorder.
type Change struct {
	Value any
	Meta  model.ChangeMeta
}

// Recorder captures change notifications, for use with form.WithListener or
// a custom model.Operations.OnChange.
type Recorder struct {
	mu      sync.Mutex
	changes []Change
	err     error
}

// NewRecorder returns a Recorder whose Func returns err for every call.
func NewRecorder(err error) *Recorder {
	return &Recorder{err: err}
}

// Func is the model.ChangeFunc that records into r.
func (r *Recorder) Func() model.ChangeFunc {
	return func(v any, meta model.ChangeMeta) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.changes = append(r.changes, Change{Value: v, Meta: meta})
		return r.err
	}
}

// Changes returns a copy of the recorded notifications.
func (r *Recorder) Changes() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Change(nil), r.changes...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Change, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.changes) == 0 {
		return Change{}, false
	}
	return r.changes[len(r.changes)-1], true
}
