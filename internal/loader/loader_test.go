package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-formstate/pkg/schema"
)

const payload = `{"type":"object","properties":{"name":{"type":"string"}}}`

func TestLoader_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "form.json")
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	doc, err := New(schema.NewLoaderOptions()).Load(context.Background(), schema.SourceFromFile(path))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s, err := doc.Schema()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if s.Type != schema.TypeObject || s.Properties["name"].Type != schema.TypeString {
		t.Fatalf("unexpected schema %+v", s)
	}

	_, err = New(schema.NewLoaderOptions(schema.WithMaxBytes(4))).Load(context.Background(), schema.SourceFromFile(path))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected size limit error, got %v", err)
	}
}

func TestLoader_FS(t *testing.T) {
	files := fstest.MapFS{"schemas/form.yaml": {Data: []byte("type: string\nminLength: 2\n")}}
	l := New(schema.NewLoaderOptions(schema.WithFileSystem(files)))

	doc, err := l.Load(context.Background(), schema.SourceFromFS("/schemas/form.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Format() != schema.FormatYAML {
		t.Fatalf("expected yaml format, got %v", doc.Format())
	}

	if _, err := l.Load(context.Background(), schema.SourceFromFS("missing.json")); err == nil {
		t.Fatalf("expected missing entry error")
	}
	if _, err := New(schema.NewLoaderOptions()).Load(context.Background(), schema.SourceFromFS("x.json")); err == nil {
		t.Fatalf("expected nil fs error")
	}
}

func TestLoader_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	src := schema.SourceFromURL(server.URL + "/form.json")

	_, err := New(schema.NewLoaderOptions()).Load(context.Background(), src)
	if !errors.Is(err, ErrHTTPDisabled) {
		t.Fatalf("expected http disabled, got %v", err)
	}

	l := New(schema.NewLoaderOptions(schema.WithHTTP(2 * time.Second)))
	doc, err := l.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Location() != server.URL+"/form.json" {
		t.Fatalf("unexpected location %q", doc.Location())
	}

	if _, err := l.Load(context.Background(), schema.SourceFromURL(server.URL+"/missing")); err == nil {
		t.Fatalf("expected status error")
	}
}

func TestLoader_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(schema.NewLoaderOptions()).Load(ctx, schema.SourceFromFile("form.json"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}
