// Package formstate renders JSON Schema driven forms into a tree of nodes with
// per-item handles, keeps a side cache aligned with array reordering and
// validates every position into an error map keyed by value path.
//
// The root package re-exports the common entry points; the pieces live under
// pkg/.
package formstate

import (
	"context"

	gotheme "github.com/goliatone/go-theme"

	internalloader "github.com/goliatone/go-formstate/internal/loader"
	"github.com/goliatone/go-formstate/internal/openapi"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/orchestrator"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// Form aliases form.Form for callers that only import the root package.
type Form = form.Form

// Result aliases orchestrator.Result.
type Result = orchestrator.Result

// NewLoader constructs a loader using the internal implementation while keeping
// the concrete type hidden from consumers.
func NewLoader(options ...schema.LoaderOption) schema.Loader {
	return internalloader.New(schema.NewLoaderOptions(options...))
}

// NewImporter constructs the OpenAPI component importer.
func NewImporter(validate bool) *openapi.Importer {
	return openapi.New(openapi.Options{Validate: validate})
}

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// NewForm builds a form for an already decoded schema.
func NewForm(s schema.Schema, options ...form.Option) (*Form, error) {
	return form.New(s, options...)
}

// Generate loads source, renders it against v and encodes the result in
// format ("json" when empty). component selects an OpenAPI component schema.
func Generate(ctx context.Context, source schema.Source, component string, v any, format string, options ...orchestrator.Option) (Result, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Source:    source,
		Component: component,
		Value:     v,
		HasValue:  v != nil,
		Format:    format,
	})
}

// GenerateFromDocument renders a pre-loaded document, bypassing the loader.
func GenerateFromDocument(ctx context.Context, doc schema.Document, component string, v any, format string, options ...orchestrator.Option) (Result, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Document:  &doc,
		Component: component,
		Value:     v,
		HasValue:  v != nil,
		Format:    format,
	})
}

// WithThemeSelector passes a go-theme selector through to the orchestrator so
// theme/variant choices are resolved before every render.
func WithThemeSelector(selector gotheme.ThemeSelector, name, variant string) orchestrator.Option {
	return orchestrator.WithThemeSelector(selector, name, variant)
}
