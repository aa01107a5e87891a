// Package form owns the state of one rendered form: the root value, the
// per-item cache, the error map and the latest render description.
package form

import (
	"io"
	"log/slog"
	"sync"

	"github.com/goliatone/go-formstate/pkg/cache"
	"github.com/goliatone/go-formstate/pkg/messages"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/theme"
	"github.com/goliatone/go-formstate/pkg/validation"
	"github.com/goliatone/go-formstate/pkg/value"
)

// ServerRule tags issues imported from a server error payload.
const ServerRule = "server"

// Form is safe for concurrent use. Handles returned by Render must not be
// invoked while Render runs.
type Form struct {
	mu         sync.RWMutex
	schema     schema.Schema
	root       *value.Root
	cache      *cache.Store
	errors     validation.ErrorMap
	formErrors []string
	tree       *model.Node
	lastChange model.ChangeMeta

	walker   *render.Walker
	theme    *theme.Cache
	custom   map[string]validation.CustomFunc
	listener model.ChangeFunc
	logger   *slog.Logger
	debug    bool
}

// Option configures a Form.
type Option func(*Form)

// WithValue sets the initial root value.
func WithValue(v any) Option {
	return func(f *Form) {
		f.root = value.NewRoot(v)
	}
}

// WithTheme sets the theme cache.
func WithTheme(cache *theme.Cache) Option {
	return func(f *Form) {
		if cache != nil {
			f.theme = cache
		}
	}
}

// WithCustomValidators registers validators referenced from `$vf_ext/validate`.
func WithCustomValidators(custom map[string]validation.CustomFunc) Option {
	return func(f *Form) {
		for name, fn := range custom {
			f.custom[name] = fn
		}
	}
}

// WithListener is notified after every change to the root value.
func WithListener(fn model.ChangeFunc) Option {
	return func(f *Form) {
		f.listener = fn
	}
}

// WithCache shares an existing cache store with the form.
func WithCache(store *cache.Store) Option {
	return func(f *Form) {
		if store != nil {
			f.cache = store
		}
	}
}

// WithLogger sets the logger passed to the walker.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithDebug enables trace paths and debug logging.
func WithDebug(enabled bool) Option {
	return func(f *Form) {
		f.debug = enabled
	}
}

// New builds a form for s. Without WithValue the root is undefined.
func New(s schema.Schema, opts ...Option) (*Form, error) {
	f := &Form{
		schema: s,
		root:   value.NewUndefinedRoot(),
		cache:  cache.New(),
		errors: make(validation.ErrorMap),
		custom: make(map[string]validation.CustomFunc),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.theme == nil {
		th, err := theme.New(theme.WithLogger(f.logger))
		if err != nil {
			return nil, err
		}
		f.theme = th
	}
	walker, err := render.New(
		render.WithTheme(f.theme),
		render.WithValidator(f.theme.Validator(f.custom)),
		render.WithLogger(f.logger),
		render.WithDebug(f.debug),
	)
	if err != nil {
		return nil, err
	}
	f.walker = walker
	return f, nil
}

// Render clears the error map and walks the form, returning the new render
// description.
func (f *Form) Render() (*model.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.errors = make(validation.ErrorMap)
	f.formErrors = nil
	tree, err := f.walker.Render(render.Request{
		Schema:   f.schema,
		Root:     f.root,
		Cache:    f.cache,
		Errors:   f.errors,
		OnChange: f.OnChange,
	})
	if err != nil {
		return nil, err
	}
	f.tree = tree
	return tree, nil
}

// OnChange replaces the root value and notifies the listener. It is the
// callback handed to the root node.
func (f *Form) OnChange(v any, meta model.ChangeMeta) error {
	f.mu.Lock()
	f.root.Replace(v)
	f.lastChange = meta
	listener := f.listener
	f.mu.Unlock()

	if listener == nil {
		return nil
	}
	return listener(v, meta)
}

// Value returns the root value and whether it is defined.
func (f *Form) Value() (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.root.Value()
}

// Schema returns the form schema.
func (f *Form) Schema() schema.Schema {
	return f.schema
}

// Tree returns the description produced by the last Render.
func (f *Form) Tree() *model.Node {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.tree
}

// LastChange returns the metadata of the latest change.
func (f *Form) LastChange() model.ChangeMeta {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lastChange
}

// Cache exposes the per-item cache.
func (f *Form) Cache() *cache.Store {
	return f.cache
}

// Errors returns a copy of the error map.
func (f *Form) Errors() validation.ErrorMap {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.errors.Clone()
}

// ErrorsFor returns the error object stored at path.
func (f *Form) ErrorsFor(path string) (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	entry, ok := f.errors[path]
	return entry, ok
}

// FormErrors returns messages that could not be attached to a node.
func (f *Form) FormErrors() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.formErrors...)
}

// Valid reports whether the last pass and imported errors left nothing behind.
func (f *Form) Valid() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.errors) == 0 && len(f.formErrors) == 0
}

// ImportErrors attaches a server error payload to the rendered nodes. Field
// messages are appended to existing error objects as server issues; unknown
// paths become form errors. Render must have run first. Entries are dropped
// by the next Render.
func (f *Form) ImportErrors(payload map[string][]string) render.ErrorMapping {
	f.mu.Lock()
	defer f.mu.Unlock()

	mapping := render.MapErrorPayload(f.tree, payload)
	for path, texts := range mapping.Fields {
		existing, present := f.errors[path]
		obj, isObj := existing.(messages.ErrorObject)
		if present && !isObj {
			obj = messages.Generate([]any{existing}).(messages.ErrorObject)
		}
		for _, text := range texts {
			obj.Issues = append(obj.Issues, validation.Issue{Rule: ServerRule, Message: text})
		}
		if obj.Message == "" && len(obj.Issues) > 0 {
			obj.Message = obj.Issues[0].Message
		}
		f.errors[path] = obj
	}
	f.formErrors = render.MergeFormErrors(f.formErrors, mapping.Form...)
	return mapping
}

// Output snapshots the form for encoding.
func (f *Form) Output(includeTree bool) render.Output {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, _ := f.root.Value()
	out := render.Output{
		Value:      value.Snapshot(v),
		Errors:     f.errors.Clone(),
		FormErrors: append([]string(nil), f.formErrors...),
	}
	if includeTree {
		out.Tree = f.tree
	}
	return out
}
