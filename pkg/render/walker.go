// Package render walks a schema and its value in lockstep and produces the
// render description: one model.Node per value position, each validated and
// carrying the handle a UI uses to report changes. Arrays are handed to the
// array engine, which calls back into the walker for every item.
package render

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/samber/mo"

	"github.com/goliatone/go-formstate/pkg/array"
	"github.com/goliatone/go-formstate/pkg/cache"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/theme"
	"github.com/goliatone/go-formstate/pkg/validation"
	"github.com/goliatone/go-formstate/pkg/value"
)

// RootTrace is the trace path of the root node in debug mode.
const RootTrace = "Root"

// Request describes one render pass.
type Request struct {
	Schema schema.Schema
	Root   *value.Root
	Cache  cache.Index
	// Errors receives one error object per failing value path. The walker
	// never clears it.
	Errors   validation.ErrorMap
	OnChange model.ChangeFunc
}

// Walker renders forms. It is safe to reuse across passes.
type Walker struct {
	logger    *slog.Logger
	debug     bool
	engine    *array.Engine
	validator *validation.Validator
	theme     *theme.Cache
}

// Option configures a Walker.
type Option func(*Walker)

// WithLogger sets the logger used for debug traces.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Walker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebug enables trace paths on nodes and debug logging.
func WithDebug(enabled bool) Option {
	return func(w *Walker) {
		w.debug = enabled
	}
}

// WithTheme sets the theme cache used for editors and, unless WithValidator
// is supplied, for validation.
func WithTheme(cache *theme.Cache) Option {
	return func(w *Walker) {
		if cache != nil {
			w.theme = cache
		}
	}
}

// WithValidator replaces the validator derived from the theme.
func WithValidator(v *validation.Validator) Option {
	return func(w *Walker) {
		if v != nil {
			w.validator = v
		}
	}
}

// WithArrayEngine replaces the array engine.
func WithArrayEngine(engine *array.Engine) Option {
	return func(w *Walker) {
		if engine != nil {
			w.engine = engine
		}
	}
}

// New constructs a Walker. Without WithTheme the default theme cache is used.
func New(opts ...Option) (*Walker, error) {
	w := &Walker{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	if w.theme == nil {
		cache, err := theme.New(theme.WithLogger(w.logger))
		if err != nil {
			return nil, fmt.Errorf("render: default theme: %w", err)
		}
		w.theme = cache
	}
	if w.validator == nil {
		w.validator = w.theme.Validator(nil)
	}
	if w.engine == nil {
		w.engine = array.New(array.WithLogger(w.logger), array.WithDebug(w.debug))
	}
	return w, nil
}

// Render walks req and returns the root node.
func (w *Walker) Render(req Request) (*model.Node, error) {
	if req.Root == nil {
		req.Root = value.NewUndefinedRoot()
	}
	current, _ := req.Root.Value()
	p := &pass{
		w:        w,
		req:      req,
		snapshot: value.Snapshot(current),
	}

	root := &model.Node{Path: ""}
	onChange := func(v any, meta model.ChangeMeta) error {
		if req.OnChange == nil {
			return nil
		}
		return req.OnChange(v, meta)
	}
	f := frame{
		ref:      value.RootRef(req.Root),
		schema:   req.Schema,
		node:     root,
		onChange: onChange,
		handle:   model.NewHandle(model.Capabilities{}, model.Operations{OnChange: onChange}),
	}
	if w.debug {
		f.trace = RootTrace
	}
	if err := p.render(f); err != nil {
		return nil, err
	}
	return root, nil
}

type pass struct {
	w        *Walker
	req      Request
	snapshot any
}

type frame struct {
	ref          value.Ref
	schema       schema.Schema
	parentSchema *schema.Schema
	parentValue  any
	path         string
	key          mo.Option[string]
	index        mo.Option[int]
	node         *model.Node
	handle       *model.Handle
	onChange     model.ChangeFunc
	editor       string
	trace        string
}

func (p *pass) render(f frame) error {
	s, err := schema.Deref(f.schema, p.req.Schema)
	if err != nil {
		return fmt.Errorf("render: %s: %w", displayPath(f.path), err)
	}
	v, defined := f.ref.Get()

	node := f.node
	node.Path = f.path
	node.Type = s.Type
	node.Title = s.Title
	node.Description = s.Description
	node.Value = v
	node.Defined = defined
	node.Handle = f.handle
	node.Editor = f.editor
	if node.Editor == "" {
		node.Editor = p.w.theme.Editor(s)
	}
	if key, ok := f.key.Get(); ok {
		node.Key = key
		node.Required = f.parentSchema != nil && f.parentSchema.IsRequired(key)
	}
	if p.w.debug {
		node.Trace = f.trace
		p.w.logger.Debug("render node", "path", f.trace, "value", v)
	}

	err = p.w.validator.Validate(validation.Node{
		Value:        v,
		Defined:      defined,
		Schema:       s,
		ParentSchema: f.parentSchema,
		ParentValue:  f.parentValue,
		ValuePath:    f.path,
		Key:          f.key,
		Index:        f.index,
		RootSchema:   p.req.Schema,
		RootValue:    p.snapshot,
	}, p.req.Errors)
	if err != nil {
		return err
	}

	switch s.Type {
	case schema.TypeObject:
		return p.renderObject(f, s, v, defined)
	case schema.TypeArray:
		return p.w.engine.Reconcile(array.Request{
			Schema:    s,
			Root:      p.req.Schema,
			Ref:       f.ref,
			ValuePath: f.path,
			Node:      node,
			Cache:     p.req.Cache,
			OnChange:  f.onChange,
			Trace:     f.trace,
			Renderer:  p,
		})
	default:
		return nil
	}
}

// renderObject visits declared properties in key order. An undefined object
// is rendered against a detached map that is attached on the first change.
func (p *pass) renderObject(f frame, s schema.Schema, v any, defined bool) error {
	obj, ok := v.(map[string]any)
	if !ok {
		if defined && v != nil {
			return nil
		}
		obj = make(map[string]any)
	}

	keys := make([]string, 0, len(s.Properties))
	for key := range s.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parent := s
	f.node.Children = make([]*model.Node, 0, len(keys))
	for _, key := range keys {
		key := key
		onChange := func(next any, meta model.ChangeMeta) error {
			obj[key] = next
			if f.onChange == nil {
				return nil
			}
			return f.onChange(obj, meta)
		}
		child := &model.Node{}
		f.node.Children = append(f.node.Children, child)
		cf := frame{
			ref:          value.Ref{Container: obj, Key: key},
			schema:       s.Properties[key],
			parentSchema: &parent,
			parentValue:  obj,
			path:         value.JoinPath(f.path, key),
			key:          mo.Some(key),
			node:         child,
			onChange:     onChange,
			handle:       model.NewHandle(model.Capabilities{}, model.Operations{OnChange: onChange}),
		}
		if p.w.debug {
			cf.trace = f.trace + "/" + key
		}
		if err := p.render(cf); err != nil {
			return err
		}
	}
	return nil
}

// RenderItem renders one array item on behalf of the array engine.
func (p *pass) RenderItem(item array.Item) error {
	parent := item.ParentSchema
	return p.render(frame{
		ref:          item.Ref,
		schema:       item.Schema,
		parentSchema: &parent,
		parentValue:  item.ParentValue,
		path:         item.ValuePath,
		index:        mo.Some(item.Index),
		node:         item.Node,
		handle:       item.Handle,
		onChange:     item.Handle.OnChange,
		editor:       item.Editor,
		trace:        item.Trace,
	})
}

func displayPath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
