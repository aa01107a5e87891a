// Package array reconciles array values with their schema: it computes the
// structural permissions of every item, hands each item to an ItemRenderer
// and keeps the per-item cache aligned with the values when items move or
// are removed.
package array

import (
	"io"
	"log/slog"
	"slices"
	"strconv"

	"github.com/goliatone/go-formstate/pkg/cache"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/value"
)

// Item is the bundle handed to the ItemRenderer for one array index.
type Item struct {
	Ref          value.Ref
	Schema       schema.Schema
	HasSchema    bool
	ParentSchema schema.Schema
	ParentValue  any
	ValuePath    string
	Index        int
	Handle       *model.Handle
	Node         *model.Node
	Editor       string
	Trace        string
}

// ItemRenderer renders one array item, usually by validating it and
// recursing into its value.
type ItemRenderer interface {
	RenderItem(item Item) error
}

// ItemRendererFunc adapts a function to ItemRenderer.
type ItemRendererFunc func(item Item) error

func (fn ItemRendererFunc) RenderItem(item Item) error {
	return fn(item)
}

// Request describes one array position to reconcile.
type Request struct {
	// Schema is the array schema with refs already resolved.
	Schema schema.Schema
	// Root is used to resolve item schemas.
	Root schema.Schema
	// Ref points at the array inside the caller's value tree.
	Ref       value.Ref
	ValuePath string
	// Node receives one child per live index.
	Node  *model.Node
	Cache cache.Index
	// OnChange is notified with the whole array after any change.
	OnChange model.ChangeFunc
	// Editors overrides the `$vf_opt/editors` list of Schema when non-nil.
	Editors  []string
	Trace    string
	Renderer ItemRenderer
}

// Engine reconciles arrays. The zero value is not usable; call New.
type Engine struct {
	logger *slog.Logger
	debug  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug traces.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDebug enables per-item trace paths and debug logging.
func WithDebug(enabled bool) Option {
	return func(e *Engine) {
		e.debug = enabled
	}
}

// New constructs an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Permissions computes the capabilities of index i in an array of length n.
func Permissions(s schema.Schema, i, n int) model.Capabilities {
	opts := s.ArrayOptions()
	tuple := s.TupleLen()
	return model.Capabilities{
		CanMoveUp:   opts.Orderable && i > tuple && i != 0,
		CanMoveDown: opts.Orderable && i+1 > tuple && i+1 != n,
		CanRemove:   opts.Removable && i+1 > tuple && (s.MinItems == nil || *s.MinItems < n),
		CanAppend:   canAppend(s, opts, n),
	}
}

func canAppend(s schema.Schema, opts schema.ArrayOptions, n int) bool {
	return opts.Appendable && (s.MaxItems == nil || *s.MaxItems > n)
}

// Reconcile walks the array referenced by req in ascending index order. A
// value that is not an array is left alone. The only error returned is the
// first one produced by the item renderer.
func (e *Engine) Reconcile(req Request) error {
	list, ok := e.live(req)
	if !ok {
		return nil
	}

	n := len(list)
	opts := req.Schema.ArrayOptions()
	editors := req.Editors
	if editors == nil {
		editors = req.Schema.Editors()
	}
	if req.Node != nil {
		req.Node.Options = &opts
		req.Node.Children = make([]*model.Node, n)
	}

	for i := 0; i < n; i++ {
		index := i
		path := value.JoinPath(req.ValuePath, index)
		handle := model.NewHandle(Permissions(req.Schema, index, n), model.Operations{
			MoveUp:   func() error { return e.swap(req, index, index-1, model.FormUpdateMoveUp) },
			MoveDown: func() error { return e.swap(req, index, index+1, model.FormUpdateMoveDown) },
			Remove:   func() error { return e.remove(req, index) },
			OnChange: func(v any, meta model.ChangeMeta) error { return e.change(req, index, v, meta) },
		})

		child := &model.Node{
			Path:   path,
			Index:  &index,
			Handle: handle,
			Editor: schema.EditorFor(editors, index),
		}
		if req.Node != nil {
			req.Node.Children[index] = child
		}

		item := Item{
			Ref:          value.Ref{Container: list, Key: index},
			ParentSchema: req.Schema,
			ParentValue:  list,
			ValuePath:    path,
			Index:        index,
			Handle:       handle,
			Node:         child,
			Editor:       child.Editor,
		}
		item.Schema, item.HasSchema = schema.ItemSchema(req.Schema, index, req.Root)

		if e.debug {
			item.Trace = req.Trace + "/Array[" + strconv.Itoa(index) + "]"
			child.Trace = item.Trace
			e.logger.Debug("array item", "path", item.Trace, "value", list)
		}

		if req.Renderer == nil {
			continue
		}
		if err := req.Renderer.RenderItem(item); err != nil {
			return err
		}
	}
	return nil
}

// live returns the array currently stored at req.Ref. Typed slices are
// normalized to []any and written back so operations can mutate them.
func (e *Engine) live(req Request) ([]any, bool) {
	current, ok := req.Ref.Get()
	if !ok {
		return nil, false
	}
	if list, ok := current.([]any); ok {
		return list, true
	}
	n, ok := value.Len(current)
	if !ok {
		return nil, false
	}
	list := make([]any, n)
	for i := range list {
		list[i], _ = value.Index(current, i)
	}
	if err := req.Ref.Set(list); err != nil {
		e.logger.Debug("array normalize failed", "path", req.ValuePath, "error", err)
		return nil, false
	}
	return list, true
}

// swap exchanges items i and j. Cache entries travel with their values; an
// entry that has no counterpart leaves its old path empty.
func (e *Engine) swap(req Request, i, j int, update model.FormUpdate) error {
	list, ok := e.live(req)
	if !ok || i < 0 || j < 0 || i >= len(list) || j >= len(list) {
		return nil
	}

	view := cache.ByValuePath(req.Cache)
	pathI := value.JoinPath(req.ValuePath, i)
	pathJ := value.JoinPath(req.ValuePath, j)
	entryI, okI := view.Get(pathI).Get()
	entryJ, okJ := view.Get(pathJ).Get()

	if okI || okJ {
		view.Delete(pathJ)
	}
	if okI {
		view.Set(pathJ, entryI)
	}
	if okI || okJ {
		view.Delete(pathI)
	}
	if okJ {
		view.Set(pathI, entryJ)
	}

	list[i], list[j] = list[j], list[i]
	e.logger.Debug("array move", "path", req.ValuePath, "from", i, "to", j)
	return notify(req, list, model.ChangeMeta{FormUpdate: update})
}

// remove drops item i, shifting the cache entries of later items down by one.
func (e *Engine) remove(req Request, i int) error {
	list, ok := e.live(req)
	if !ok || i < 0 || i >= len(list) {
		return nil
	}

	view := cache.ByValuePath(req.Cache)
	for j := i + 1; j < len(list); j++ {
		entry := view.Get(value.JoinPath(req.ValuePath, j))
		dest := value.JoinPath(req.ValuePath, j-1)
		view.Delete(dest)
		if moved, ok := entry.Get(); ok {
			view.Set(dest, moved)
		}
	}
	view.Delete(value.JoinPath(req.ValuePath, len(list)-1))

	next := slices.Delete(list, i, i+1)
	if err := req.Ref.Set(next); err != nil {
		return err
	}
	e.logger.Debug("array remove", "path", req.ValuePath, "index", i)
	return notify(req, next, model.ChangeMeta{FormUpdate: model.FormUpdateRemove})
}

// change writes a new item value and forwards the whole array.
func (e *Engine) change(req Request, i int, v any, meta model.ChangeMeta) error {
	list, ok := e.live(req)
	if !ok || i < 0 || i >= len(list) {
		return nil
	}
	list[i] = v
	return notify(req, list, meta)
}

func notify(req Request, list []any, meta model.ChangeMeta) error {
	if req.OnChange == nil {
		return nil
	}
	return req.OnChange(list, meta)
}
