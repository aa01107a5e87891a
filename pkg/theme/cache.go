// Package theme holds the per-form theme cache: the validation rule registry,
// the error-object generator and editor of every schema type, and the
// editor registry. Caches can be derived from a go-theme selection.
package theme

import (
	"io"
	"log/slog"

	"github.com/goliatone/go-formstate/pkg/messages"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// Component is what a theme registers for one schema type.
type Component struct {
	Editor            string
	ErrorObjGenerator validation.ErrorObjGenerator
}

// Cache is read-only once built.
type Cache struct {
	name       string
	variant    string
	catalog    *messages.Catalog
	templates  map[string]string
	validators validation.Rules
	disabled   map[validation.RuleName]bool
	components map[schema.Type]Component
	editors    *EditorRegistry
	logger     *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithCatalog replaces the message catalog behind the default validators.
func WithCatalog(catalog *messages.Catalog) Option {
	return func(c *Cache) {
		if catalog != nil {
			c.catalog = catalog
		}
	}
}

// WithMessageTemplates overrides message templates by rule name. Ignored when
// WithCatalog is also supplied.
func WithMessageTemplates(templates map[string]string) Option {
	return func(c *Cache) {
		for rule, source := range templates {
			c.templates[rule] = source
		}
	}
}

// WithValidator replaces one rule function. A nil fn disables the rule.
func WithValidator(name validation.RuleName, fn validation.RuleFunc) Option {
	return func(c *Cache) {
		if fn == nil {
			delete(c.validators, name)
			c.disabled[name] = true
			return
		}
		delete(c.disabled, name)
		c.validators[name] = fn
	}
}

// WithComponent registers the component of one type. Empty fields keep the
// defaults.
func WithComponent(typ schema.Type, component Component) Option {
	return func(c *Cache) {
		current := c.components[typ]
		if component.Editor != "" {
			current.Editor = component.Editor
		}
		if component.ErrorObjGenerator != nil {
			current.ErrorObjGenerator = component.ErrorObjGenerator
		}
		c.components[typ] = current
	}
}

// WithEditorRegistry replaces the editor registry.
func WithEditorRegistry(reg *EditorRegistry) Option {
	return func(c *Cache) {
		if reg != nil {
			c.editors = reg
		}
	}
}

// WithLogger sets the logger handed to validators built from the cache.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a cache with the default rule functions and the default error
// object for every type.
func New(opts ...Option) (*Cache, error) {
	c := &Cache{
		templates:  make(map[string]string),
		validators: make(validation.Rules),
		disabled:   make(map[validation.RuleName]bool),
		components: make(map[schema.Type]Component, len(schema.Types)),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for typ, gen := range messages.Generators() {
		c.components[typ] = Component{ErrorObjGenerator: gen}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.catalog == nil {
		catalog, err := messages.New(messages.WithTemplates(c.templates), messages.WithLogger(c.logger))
		if err != nil {
			return nil, err
		}
		c.catalog = catalog
	}
	for name, fn := range c.catalog.Rules() {
		if c.disabled[name] {
			continue
		}
		if _, overridden := c.validators[name]; !overridden {
			c.validators[name] = fn
		}
	}

	if c.editors == nil {
		c.editors = NewEditorRegistry()
	}
	for typ, component := range c.components {
		if component.Editor != "" {
			c.editors.Override(typ, component.Editor)
		}
	}
	return c, nil
}

// MustNew panics when the cache cannot be built.
func MustNew(opts ...Option) *Cache {
	c, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the theme name the cache was derived from, if any.
func (c *Cache) Name() string { return c.name }

// Variant returns the theme variant the cache was derived from, if any.
func (c *Cache) Variant() string { return c.variant }

// Catalog returns the message catalog.
func (c *Cache) Catalog() *messages.Catalog { return c.catalog }

// Validators returns a copy of the rule registry.
func (c *Cache) Validators() validation.Rules {
	out := make(validation.Rules, len(c.validators))
	for name, fn := range c.validators {
		out[name] = fn
	}
	return out
}

// Generators returns the error-object generator of every type that has one.
func (c *Cache) Generators() validation.Generators {
	out := make(validation.Generators, len(c.components))
	for typ, component := range c.components {
		if component.ErrorObjGenerator != nil {
			out[typ] = component.ErrorObjGenerator
		}
	}
	return out
}

// Component returns the component registered for typ.
func (c *Cache) Component(typ schema.Type) (Component, bool) {
	component, ok := c.components[typ]
	return component, ok
}

// Editor resolves the editor name for s.
func (c *Cache) Editor(s schema.Schema) string {
	name, _ := c.editors.Resolve(s)
	return name
}

// Editors exposes the editor registry.
func (c *Cache) Editors() *EditorRegistry { return c.editors }

// Validator builds a validator wired to the cache rules and generators plus
// the caller's custom validators.
func (c *Cache) Validator(custom map[string]validation.CustomFunc) *validation.Validator {
	return validation.New(
		validation.WithRules(c.Validators()),
		validation.WithGenerators(c.Generators()),
		validation.WithCustomValidators(custom),
		validation.WithLogger(c.logger),
	)
}
