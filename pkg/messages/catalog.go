// Package messages provides the default rule functions: each violation becomes
// a validation.Issue whose message is rendered from a per-rule pongo2
// template.
package messages

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/mo"

	"github.com/goliatone/go-formstate/pkg/validation"
	"github.com/goliatone/go-formstate/pkg/value"
)

// DefaultTemplates holds the built-in message template of every rule.
var DefaultTemplates = map[validation.RuleName]string{
	validation.RuleMinLength:    "{{ title }} must be at least {{ limit }} characters",
	validation.RuleRequired:     "{{ title }} is required",
	validation.RuleTypeOf:       "{{ title }} must be of type {{ limit }}",
	validation.RuleMinItems:     "{{ title }} must contain at least {{ limit }} items",
	validation.RuleMaxItems:     "{{ title }} must contain at most {{ limit }} items",
	validation.RuleMinimum:      "{{ title }} must be greater than or equal to {{ limit }}",
	validation.RuleMaximum:      "{{ title }} must be less than or equal to {{ limit }}",
	validation.RuleMultipleOf:   "{{ title }} must be a multiple of {{ limit }}",
	validation.RuleFormat:       "{{ title }} must be a valid {{ limit }}",
	validation.RulePattern:      "{{ title }} does not match the expected pattern",
	validation.RuleUniqueItems:  "{{ title }} duplicates the {{ limit|ordinal }} item",
	validation.RuleDependencies: "This field is required when {{ limit }} is set",
}

const fallbackTitle = "Value"

var (
	titlePolicyOnce sync.Once
	titlePolicy     *bluemonday.Policy

	filtersOnce sync.Once
	filtersErr  error
)

// Catalog renders rule messages. It is safe for concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	sources   map[validation.RuleName]string
	templates map[validation.RuleName]*pongo2.Template
	logger    *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithTemplate overrides the template of one rule.
func WithTemplate(rule validation.RuleName, source string) Option {
	return func(c *Catalog) {
		if strings.TrimSpace(source) != "" {
			c.sources[rule] = source
		}
	}
}

// WithTemplates overrides several templates at once.
func WithTemplates(sources map[string]string) Option {
	return func(c *Catalog) {
		for rule, source := range sources {
			if strings.TrimSpace(source) != "" {
				c.sources[validation.RuleName(rule)] = source
			}
		}
	}
}

// WithLogger sets the logger used when a template fails at render time.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New compiles the templates, failing on the first one that does not parse.
func New(opts ...Option) (*Catalog, error) {
	c := &Catalog{
		set:       pongo2.NewSet("formstate-messages", pongo2.MustNewLocalFileSystemLoader("")),
		sources:   make(map[validation.RuleName]string, len(DefaultTemplates)),
		templates: make(map[validation.RuleName]*pongo2.Template, len(DefaultTemplates)),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for rule, source := range DefaultTemplates {
		c.sources[rule] = source
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if err := registerFilters(); err != nil {
		return nil, err
	}
	for rule, source := range c.sources {
		if err := c.Override(rule, source); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Override replaces the template of one rule after construction.
func (c *Catalog) Override(rule validation.RuleName, source string) error {
	tmpl, err := c.set.FromString("{% autoescape off %}" + source + "{% endautoescape %}")
	if err != nil {
		return fmt.Errorf("messages: parse template for %q: %w", rule, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[rule] = source
	c.templates[rule] = tmpl
	return nil
}

// MustNew panics when a template does not parse.
func MustNew(opts ...Option) *Catalog {
	c, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Render formats the message for one violation.
func (c *Catalog) Render(args validation.Args) (string, error) {
	if c == nil {
		return "", errors.New("messages: catalog is nil")
	}
	c.mu.RLock()
	tmpl, ok := c.templates[args.Rule]
	c.mu.RUnlock()
	if !ok {
		return string(args.Rule), nil
	}

	ctx := pongo2.Context{
		"rule":  string(args.Rule),
		"title": Title(args.Schema.Title),
		"limit": formatConstraint(args.Constraint),
		"value": args.Value,
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(ctx, &buf); err != nil {
		return "", fmt.Errorf("messages: render %q: %w", args.Rule, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Rule returns the rule function for name.
func (c *Catalog) Rule(name validation.RuleName) validation.RuleFunc {
	return func(args validation.Args) mo.Option[any] {
		message, err := c.Render(args)
		if err != nil {
			c.logger.Warn("message template failed", "rule", name, "error", err)
			message = string(name)
		}
		return mo.Some[any](validation.Issue{
			Rule:    string(name),
			Message: message,
			Params:  map[string]any{"limit": args.Constraint},
		})
	}
}

// Rules returns a rule function for every built-in rule.
func (c *Catalog) Rules() validation.Rules {
	rules := make(validation.Rules, len(validation.BuiltinRules))
	for _, name := range validation.BuiltinRules {
		rules[name] = c.Rule(name)
	}
	return rules
}

// Title strips markup from a schema title so it can be interpolated into plain
// text messages. Empty titles become "Value".
func Title(raw string) string {
	if cleaned := plainText(raw); cleaned != "" {
		return cleaned
	}
	return fallbackTitle
}

func plainText(raw string) string {
	titlePolicyOnce.Do(func() {
		titlePolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(titlePolicy.Sanitize(raw)))
}

func formatConstraint(v any) string {
	switch typed := v.(type) {
	case string:
		return plainText(typed)
	case nil:
		return ""
	}
	if num, ok := value.Number(v); ok {
		return strconv.FormatFloat(num, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// registerFilters installs the shared pongo2 filters once per process; the
// pongo2 filter registry is a global map.
func registerFilters() error {
	filtersOnce.Do(func() {
		if pongo2.FilterExists("ordinal") {
			return
		}
		filtersErr = pongo2.RegisterFilter("ordinal", func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			n, err := strconv.Atoi(strings.TrimSpace(in.String()))
			if err != nil {
				return in, nil
			}
			return pongo2.AsValue(ordinal(n)), nil
		})
	})
	return filtersErr
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
