// Package validation evaluates the built-in schema constraints and
// caller-supplied validators for one value node, collecting rule payloads into
// a path-keyed error map.
package validation

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dlclark/regexp2"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/value"
)

var (
	emailPattern = regexp2.MustCompile(`^(([^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`, regexp2.ECMAScript)
	uriPattern   = regexp2.MustCompile(`^[-a-zA-Z0-9@:%_+.~#?&//=]{2,256}\.[a-z]{2,4}\b(\/[-a-zA-Z0-9@:%_+.~#?&//=]*)?$`, regexp2.ECMAScript)
)

// Node is the validation context of one value position.
type Node struct {
	Value   any
	Defined bool
	Schema  schema.Schema
	// ParentSchema is nil for the root node.
	ParentSchema *schema.Schema
	ParentValue  any
	ValuePath    string
	Key          mo.Option[string]
	Index        mo.Option[int]
	RootSchema   schema.Schema
	// RootValue is a read-only snapshot handed to custom validators.
	RootValue any
}

// Validator runs the rule battery. It is safe for concurrent use once built.
type Validator struct {
	rules      Rules
	generators Generators
	custom     map[string]CustomFunc
	logger     *slog.Logger

	mu       sync.RWMutex
	patterns map[string]*regexp2.Regexp
}

// Option configures a Validator.
type Option func(*Validator)

// WithRules registers rule functions, replacing existing entries by name.
func WithRules(rules Rules) Option {
	return func(v *Validator) {
		for name, fn := range rules {
			if fn != nil {
				v.rules[name] = fn
			}
		}
	}
}

// WithRule registers a single rule function.
func WithRule(name RuleName, fn RuleFunc) Option {
	return WithRules(Rules{name: fn})
}

// WithGenerators registers error-object generators per schema type.
func WithGenerators(generators Generators) Option {
	return func(v *Validator) {
		for typ, fn := range generators {
			if fn != nil {
				v.generators[typ] = fn
			}
		}
	}
}

// WithCustomValidators registers caller validators by rule name.
func WithCustomValidators(custom map[string]CustomFunc) Option {
	return func(v *Validator) {
		for name, fn := range custom {
			if fn != nil {
				v.custom[name] = fn
			}
		}
	}
}

// WithLogger sets the logger used for skipped checks.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// New constructs a Validator. Without rules and generators it never records
// anything.
func New(opts ...Option) *Validator {
	v := &Validator{
		rules:      make(Rules),
		generators: make(Generators),
		custom:     make(map[string]CustomFunc),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		patterns:   make(map[string]*regexp2.Regexp),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// HasRule reports whether name is registered.
func (v *Validator) HasRule(name RuleName) bool {
	_, ok := v.rules[name]
	return ok
}

// Validate runs every check for node and, when the node type has a generator
// and at least one payload was collected, stores the error object at
// node.ValuePath. Existing entries are never removed. The returned error is
// reserved for patterns that do not compile.
func (v *Validator) Validate(node Node, errs ErrorMap) error {
	collected, err := v.Collect(node)
	if err != nil {
		return err
	}
	if len(collected) == 0 {
		return nil
	}
	generator := v.generators[node.Schema.Type]
	if generator == nil {
		v.logger.Debug("validation errors dropped", "path", node.ValuePath, "type", node.Schema.Type, "count", len(collected))
		return nil
	}
	if errs != nil {
		errs[node.ValuePath] = generator(collected)
	}
	return nil
}

// Collect returns the ordered rule payloads for node without aggregating them.
func (v *Validator) Collect(node Node) ([]any, error) {
	c := collector{v: v, node: node}
	s := node.Schema
	parentType := schema.TypeUnknown
	if node.ParentSchema != nil {
		parentType = node.ParentSchema.Type
	}

	if s.MinLength != nil && s.Type == schema.TypeString {
		if str, ok := node.Value.(string); ok && node.Defined && len([]rune(str)) < *s.MinLength {
			c.push(RuleMinLength, *s.MinLength, s)
		}
	}

	if key, ok := node.Key.Get(); ok && parentType == schema.TypeObject && node.ParentSchema.IsRequired(key) {
		missing := !node.Defined
		if s.Type == schema.TypeString {
			missing = !node.Defined || !value.Truthy(node.Value)
		}
		if missing {
			c.push(RuleRequired, true, s)
		}
	}

	if node.Defined && s.Type != schema.TypeUnknown && !matchesType(s.Type, node.Value) {
		c.push(RuleTypeOf, string(s.Type), s)
	}

	if n, ok := value.Len(node.Value); ok && node.Defined {
		if s.MinItems != nil && n < *s.MinItems {
			c.push(RuleMinItems, *s.MinItems, s)
		}
		if s.MaxItems != nil && n > *s.MaxItems {
			c.push(RuleMaxItems, *s.MaxItems, s)
		}
	}

	if s.Type.IsNumeric() {
		num, isNum := value.Number(node.Value)
		isNum = isNum && node.Defined
		if bound, ok := s.Minimum.Float(); ok && isNum && num < bound {
			c.push(RuleMinimum, bound, s)
		}
		if bound, ok := s.Maximum.Float(); ok && isNum && num > bound {
			c.push(RuleMaximum, bound, s)
		}
		if bound, ok := s.MultipleOf.Float(); ok && isNum && math.Mod(num, bound) != 0 {
			c.push(RuleMultipleOf, bound, s)
		}
	}

	if s.Type == schema.TypeString && s.Format != "" && node.Defined && value.Truthy(node.Value) {
		if re := formatPattern(s.Format); re != nil && !schema.MatchPattern(re, strings.ToLower(stringify(node.Value))) {
			c.push(RuleFormat, s.Format, s)
		}
	}

	if s.Type == schema.TypeString && s.Pattern != "" && node.Defined && v.HasRule(RulePattern) {
		re, err := v.compile(s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("validation: invalid pattern %q at %s: %w", s.Pattern, node.ValuePath, err)
		}
		if !schema.MatchPattern(re, stringify(node.Value)) {
			c.push(RulePattern, s.Pattern, s)
		}
	}

	if index, ok := node.Index.Get(); ok && index != 0 && parentType == schema.TypeArray &&
		node.ParentSchema.UniqueItemsEnabled() && value.IsArrayLike(node.ParentValue) {
		if position, found := duplicatePosition(node.Value, node.ParentValue, index); found {
			c.push(RuleUniqueItems, position, s)
		}
	}

	if parentType == schema.TypeObject && node.ParentSchema.Dependencies != nil && value.IsPlainObject(node.ParentValue) {
		str, isString := node.Value.(string)
		empty := !node.Defined || (isString && str == "")
		if key, ok := node.Key.Get(); ok && empty {
			siblings, _ := node.ParentValue.(map[string]any)
			for _, trigger := range dependencyTriggers(*node.ParentSchema, key) {
				sibling, present := siblings[trigger]
				if !present {
					continue
				}
				if text, ok := sibling.(string); ok && text == "" {
					continue
				}
				c.push(RuleDependencies, node.ParentSchema.PropertyTitle(trigger), *node.ParentSchema)
			}
		}
	}

	if node.ParentSchema != nil {
		for _, rule := range node.ParentSchema.ValidatorRules() {
			fn, ok := v.custom[rule.Name]
			if !ok {
				continue
			}
			c.add(fn(CustomArgs{
				Value:        node.Value,
				Defined:      node.Defined,
				Root:         node.RootValue,
				RootSchema:   node.RootSchema,
				ParentSchema: *node.ParentSchema,
				Schema:       s,
				Rule:         rule.Name,
				Constraint:   rule.Value,
				Key:          node.Key,
				Index:        node.Index,
			}))
		}
	}

	return c.errors, nil
}

type collector struct {
	v      *Validator
	node   Node
	errors []any
}

func (c *collector) push(rule RuleName, constraint any, s schema.Schema) {
	fn, ok := c.v.rules[rule]
	if !ok {
		return
	}
	c.add(fn(Args{
		Rule:       rule,
		Value:      c.node.Value,
		Defined:    c.node.Defined,
		Constraint: constraint,
		Schema:     s,
	}))
}

func (c *collector) add(result mo.Option[any]) {
	if payload, ok := result.Get(); ok {
		c.errors = append(c.errors, payload)
	}
}

func (v *Validator) compile(pattern string) (*regexp2.Regexp, error) {
	v.mu.RLock()
	re, ok := v.patterns[pattern]
	v.mu.RUnlock()
	if ok {
		return re, nil
	}
	re, err := schema.CompilePattern(pattern)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	v.patterns[pattern] = re
	v.mu.Unlock()
	return re, nil
}

func matchesType(typ schema.Type, v any) bool {
	switch typ {
	case schema.TypeString:
		_, ok := v.(string)
		return ok
	case schema.TypeNumber:
		_, ok := value.Number(v)
		return ok
	case schema.TypeInteger:
		return value.IsIntegral(v)
	case schema.TypeBoolean:
		_, ok := v.(bool)
		return ok
	case schema.TypeNull:
		return v == nil
	case schema.TypeArray:
		return value.IsArrayLike(v)
	case schema.TypeObject:
		return value.IsPlainObject(v)
	default:
		return true
	}
}

func formatPattern(format string) *regexp2.Regexp {
	switch format {
	case "email":
		return emailPattern
	case "uri":
		return uriPattern
	default:
		return nil
	}
}

// duplicatePosition returns the 1-based position of the first earlier sibling
// that serializes like current.
func duplicatePosition(current, siblings any, index int) (int, bool) {
	want, err := value.Canonical(current)
	if err != nil {
		return 0, false
	}
	for i := 0; i < index; i++ {
		sibling, ok := value.Index(siblings, i)
		if !ok {
			break
		}
		got, err := value.Canonical(sibling)
		if err == nil && got == want {
			return i + 1, true
		}
	}
	return 0, false
}

// dependencyTriggers lists, in sorted order, the dependency keys whose
// required set contains key.
func dependencyTriggers(parent schema.Schema, key string) []string {
	keys := lo.Keys(parent.Dependencies)
	sort.Strings(keys)
	return lo.Filter(keys, func(trigger string, _ int) bool {
		return lo.Contains(parent.Dependencies[trigger], key)
	})
}

func stringify(v any) string {
	switch typed := v.(type) {
	case nil:
		return "null"
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	}
	if num, ok := value.Number(v); ok {
		return strconv.FormatFloat(num, 'f', -1, 64)
	}
	if raw, err := value.Canonical(v); err == nil {
		return raw
	}
	return fmt.Sprint(v)
}
