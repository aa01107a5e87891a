package theme

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formstate/pkg/schema"
)

// Built-in editor identifiers.
const (
	EditorToggle   = "toggle"
	EditorSelect   = "select"
	EditorEmail    = "email"
	EditorURL      = "url"
	EditorNumber   = "number"
	EditorRepeater = "repeater"
	EditorFieldset = "fieldset"
	EditorInput    = "input"
)

// Matcher decides whether an editor handles the supplied schema.
type Matcher func(s schema.Schema) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// EditorRegistry picks an editor name for a schema node from explicit hints,
// per-type overrides or registered matchers. Higher priority wins; ties fall
// back to registration order.
type EditorRegistry struct {
	mu        sync.RWMutex
	rules     []rule
	overrides map[schema.Type]string
}

// NewEditorRegistry constructs a registry with the built-in matchers.
func NewEditorRegistry() *EditorRegistry {
	reg := &EditorRegistry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a matcher. The latest registration of a duplicate name is
// kept alongside earlier ones; priority decides which is tried first.
func (r *EditorRegistry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Override forces the editor of every node of type typ. An empty name clears
// the override.
func (r *EditorRegistry) Override(typ schema.Type, name string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	name = strings.TrimSpace(name)
	if name == "" {
		delete(r.overrides, typ)
		return
	}
	if r.overrides == nil {
		r.overrides = make(map[schema.Type]string)
	}
	r.overrides[typ] = name
}

// Resolve returns the editor for s. A `$vf_opt/widget` hint wins over type
// overrides, which win over matchers.
func (r *EditorRegistry) Resolve(s schema.Schema) (string, bool) {
	if explicit := s.Widget(); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	if name, ok := r.overrides[s.Type]; ok {
		r.mu.RUnlock()
		return name, true
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(s) {
			return entry.name, true
		}
	}
	return "", false
}

func (r *EditorRegistry) registerBuiltins() {
	r.Register(EditorToggle, 90, func(s schema.Schema) bool {
		return s.Type == schema.TypeBoolean
	})

	r.Register(EditorSelect, 80, func(s schema.Schema) bool {
		if s.Type == schema.TypeArray || s.Type == schema.TypeObject {
			return false
		}
		return len(s.Enum) > 0
	})

	r.Register(EditorEmail, 70, func(s schema.Schema) bool {
		return s.Type == schema.TypeString && strings.EqualFold(strings.TrimSpace(s.Format), "email")
	})

	r.Register(EditorURL, 70, func(s schema.Schema) bool {
		return s.Type == schema.TypeString && strings.EqualFold(strings.TrimSpace(s.Format), "uri")
	})

	r.Register(EditorNumber, 60, func(s schema.Schema) bool {
		return s.Type.IsNumeric()
	})

	r.Register(EditorRepeater, 50, func(s schema.Schema) bool {
		return s.Type == schema.TypeArray
	})

	r.Register(EditorFieldset, 40, func(s schema.Schema) bool {
		return s.Type == schema.TypeObject
	})

	r.Register(EditorInput, 10, func(s schema.Schema) bool {
		return s.Type == schema.TypeString || s.Type == schema.TypeUnknown
	})
}
