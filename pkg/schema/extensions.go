package schema

import (
	"sort"
	"strings"
)

// ArrayOptions are the structural permissions a schema grants to the items
// of an array. Defaults allow ordering, adding and removing; appending must be
// opted into through `$vf_opt/option`.
type ArrayOptions struct {
	Orderable  bool `json:"orderable"`
	Addable    bool `json:"addable"`
	Removable  bool `json:"removable"`
	Appendable bool `json:"appendable"`
}

// DefaultArrayOptions returns the permissions used when a schema is silent.
func DefaultArrayOptions() ArrayOptions {
	return ArrayOptions{Orderable: true, Addable: true, Removable: true}
}

// RuleConfig is one entry of the `$vf_ext/validate` block.
type RuleConfig struct {
	Name  string
	Value any
}

// Extension resolves a `/` separated path inside the schema extensions, for
// example "$vf_opt/option".
func (s Schema) Extension(path string) (any, bool) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" || s.Extensions == nil {
		return nil, false
	}
	current, ok := s.Extensions[segments[0]]
	if !ok {
		return nil, false
	}
	for _, segment := range segments[1:] {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// ArrayOptions merges `$vf_opt/option` over the defaults. Non-boolean entries
// are ignored.
func (s Schema) ArrayOptions() ArrayOptions {
	opts := DefaultArrayOptions()
	raw, ok := s.Extension(OptionNamespace + "/option")
	if !ok {
		return opts
	}
	values, ok := raw.(map[string]any)
	if !ok {
		return opts
	}
	assign := func(key string, target *bool) {
		if flag, ok := values[key].(bool); ok {
			*target = flag
		}
	}
	assign("orderable", &opts.Orderable)
	assign("addable", &opts.Addable)
	assign("removable", &opts.Removable)
	assign("appendable", &opts.Appendable)
	return opts
}

// ValidatorRules lists the custom rules configured under `$vf_ext/validate`,
// sorted by rule name.
func (s Schema) ValidatorRules() []RuleConfig {
	raw, ok := s.Extension(ExtensionNamespace + "/validate")
	if !ok {
		return nil
	}
	values, ok := raw.(map[string]any)
	if !ok || len(values) == 0 {
		return nil
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]RuleConfig, 0, len(names))
	for _, name := range names {
		out = append(out, RuleConfig{Name: name, Value: values[name]})
	}
	return out
}

// Widget returns the explicit editor hint under `$vf_opt/widget`.
func (s Schema) Widget() string {
	raw, ok := s.Extension(OptionNamespace + "/widget")
	if !ok {
		return ""
	}
	name, _ := raw.(string)
	return strings.TrimSpace(name)
}

// Editors returns the per-index editor overrides declared for array items
// under `$vf_opt/editors`.
func (s Schema) Editors() []string {
	raw, ok := s.Extension(OptionNamespace + "/editors")
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, len(list))
	for idx, entry := range list {
		name, _ := entry.(string)
		out[idx] = strings.TrimSpace(name)
	}
	return out
}

// EditorFor picks the override for one array index. Indices past the end of
// the list have no override.
func EditorFor(editors []string, index int) string {
	if index < 0 || index >= len(editors) {
		return ""
	}
	return editors[index]
}
