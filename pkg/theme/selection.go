package theme

import (
	"fmt"
	"strings"

	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formstate/pkg/schema"
)

// Manifest keys read from a theme selection.
const (
	// EditorTemplatePrefix prefixes manifest templates naming the editor of a
	// schema type, for example "editors.boolean".
	EditorTemplatePrefix = "editors."
	// MessageTokenPrefix prefixes manifest tokens holding message templates,
	// for example "messages.required".
	MessageTokenPrefix = "messages."
)

// FromSelection builds a cache from a go-theme selection. Variant templates
// and tokens are layered over the manifest's. Explicit opts are applied after
// the selection so callers can still override single entries.
func FromSelection(selection *gotheme.Selection, opts ...Option) (*Cache, error) {
	if selection == nil || selection.Manifest == nil {
		return New(opts...)
	}
	templates, tokens := flatten(selection)

	derived := []Option{func(c *Cache) {
		c.name = selection.Theme
		c.variant = selection.Variant
	}}
	messageTemplates := make(map[string]string)
	for key, source := range tokens {
		if rule, ok := strings.CutPrefix(key, MessageTokenPrefix); ok && rule != "" {
			messageTemplates[rule] = source
		}
	}
	if len(messageTemplates) > 0 {
		derived = append(derived, WithMessageTemplates(messageTemplates))
	}
	for key, editor := range templates {
		name, ok := strings.CutPrefix(key, EditorTemplatePrefix)
		if !ok {
			continue
		}
		typ, ok := schema.ParseType(name)
		if !ok {
			return nil, fmt.Errorf("theme: %s %q names an unknown type", selection.Theme, key)
		}
		derived = append(derived, WithComponent(typ, Component{Editor: strings.TrimSpace(editor)}))
	}

	cache, err := New(append(derived, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("theme: %s: %w", selection.Theme, err)
	}
	return cache, nil
}

// Resolve asks selector for name/variant and builds the matching cache. A nil
// selector yields the default cache.
func Resolve(selector gotheme.ThemeSelector, name, variant string, opts ...Option) (*Cache, error) {
	if selector == nil {
		return New(opts...)
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("theme: select %q/%q: %w", name, variant, err)
	}
	return FromSelection(selection, opts...)
}

func flatten(selection *gotheme.Selection) (templates, tokens map[string]string) {
	manifest := selection.Manifest
	templates = copyStringMap(manifest.Templates)
	tokens = copyStringMap(manifest.Tokens)
	if variant, ok := manifest.Variants[selection.Variant]; ok {
		for key, value := range variant.Templates {
			templates[key] = value
		}
		for key, value := range variant.Tokens {
			tokens[key] = value
		}
	}
	return templates, tokens
}

func copyStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
