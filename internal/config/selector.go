package config

import (
	"fmt"
	"strings"

	gotheme "github.com/goliatone/go-theme"
)

// ThemeManifest is the file form of a go-theme manifest. Tokens prefixed with
// "messages." override message templates; templates prefixed with "editors."
// name the editor of a schema type.
type ThemeManifest struct {
	Name      string                  `yaml:"name"`
	Version   string                  `yaml:"version"`
	Tokens    map[string]string       `yaml:"tokens"`
	Templates map[string]string       `yaml:"templates"`
	Variants  map[string]ThemeVariant `yaml:"variants"`
}

// ThemeVariant layers tokens and templates over its manifest.
type ThemeVariant struct {
	Tokens    map[string]string `yaml:"tokens"`
	Templates map[string]string `yaml:"templates"`
}

func (m ThemeManifest) manifest() *gotheme.Manifest {
	out := &gotheme.Manifest{
		Name:      m.Name,
		Version:   m.Version,
		Tokens:    m.Tokens,
		Templates: m.Templates,
	}
	if len(m.Variants) > 0 {
		out.Variants = make(map[string]gotheme.Variant, len(m.Variants))
		for name, variant := range m.Variants {
			out.Variants[name] = gotheme.Variant{Tokens: variant.Tokens, Templates: variant.Templates}
		}
	}
	return out
}

// Selector serves the declared themes. It is nil when the file declares none.
func (c Config) Selector() gotheme.ThemeSelector {
	if len(c.Themes) == 0 {
		return nil
	}
	return staticSelector{themes: c.Themes}
}

type staticSelector struct {
	themes []ThemeManifest
}

// Select picks the named theme, or the first one when name is empty. An
// unknown variant is an error; an empty variant uses the manifest as is.
func (s staticSelector) Select(name, variant string, _ ...gotheme.QueryOption) (*gotheme.Selection, error) {
	name = strings.TrimSpace(name)
	for _, manifest := range s.themes {
		if name != "" && manifest.Name != name {
			continue
		}
		if variant != "" {
			if _, ok := manifest.Variants[variant]; !ok {
				return nil, fmt.Errorf("config: theme %q has no variant %q", manifest.Name, variant)
			}
		}
		return &gotheme.Selection{Theme: manifest.Name, Variant: variant, Manifest: manifest.manifest()}, nil
	}
	return nil, fmt.Errorf("config: theme %q not declared", name)
}
