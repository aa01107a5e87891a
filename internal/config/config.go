// Package config reads the optional YAML file accepted by the formstate CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/theme"
)

// Config mirrors the file layout. Flags given on the command line win over
// file values; see Merge.
type Config struct {
	Theme       string            `yaml:"theme"`
	Variant     string            `yaml:"variant"`
	Debug       bool              `yaml:"debug"`
	Format      string            `yaml:"format"`
	Component   string            `yaml:"component"`
	AllowHTTP   bool              `yaml:"allow_http"`
	HTTPTimeout time.Duration     `yaml:"http_timeout"`
	MaxBytes    int64             `yaml:"max_bytes"`
	Messages    map[string]string `yaml:"messages"`
	// Editors maps a schema type to the editor used for it.
	Editors map[string]string `yaml:"editors"`
	// Themes declares manifests selectable with -theme and -variant.
	Themes []ThemeManifest `yaml:"themes"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Format:      "json",
		HTTPTimeout: 10 * time.Second,
	}
}

// Load reads path. An empty path yields Default.
func Load(path string) (Config, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return Default(), nil
	}
	cleanPath = filepath.Clean(cleanPath)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", cleanPath, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document over Default and validates it.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the output format and editor type names.
func (c Config) Validate() error {
	switch c.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("unsupported format %q", c.Format)
	}
	if c.HTTPTimeout < 0 {
		return errors.New("http_timeout must not be negative")
	}
	for _, name := range sortedKeys(c.Editors) {
		if _, ok := schema.ParseType(name); !ok {
			return fmt.Errorf("editors: unknown type %q", name)
		}
	}
	seen := make(map[string]bool, len(c.Themes))
	for _, manifest := range c.Themes {
		name := strings.TrimSpace(manifest.Name)
		if name == "" {
			return errors.New("themes: name is required")
		}
		if seen[name] {
			return fmt.Errorf("themes: duplicate theme %q", name)
		}
		seen[name] = true
	}
	return nil
}

// ThemeOptions converts the message and editor overrides into theme options.
func (c Config) ThemeOptions() []theme.Option {
	var opts []theme.Option
	if len(c.Messages) > 0 {
		opts = append(opts, theme.WithMessageTemplates(c.Messages))
	}
	for _, name := range sortedKeys(c.Editors) {
		typ, ok := schema.ParseType(name)
		if !ok {
			continue
		}
		opts = append(opts, theme.WithComponent(typ, theme.Component{Editor: strings.TrimSpace(c.Editors[name])}))
	}
	return opts
}

// LoaderOptions enables HTTP sources and the size limit when configured.
func (c Config) LoaderOptions() []schema.LoaderOption {
	var opts []schema.LoaderOption
	if c.AllowHTTP {
		opts = append(opts, schema.WithHTTP(c.HTTPTimeout))
	}
	if c.MaxBytes > 0 {
		opts = append(opts, schema.WithMaxBytes(c.MaxBytes))
	}
	return opts
}

// Overrides holds flag values; empty strings and nil pointers leave the file
// value untouched.
type Overrides struct {
	Theme     string
	Variant   string
	Format    string
	Component string
	Debug     *bool
	AllowHTTP *bool
}

// Merge applies o over c and validates the result.
func (c Config) Merge(o Overrides) (Config, error) {
	out := c
	if o.Theme != "" {
		out.Theme = o.Theme
	}
	if o.Variant != "" {
		out.Variant = o.Variant
	}
	if o.Format != "" {
		out.Format = strings.ToLower(strings.TrimSpace(o.Format))
	}
	if o.Component != "" {
		out.Component = o.Component
	}
	if o.Debug != nil {
		out.Debug = *o.Debug
	}
	if o.AllowHTTP != nil {
		out.AllowHTTP = *o.AllowHTTP
	}
	if err := out.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return out, nil
}

func sortedKeys(in map[string]string) []string {
	keys := make([]string, 0, len(in))
	for key := range in {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
