package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/schema"
)

// Transformer mutates the decoded schema before the form is built.
type Transformer interface {
	Transform(ctx context.Context, s *schema.Schema) error
}

// TransformerFunc adapts a function into a Transformer.
type TransformerFunc func(ctx context.Context, s *schema.Schema) error

// Transform implements Transformer.
func (fn TransformerFunc) Transform(ctx context.Context, s *schema.Schema) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, s)
}

// PresetTransformer applies declarative patches keyed by property path, for
// example "owner/email" or "tags/items".
type PresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Properties map[string]propertyPatch `json:"properties" yaml:"properties"`
}

type propertyPatch struct {
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description" yaml:"description"`
	Widget      string         `json:"widget" yaml:"widget"`
	Editors     []string       `json:"editors" yaml:"editors"`
	Options     map[string]any `json:"options" yaml:"options"`
}

// NewPresetTransformer parses a JSON or YAML preset document.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	var err error
	if schema.DetectFormat(data) == schema.FormatYAML {
		err = yaml.Unmarshal(data, &document)
	} else {
		err = json.Unmarshal(data, &document)
	}
	if err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{document: document}, nil
}

// NewPresetTransformerFromFS loads a preset document from fsys.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform applies every patch. Paths are visited in sorted order and an
// unknown path fails the whole transform.
func (t *PresetTransformer) Transform(ctx context.Context, s *schema.Schema) error {
	if s == nil {
		return errors.New("preset transformer: schema is nil")
	}
	paths := make([]string, 0, len(t.document.Properties))
	for path := range t.document.Properties {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		segments := strings.Split(strings.Trim(path, "/"), "/")
		if err := patchAt(s, s, segments, t.document.Properties[path]); err != nil {
			return fmt.Errorf("preset transformer: %q: %w", path, err)
		}
	}
	return nil
}

// patchAt descends through properties and uniform items. Refs are inlined at
// the patched position so shared definitions stay untouched.
func patchAt(root, current *schema.Schema, segments []string, patch propertyPatch) error {
	if current.Ref != "" {
		resolved, err := schema.Deref(*current, *root)
		if err != nil {
			return err
		}
		if current == root && resolved.Definitions == nil {
			resolved.Definitions = root.Definitions
		}
		*current = resolved
	}
	if len(segments) == 0 || (len(segments) == 1 && segments[0] == "") {
		applyPatch(current, patch)
		return nil
	}

	head, rest := segments[0], segments[1:]
	if head == "items" && current.Items != nil && current.Items.Single != nil {
		child := *current.Items.Single
		if err := patchAt(root, &child, rest, patch); err != nil {
			return err
		}
		items := *current.Items
		items.Single = &child
		current.Items = &items
		return nil
	}

	child, ok := current.Properties[head]
	if !ok {
		return errors.New("property not found")
	}
	if err := patchAt(root, &child, rest, patch); err != nil {
		return err
	}
	properties := make(map[string]schema.Schema, len(current.Properties))
	for key, value := range current.Properties {
		properties[key] = value
	}
	properties[head] = child
	current.Properties = properties
	return nil
}

func applyPatch(s *schema.Schema, patch propertyPatch) {
	if patch.Title != "" {
		s.Title = patch.Title
	}
	if patch.Description != "" {
		s.Description = patch.Description
	}
	if patch.Widget == "" && len(patch.Editors) == 0 && len(patch.Options) == 0 {
		return
	}

	extensions := make(map[string]any, len(s.Extensions)+1)
	for key, value := range s.Extensions {
		extensions[key] = value
	}
	opt := make(map[string]any)
	if existing, ok := extensions[schema.OptionNamespace].(map[string]any); ok {
		for key, value := range existing {
			opt[key] = value
		}
	}
	if patch.Widget != "" {
		opt["widget"] = patch.Widget
	}
	if len(patch.Editors) > 0 {
		editors := make([]any, len(patch.Editors))
		for idx, name := range patch.Editors {
			editors[idx] = name
		}
		opt["editors"] = editors
	}
	if len(patch.Options) > 0 {
		option := make(map[string]any)
		if existing, ok := opt["option"].(map[string]any); ok {
			for key, value := range existing {
				option[key] = value
			}
		}
		for key, value := range patch.Options {
			option[key] = value
		}
		opt["option"] = option
	}
	extensions[schema.OptionNamespace] = opt
	s.Extensions = extensions
}
