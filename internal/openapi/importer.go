// Package openapi converts OpenAPI component schemas into form schemas.
// Components become definitions and references between them are kept as
// `#/definitions/<name>` refs, so recursive components stay finite.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formstate/pkg/schema"
)

const componentPrefix = "#/components/schemas/"

// Extension keys accepted on OpenAPI schemas in place of the `$vf_opt` and
// `$vf_ext` namespaces, which OpenAPI does not allow.
const (
	OptionExtension    = "x-vf-opt"
	ExtensionExtension = "x-vf-ext"
)

// Options tunes the import.
type Options struct {
	// Validate runs the kin-openapi document validation before converting.
	Validate bool
}

// Importer loads OpenAPI documents with kin-openapi.
type Importer struct {
	options Options
}

// New constructs an Importer.
func New(options Options) *Importer {
	return &Importer{options: options}
}

// Components lists the component schema names of raw, sorted.
func (i *Importer) Components(ctx context.Context, raw []byte) ([]string, error) {
	spec, err := i.load(ctx, raw)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(spec.Components.Schemas))
	for name := range spec.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Import converts components.schemas.<component> into a schema whose
// definitions hold every component of the document.
func (i *Importer) Import(ctx context.Context, raw []byte, component string) (schema.Schema, error) {
	spec, err := i.load(ctx, raw)
	if err != nil {
		return schema.Schema{}, err
	}
	component = strings.TrimSpace(component)
	if component == "" {
		return schema.Schema{}, errors.New("openapi: component name is required")
	}
	target, ok := spec.Components.Schemas[component]
	if !ok || target == nil {
		return schema.Schema{}, fmt.Errorf("openapi: component %q not found", component)
	}

	c := converter{}
	definitions := make(map[string]any, len(spec.Components.Schemas))
	for name, ref := range spec.Components.Schemas {
		payload, err := c.convertValue(ref, componentPrefix+name)
		if err != nil {
			return schema.Schema{}, err
		}
		definitions[name] = payload
	}

	root, err := c.convertValue(target, componentPrefix+component)
	if err != nil {
		return schema.Schema{}, err
	}
	root["definitions"] = definitions

	out, err := schema.Decode(root)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("openapi: component %q: %w", component, err)
	}
	return out, nil
}

func (i *Importer) load(ctx context.Context, raw []byte) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if i.options.Validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	if spec.Components == nil || len(spec.Components.Schemas) == 0 {
		return nil, errors.New("openapi: document has no component schemas")
	}
	return spec, nil
}

type converter struct {
	inlining map[*openapi3.Schema]bool
}

// convert turns a schema reference into a JSON Schema payload. References to
// components are rewritten rather than inlined.
func (c *converter) convert(ref *openapi3.SchemaRef, path string) (map[string]any, error) {
	if ref == nil {
		return map[string]any{}, nil
	}
	if name, ok := strings.CutPrefix(ref.Ref, componentPrefix); ok {
		return map[string]any{"$ref": "#/definitions/" + name}, nil
	}
	return c.convertValue(ref, path)
}

func (c *converter) convertValue(ref *openapi3.SchemaRef, path string) (map[string]any, error) {
	src := ref.Value
	if src == nil {
		return nil, fmt.Errorf("openapi: unresolved reference %q at %s", ref.Ref, path)
	}
	if c.inlining == nil {
		c.inlining = make(map[*openapi3.Schema]bool)
	}
	if c.inlining[src] {
		return nil, fmt.Errorf("openapi: recursive inline schema at %s", path)
	}
	c.inlining[src] = true
	defer delete(c.inlining, src)

	out := make(map[string]any)
	if typ := schemaType(src.Type, src.Nullable); typ != nil {
		out["type"] = typ
	}
	setString(out, "title", src.Title)
	setString(out, "description", src.Description)
	setString(out, "format", src.Format)
	setString(out, "pattern", src.Pattern)
	if src.Default != nil {
		out["default"] = src.Default
	}
	if len(src.Enum) > 0 {
		out["enum"] = append([]any(nil), src.Enum...)
	}
	if src.MinLength != 0 {
		out["minLength"] = float64(src.MinLength)
	}
	if src.MaxLength != nil {
		out["maxLength"] = float64(*src.MaxLength)
	}
	if src.MinItems != 0 {
		out["minItems"] = float64(src.MinItems)
	}
	if src.MaxItems != nil {
		out["maxItems"] = float64(*src.MaxItems)
	}
	if src.Min != nil {
		out["minimum"] = *src.Min
	}
	if src.Max != nil {
		out["maximum"] = *src.Max
	}
	if src.MultipleOf != nil {
		out["multipleOf"] = *src.MultipleOf
	}
	if src.UniqueItems {
		out["uniqueItems"] = true
	}
	if len(src.Required) > 0 {
		required := make([]any, 0, len(src.Required))
		for _, name := range src.Required {
			required = append(required, name)
		}
		out["required"] = required
	}
	if len(src.Properties) > 0 {
		properties := make(map[string]any, len(src.Properties))
		for name, property := range src.Properties {
			converted, err := c.convert(property, path+"/properties/"+name)
			if err != nil {
				return nil, err
			}
			properties[name] = converted
		}
		out["properties"] = properties
	}
	if src.Items != nil {
		items, err := c.convert(src.Items, path+"/items")
		if err != nil {
			return nil, err
		}
		out["items"] = items
	}
	for key, value := range src.Extensions {
		switch key {
		case OptionExtension:
			out[schema.OptionNamespace] = value
		case ExtensionExtension:
			out[schema.ExtensionNamespace] = value
		default:
			if strings.HasPrefix(key, "x-") {
				out[key] = value
			}
		}
	}
	return out, nil
}

func schemaType(types *openapi3.Types, nullable bool) any {
	if types == nil {
		return nil
	}
	values := types.Slice()
	switch {
	case len(values) == 0:
		return nil
	case len(values) == 1 && !nullable:
		return values[0]
	}
	out := make([]any, 0, len(values)+1)
	for _, value := range values {
		out = append(out, value)
	}
	if nullable {
		out = append(out, "null")
	}
	return out
}

func setString(out map[string]any, key, value string) {
	if value != "" {
		out[key] = value
	}
}
