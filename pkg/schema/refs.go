package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const defaultMaxRefDepth = 64

// ErrUnresolvedRef reports a `$ref` that does not point inside the root schema.
var ErrUnresolvedRef = errors.New("schema: unresolved $ref")

// Lookup resolves a local JSON pointer (`#/definitions/x`,
// `#/properties/a/items/0`) against the root schema.
func Lookup(root Schema, pointer string) (Schema, error) {
	pointer = strings.TrimSpace(pointer)
	if pointer == "" || pointer == "#" {
		return root, nil
	}
	if !strings.HasPrefix(pointer, "#/") {
		return Schema{}, fmt.Errorf("%w: only local refs are supported, got %q", ErrUnresolvedRef, pointer)
	}

	current := root
	segments := strings.Split(strings.TrimPrefix(pointer, "#/"), "/")
	for idx := 0; idx < len(segments); idx++ {
		segment := unescapeJSONPointer(segments[idx])
		switch segment {
		case "definitions", "$defs":
			idx++
			if idx >= len(segments) {
				return Schema{}, fmt.Errorf("%w: %s", ErrUnresolvedRef, pointer)
			}
			child, ok := current.Definitions[unescapeJSONPointer(segments[idx])]
			if !ok {
				return Schema{}, fmt.Errorf("%w: %s", ErrUnresolvedRef, pointer)
			}
			current = child
		case "properties":
			idx++
			if idx >= len(segments) {
				return Schema{}, fmt.Errorf("%w: %s", ErrUnresolvedRef, pointer)
			}
			child, ok := current.Properties[unescapeJSONPointer(segments[idx])]
			if !ok {
				return Schema{}, fmt.Errorf("%w: %s", ErrUnresolvedRef, pointer)
			}
			current = child
		case "items":
			if current.Items == nil {
				return Schema{}, fmt.Errorf("%w: %s", ErrUnresolvedRef, pointer)
			}
			if !current.Items.IsTuple() {
				if current.Items.Single == nil {
					return Schema{}, fmt.Errorf("%w: %s", ErrUnresolvedRef, pointer)
				}
				current = *current.Items.Single
				continue
			}
			idx++
			if idx >= len(segments) {
				return Schema{}, fmt.Errorf("%w: %s", ErrUnresolvedRef, pointer)
			}
			pos, err := strconv.Atoi(segments[idx])
			if err != nil || pos < 0 || pos >= len(current.Items.Tuple) {
				return Schema{}, fmt.Errorf("%w: %s", ErrUnresolvedRef, pointer)
			}
			current = current.Items.Tuple[pos]
		case "additionalItems":
			if current.Items == nil || current.Items.Additional == nil {
				return Schema{}, fmt.Errorf("%w: %s", ErrUnresolvedRef, pointer)
			}
			current = *current.Items.Additional
		default:
			return Schema{}, fmt.Errorf("%w: unsupported segment %q in %s", ErrUnresolvedRef, segment, pointer)
		}
	}
	return current, nil
}

// Deref follows a `$ref` chain until it reaches a concrete schema. Title and
// description declared next to a `$ref` win over the target's.
func Deref(s Schema, root Schema) (Schema, error) {
	seen := make(map[string]struct{})
	current := s
	for depth := 0; current.Ref != ""; depth++ {
		if depth >= defaultMaxRefDepth {
			return Schema{}, fmt.Errorf("schema: ref depth exceeds %d", defaultMaxRefDepth)
		}
		if _, ok := seen[current.Ref]; ok {
			return Schema{}, fmt.Errorf("schema: ref cycle detected at %s", current.Ref)
		}
		seen[current.Ref] = struct{}{}

		target, err := Lookup(root, current.Ref)
		if err != nil {
			return Schema{}, err
		}
		if current.Title != "" {
			target.Title = current.Title
		}
		if current.Description != "" {
			target.Description = current.Description
		}
		if len(current.Extensions) > 0 {
			target.Extensions = mergeExtensions(target.Extensions, current.Extensions)
		}
		current = target
	}
	return current, nil
}

// ItemSchema resolves the schema for one array index: tuple entries first,
// then `additionalItems`, then the uniform `items` schema. The boolean is
// false when no schema applies to the index.
func ItemSchema(array Schema, index int, root Schema) (Schema, bool) {
	items := array.Items
	if items == nil || index < 0 {
		return Schema{}, false
	}

	var candidate *Schema
	switch {
	case items.IsTuple():
		if index < len(items.Tuple) {
			candidate = &items.Tuple[index]
		} else {
			candidate = items.Additional
		}
	default:
		candidate = items.Single
	}
	if candidate == nil {
		return Schema{}, false
	}

	resolved, err := Deref(*candidate, root)
	if err != nil {
		return Schema{}, false
	}
	return resolved, true
}

func mergeExtensions(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range overlay {
		out[key] = value
	}
	return out
}
