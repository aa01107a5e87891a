package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Root holds the top-level value of a form so the root position can be
// addressed with a Ref like any nested position.
type Root struct {
	value   any
	defined bool
}

// NewRoot wraps an initial value. A nil value counts as defined JSON null.
func NewRoot(v any) *Root {
	return &Root{value: v, defined: true}
}

// NewUndefinedRoot returns a root with no value at all.
func NewUndefinedRoot() *Root {
	return &Root{}
}

// Value returns the current top-level value.
func (r *Root) Value() (any, bool) {
	if r == nil {
		return nil, false
	}
	return r.value, r.defined
}

// Replace swaps the top-level value.
func (r *Root) Replace(v any) {
	if r == nil {
		return
	}
	r.value = v
	r.defined = true
}

// Ref is a non-owning reference to one position of the caller's value tree:
// a container (map[string]any, []any or *Root) and the key inside it.
type Ref struct {
	Container any
	Key       any
}

// RootRef addresses the top-level value held by root.
func RootRef(root *Root) Ref {
	return Ref{Container: root}
}

// Get dereferences the position. The boolean is false when the position does
// not exist (an absent map key or an out-of-range index).
func (r Ref) Get() (any, bool) {
	switch container := r.Container.(type) {
	case *Root:
		return container.Value()
	case map[string]any:
		key, ok := r.Key.(string)
		if !ok || container == nil {
			return nil, false
		}
		v, ok := container[key]
		return v, ok
	case []any:
		idx, ok := r.Key.(int)
		if !ok || idx < 0 || idx >= len(container) {
			return nil, false
		}
		return container[idx], true
	default:
		return nil, false
	}
}

// Set writes v at the referenced position. Slices are written in place, so
// the index must already exist.
func (r Ref) Set(v any) error {
	switch container := r.Container.(type) {
	case *Root:
		if container == nil {
			return fmt.Errorf("value: root is nil")
		}
		container.Replace(v)
		return nil
	case map[string]any:
		key, ok := r.Key.(string)
		if !ok {
			return fmt.Errorf("value: map key must be a string, got %T", r.Key)
		}
		if container == nil {
			return fmt.Errorf("value: map container is nil")
		}
		container[key] = v
		return nil
	case []any:
		idx, ok := r.Key.(int)
		if !ok {
			return fmt.Errorf("value: slice key must be an int, got %T", r.Key)
		}
		if idx < 0 || idx >= len(container) {
			return fmt.Errorf("value: index %d out of range [0,%d)", idx, len(container))
		}
		container[idx] = v
		return nil
	default:
		return fmt.Errorf("value: unsupported container %T", r.Container)
	}
}

// JoinPath appends key to the parent value path.
func JoinPath(parent string, key any) string {
	switch k := key.(type) {
	case int:
		return parent + "/" + strconv.Itoa(k)
	case string:
		return parent + "/" + k
	default:
		return parent + "/" + fmt.Sprint(k)
	}
}

// Lookup resolves a value path ("/a/0/b") against a value tree.
func Lookup(root any, path string) (any, bool) {
	current := root
	if strings.Trim(path, "/") == "" {
		return current, true
	}
	for _, segment := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Snapshot deep-copies maps and slices so callers can hand out a read-only
// view of the value tree.
func Snapshot(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, child := range typed {
			clone[k] = Snapshot(child)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, child := range typed {
			clone[i] = Snapshot(child)
		}
		return clone
	default:
		return typed
	}
}
