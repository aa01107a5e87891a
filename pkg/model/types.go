package model

import (
	"github.com/goliatone/go-formstate/pkg/schema"
)

// FormUpdate tags engine-initiated changes.
type FormUpdate string

const (
	FormUpdateNone     FormUpdate = ""
	FormUpdateMoveUp   FormUpdate = "moveUp"
	FormUpdateMoveDown FormUpdate = "moveDown"
	FormUpdateRemove   FormUpdate = "remove"
)

// ChangeMeta accompanies every change notification. FormUpdate is empty for
// plain value edits; Extra is passed through untouched.
type ChangeMeta struct {
	FormUpdate FormUpdate     `json:"formUpdate,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// ChangeFunc receives the new value of a position and its metadata.
type ChangeFunc func(value any, meta ChangeMeta) error

// Node is one entry of the render description.
type Node struct {
	Path        string               `json:"path"`
	Type        schema.Type          `json:"type,omitempty"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
	Editor      string               `json:"editor,omitempty"`
	Required    bool                 `json:"required,omitempty"`
	Value       any                  `json:"value,omitempty"`
	Defined     bool                 `json:"defined"`
	Key         string               `json:"key,omitempty"`
	Index       *int                 `json:"index,omitempty"`
	Options     *schema.ArrayOptions `json:"options,omitempty"`
	Trace       string               `json:"trace,omitempty"`
	Handle      *Handle              `json:"handle,omitempty"`
	Children    []*Node              `json:"children,omitempty"`
}

// Walk visits n and its descendants depth first.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil || fn == nil {
		return
	}
	fn(n)
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Find returns the node rendered at path.
func (n *Node) Find(path string) *Node {
	var found *Node
	n.Walk(func(candidate *Node) {
		if found == nil && candidate.Path == path {
			found = candidate
		}
	})
	return found
}
