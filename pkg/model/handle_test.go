package model

import (
	"errors"
	"testing"

	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/google/go-cmp/cmp"
)

func TestHandle_CapabilitiesDoNotGateOperations(t *testing.T) {
	var calls []string
	ops := Operations{
		MoveUp:   func() error { calls = append(calls, "up"); return nil },
		MoveDown: func() error { calls = append(calls, "down"); return nil },
		Remove:   func() error { calls = append(calls, "remove"); return nil },
	}

	for _, caps := range []Capabilities{{}, {CanMoveUp: true, CanMoveDown: true, CanRemove: true}} {
		h := NewHandle(caps, ops)
		for name, op := range map[string]func() error{
			"moveUp":   h.MoveUp,
			"moveDown": h.MoveDown,
			"remove":   h.Remove,
		} {
			if err := op(); err != nil {
				t.Fatalf("%s with %+v: unexpected error %v", name, caps, err)
			}
		}
	}
	if len(calls) != 6 {
		t.Fatalf("expected every operation to dispatch, got %v", calls)
	}
}

func TestHandle_NilSafe(t *testing.T) {
	var h *Handle
	if err := h.Remove(); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("expected ErrNotPermitted, got %v", err)
	}
	if err := NewHandle(Capabilities{CanRemove: true}, Operations{}).Remove(); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("missing op should not be permitted, got %v", err)
	}
	if err := h.OnChange("x", ChangeMeta{}); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("expected ErrNotPermitted, got %v", err)
	}
}

func TestHandle_OnChangeForwardsMeta(t *testing.T) {
	var gotValue any
	var gotMeta ChangeMeta
	h := NewHandle(Capabilities{}, Operations{OnChange: func(v any, meta ChangeMeta) error {
		gotValue, gotMeta = v, meta
		return nil
	}})
	meta := ChangeMeta{Extra: map[string]any{"source": "keyboard"}}
	if err := h.OnChange("next", meta); err != nil {
		t.Fatalf("on change: %v", err)
	}
	if gotValue != "next" {
		t.Fatalf("unexpected value %v", gotValue)
	}
	if diff := cmp.Diff(meta, gotMeta); diff != "" {
		t.Fatalf("meta mismatch (-want +got):\n%s", diff)
	}
}

func TestNode_FindAndWalk(t *testing.T) {
	zero := 0
	tree := &Node{Path: "", Type: schema.TypeObject, Children: []*Node{
		{Path: "/tags", Type: schema.TypeArray, Children: []*Node{
			{Path: "/tags/0", Index: &zero},
		}},
		{Path: "/name", Type: schema.TypeString},
	}}

	var paths []string
	tree.Walk(func(n *Node) { paths = append(paths, n.Path) })
	if diff := cmp.Diff([]string{"", "/tags", "/tags/0", "/name"}, paths); diff != "" {
		t.Fatalf("walk order mismatch (-want +got):\n%s", diff)
	}
	if got := tree.Find("/tags/0"); got == nil || got.Index == nil || *got.Index != 0 {
		t.Fatalf("expected to find /tags/0, got %+v", got)
	}
	if tree.Find("/missing") != nil {
		t.Fatalf("expected nil for unknown path")
	}
}
