package model

import "errors"

// ErrNotPermitted is returned when an operation is invoked on a nil handle or
// one without the matching callback.
var ErrNotPermitted = errors.New("model: operation not permitted")

// Capabilities are the per-item permissions computed for one pass.
type Capabilities struct {
	CanMoveUp   bool `json:"canMoveUp"`
	CanMoveDown bool `json:"canMoveDown"`
	CanRemove   bool `json:"canRemove"`
	CanAppend   bool `json:"canAppend"`
}

// Operations are the callbacks a Handle dispatches to.
type Operations struct {
	MoveUp   func() error
	MoveDown func() error
	Remove   func() error
	OnChange ChangeFunc
}

// Handle bundles the capabilities of one array item with its operations.
type Handle struct {
	Capabilities
	ops Operations
}

// NewHandle builds a handle. Capabilities describe what a renderer should
// offer; they do not gate the operations. Nil operations are treated as not
// permitted.
func NewHandle(caps Capabilities, ops Operations) *Handle {
	return &Handle{Capabilities: caps, ops: ops}
}

func (h *Handle) MoveUp() error {
	if h == nil || h.ops.MoveUp == nil {
		return ErrNotPermitted
	}
	return h.ops.MoveUp()
}

func (h *Handle) MoveDown() error {
	if h == nil || h.ops.MoveDown == nil {
		return ErrNotPermitted
	}
	return h.ops.MoveDown()
}

func (h *Handle) Remove() error {
	if h == nil || h.ops.Remove == nil {
		return ErrNotPermitted
	}
	return h.ops.Remove()
}

// OnChange forwards a new value for the position the handle belongs to.
func (h *Handle) OnChange(v any, meta ChangeMeta) error {
	if h == nil || h.ops.OnChange == nil {
		return ErrNotPermitted
	}
	return h.ops.OnChange(v, meta)
}
