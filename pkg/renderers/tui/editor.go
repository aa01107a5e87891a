// Package tui edits a form from the terminal. Every change goes through the
// node handles produced by a render pass and is followed by a new pass, so
// permissions and messages always reflect the current value.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/pkg/array"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/messages"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/schema"
)

const (
	// EditorTextArea selects a multi-line prompt for strings.
	EditorTextArea = "textarea"
	// ExtraAction is the ChangeMeta.Extra key set on appends.
	ExtraAction = "action"
)

// Editor walks a rendered form and prompts for every position.
type Editor struct {
	driver       PromptDriver
	theme        Theme
	logger       *slog.Logger
	retryInvalid bool
}

// New constructs an Editor with the survey driver unless overridden.
func New(options ...Option) *Editor {
	e := &Editor{
		theme:        DefaultTheme(),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		retryInvalid: true,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	if e.driver == nil {
		e.driver = NewSurveyDriver(nil)
	}
	return e
}

// Edit renders f and prompts for every node in tree order. The form keeps the
// edited value; callers read it back through f.Value and f.Errors.
func (e *Editor) Edit(ctx context.Context, f *form.Form) error {
	if f == nil {
		return ErrNoForm
	}
	if ctx == nil {
		return errors.New("tui: context is required")
	}
	if _, err := f.Render(); err != nil {
		return err
	}
	s := session{editor: e, form: f}
	return s.edit(ctx, "")
}

type session struct {
	editor *Editor
	form   *form.Form
}

func (s *session) node(path string) *model.Node {
	tree := s.form.Tree()
	if tree == nil {
		return nil
	}
	return tree.Find(path)
}

func (s *session) schema(path string) schema.Schema {
	resolved, _ := schemaAt(s.form.Schema(), path)
	return resolved
}

// apply hands v to the node at path and starts a new pass.
func (s *session) apply(path string, v any, meta model.ChangeMeta) error {
	node := s.node(path)
	if node == nil || node.Handle == nil {
		return fmt.Errorf("tui: no handle at %q", path)
	}
	if err := node.Handle.OnChange(v, meta); err != nil {
		return fmt.Errorf("tui: change %q: %w", path, err)
	}
	_, err := s.form.Render()
	return err
}

func (s *session) edit(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	node := s.node(path)
	if node == nil {
		return nil
	}
	s.editor.logger.Debug("edit node", "path", path, "type", node.Type)

	switch node.Type {
	case schema.TypeObject:
		return s.editObject(ctx, node)
	case schema.TypeArray:
		return s.editArray(ctx, path)
	default:
		return s.editScalar(ctx, path)
	}
}

func (s *session) editObject(ctx context.Context, node *model.Node) error {
	paths := make([]string, 0, len(node.Children))
	for _, child := range node.Children {
		paths = append(paths, child.Path)
	}
	for _, path := range paths {
		if err := s.edit(ctx, path); err != nil {
			return err
		}
	}
	return s.report(ctx, node.Path)
}

func (s *session) editScalar(ctx context.Context, path string) error {
	if err := s.report(ctx, path); err != nil {
		return err
	}
	for {
		changed, err := s.promptScalar(ctx, path)
		if err != nil {
			return err
		}
		if !changed || len(s.messages(path)) == 0 {
			return nil
		}
		if err := s.report(ctx, path); err != nil {
			return err
		}
		if !s.editor.retryInvalid {
			return nil
		}
		again, err := s.editor.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("%s is invalid. Edit again?", label(s.node(path))),
			Default: true,
		})
		if err != nil || !again {
			return err
		}
	}
}

// promptScalar asks for one primitive value. It reports whether the value
// was changed.
func (s *session) promptScalar(ctx context.Context, path string) (bool, error) {
	node := s.node(path)
	sch := s.schema(path)
	driver := s.editor.driver
	message := label(node) + s.requiredMark(node)

	if len(sch.Enum) > 0 {
		options := make([]string, len(sch.Enum))
		current := 0
		for idx, entry := range sch.Enum {
			options[idx] = fmt.Sprint(entry)
			if node.Defined && fmt.Sprint(node.Value) == options[idx] {
				current = idx
			}
		}
		idx, err := driver.Select(ctx, SelectConfig{Message: message, Options: options, DefaultIndex: current, Help: node.Description})
		if err != nil {
			return false, err
		}
		if idx < 0 || idx >= len(sch.Enum) {
			return false, nil
		}
		return true, s.apply(path, sch.Enum[idx], model.ChangeMeta{})
	}

	if node.Type == schema.TypeBoolean {
		current, _ := node.Value.(bool)
		answer, err := driver.Confirm(ctx, ConfirmConfig{Message: message, Default: current, Help: node.Description})
		if err != nil {
			return false, err
		}
		return true, s.apply(path, answer, model.ChangeMeta{})
	}

	current := ""
	if node.Defined && node.Value != nil {
		current = fmt.Sprint(node.Value)
	}
	var (
		answer string
		err    error
	)
	switch {
	case node.Type.IsNumeric():
		answer, err = driver.Input(ctx, InputConfig{
			Message:   message,
			Default:   current,
			Help:      node.Description,
			Validator: numberValidator(node.Type),
		})
	case sch.Format == "password":
		answer, err = driver.Password(ctx, InputConfig{Message: message, Help: node.Description})
	case node.Editor == EditorTextArea:
		answer, err = driver.TextArea(ctx, TextAreaConfig{Message: message, Default: current, Help: node.Description})
	default:
		answer, err = driver.Input(ctx, InputConfig{Message: message, Default: current, Help: node.Description})
	}
	if err != nil {
		return false, err
	}

	if strings.TrimSpace(answer) == "" && !node.Defined {
		return false, nil
	}
	if answer == current && node.Defined {
		return false, nil
	}
	v, err := coerce(node.Type, answer)
	if err != nil {
		if infoErr := s.info(ctx, s.editor.theme.ErrorPrefix+err.Error()); infoErr != nil {
			return false, infoErr
		}
		return false, nil
	}
	return true, s.apply(path, v, model.ChangeMeta{})
}

type arrayAction struct {
	label string
	run   func() error
}

func (s *session) editArray(ctx context.Context, path string) error {
	for {
		if err := s.report(ctx, path); err != nil {
			return err
		}
		node := s.node(path)
		if node == nil {
			return nil
		}

		actions := s.arrayActions(ctx, node)
		options := make([]string, len(actions))
		for idx, action := range actions {
			options[idx] = action.label
		}
		idx, err := s.editor.driver.Select(ctx, SelectConfig{
			Message:      label(node),
			Options:      options,
			DefaultIndex: len(options) - 1,
			Help:         node.Description,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(actions) || actions[idx].run == nil {
			return nil
		}
		if err := actions[idx].run(); err != nil {
			return err
		}
	}
}

// arrayActions lists what the handles of the current pass allow. The last
// entry always ends the loop.
func (s *session) arrayActions(ctx context.Context, node *model.Node) []arrayAction {
	var actions []arrayAction
	for _, child := range node.Children {
		child := child
		name := itemLabel(child)
		childPath := child.Path
		actions = append(actions, arrayAction{
			label: "Edit " + name,
			run:   func() error { return s.edit(ctx, childPath) },
		})
		handle := child.Handle
		if handle == nil {
			continue
		}
		if handle.CanMoveUp {
			actions = append(actions, arrayAction{label: "Move " + name + " up", run: s.structural(handle.MoveUp)})
		}
		if handle.CanMoveDown {
			actions = append(actions, arrayAction{label: "Move " + name + " down", run: s.structural(handle.MoveDown)})
		}
		if handle.CanRemove {
			actions = append(actions, arrayAction{label: "Remove " + name, run: s.structural(handle.Remove)})
		}
	}
	if s.canAppend(node) {
		path := node.Path
		actions = append(actions, arrayAction{label: "Append item", run: func() error { return s.append(path) }})
	}
	return append(actions, arrayAction{label: "Done"})
}

func (s *session) structural(op func() error) func() error {
	return func() error {
		if err := op(); err != nil {
			return err
		}
		_, err := s.form.Render()
		return err
	}
}

// append adds the item schema's default (or its type's zero value) at the
// end of the array.
func (s *session) append(path string) error {
	node := s.node(path)
	if node == nil {
		return nil
	}
	list, _ := node.Value.([]any)
	next := make([]any, len(list), len(list)+1)
	copy(next, list)

	arraySchema := s.schema(path)
	item, _ := schema.ItemSchema(arraySchema, len(list), s.form.Schema())
	item, err := schema.Deref(item, s.form.Schema())
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	next = append(next, initialValue(item))
	return s.apply(path, next, model.ChangeMeta{Extra: map[string]any{ExtraAction: "append"}})
}

// canAppend reads the array-wide capability from the first item, or computes
// it from the array schema when the array is empty.
func (s *session) canAppend(node *model.Node) bool {
	for _, child := range node.Children {
		if child.Handle != nil {
			return child.Handle.CanAppend
		}
	}
	return array.Permissions(s.schema(node.Path), 0, 0).CanAppend
}

func (s *session) messages(path string) []string {
	entry, ok := s.form.ErrorsFor(path)
	if !ok {
		return nil
	}
	switch typed := entry.(type) {
	case messages.ErrorObject:
		return typed.Issues.Messages()
	case error:
		return []string{typed.Error()}
	default:
		return []string{fmt.Sprint(typed)}
	}
}

func (s *session) report(ctx context.Context, path string) error {
	for _, msg := range s.messages(path) {
		if err := s.info(ctx, s.editor.theme.ErrorPrefix+msg); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) info(ctx context.Context, msg string) error {
	return s.editor.driver.Info(ctx, s.editor.theme.InfoPrefix+msg)
}

func (s *session) requiredMark(node *model.Node) string {
	if node != nil && node.Required {
		return s.editor.theme.RequiredSuffix
	}
	return ""
}

func label(node *model.Node) string {
	switch {
	case node == nil:
		return ""
	case node.Title != "":
		return node.Title
	case node.Key != "":
		return node.Key
	case node.Index != nil:
		return itemLabel(node)
	case node.Path == "":
		return "Form"
	default:
		return node.Path
	}
}

func itemLabel(node *model.Node) string {
	if node.Index == nil {
		return label(node)
	}
	name := "item " + strconv.Itoa(*node.Index+1)
	if node.Defined && node.Type != schema.TypeObject && node.Type != schema.TypeArray && node.Value != nil {
		if text := fmt.Sprint(node.Value); text != "" {
			name += " (" + text + ")"
		}
	}
	return name
}
