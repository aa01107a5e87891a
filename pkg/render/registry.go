package render

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// Output is what encoders serialize after a render pass.
type Output struct {
	Value      any                 `json:"value" yaml:"value"`
	Errors     validation.ErrorMap `json:"errors" yaml:"errors"`
	FormErrors []string            `json:"formErrors,omitempty" yaml:"formErrors,omitempty"`
	Tree       *model.Node         `json:"tree,omitempty" yaml:"tree,omitempty"`
}

// Encoder converts an Output into bytes.
type Encoder interface {
	Name() string
	ContentType() string
	Encode(ctx context.Context, out Output) ([]byte, error)
}

// Registry stores encoders by name.
type Registry struct {
	mu       sync.RWMutex
	encoders map[string]Encoder
}

// NewRegistry returns a registry holding the json and yaml encoders.
func NewRegistry() *Registry {
	r := &Registry{encoders: make(map[string]Encoder)}
	r.MustRegister(JSONEncoder{Indent: "  "})
	r.MustRegister(YAMLEncoder{})
	return r
}

// Register adds an encoder by its Name(). Duplicate names return an error.
func (r *Registry) Register(encoder Encoder) error {
	if encoder == nil {
		return fmt.Errorf("render: encoder is required")
	}
	name := strings.ToLower(strings.TrimSpace(encoder.Name()))
	if name == "" {
		return fmt.Errorf("render: encoder name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.encoders[name]; exists {
		return fmt.Errorf("render: encoder %q already registered", name)
	}
	r.encoders[name] = encoder
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(encoder Encoder) {
	if err := r.Register(encoder); err != nil {
		panic(err)
	}
}

// Get retrieves an encoder by case-insensitive name.
func (r *Registry) Get(name string) (Encoder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	encoder, ok := r.encoders[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("render: encoder %q not found", name)
	}
	return encoder, nil
}

// List returns the sorted encoder names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.encoders))
	for name := range r.encoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
