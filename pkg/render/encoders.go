package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// JSONEncoder writes Output as JSON.
type JSONEncoder struct {
	Indent string
}

func (JSONEncoder) Name() string        { return "json" }
func (JSONEncoder) ContentType() string { return "application/json" }

func (e JSONEncoder) Encode(_ context.Context, out Output) ([]byte, error) {
	var (
		payload []byte
		err     error
	)
	if e.Indent != "" {
		payload, err = json.MarshalIndent(out, "", e.Indent)
	} else {
		payload, err = json.Marshal(out)
	}
	if err != nil {
		return nil, fmt.Errorf("render: encode json: %w", err)
	}
	return append(payload, '\n'), nil
}

// YAMLEncoder writes Output as YAML. Values pass through a JSON round trip so
// error objects keep their json field names.
type YAMLEncoder struct{}

func (YAMLEncoder) Name() string        { return "yaml" }
func (YAMLEncoder) ContentType() string { return "application/yaml" }

func (YAMLEncoder) Encode(_ context.Context, out Output) ([]byte, error) {
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("render: encode yaml: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("render: encode yaml: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return nil, fmt.Errorf("render: encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("render: encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}
