package schema

import "errors"

// Document wraps a raw schema or value payload together with its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument constructs a Document wrapper while validating the inputs.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if len(raw) == 0 {
		return Document{}, errors.New("schema: raw document is empty")
	}

	clone := append([]byte(nil), raw...)
	return Document{source: src, raw: clone}, nil
}

// MustNewDocument panics if the document cannot be created. Useful for tests.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Format reports whether the payload looks like JSON or YAML.
func (d Document) Format() Format {
	return DetectFormat(d.raw)
}

// Payload decodes the document into a generic object.
func (d Document) Payload() (map[string]any, error) {
	return ParsePayload(d.raw)
}

// Schema decodes the document as a JSON Schema.
func (d Document) Schema() (Schema, error) {
	return Parse(d.raw)
}
