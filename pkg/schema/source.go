package schema

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Source identifies where a document came from so loaders can read files,
// fs.FS entries or URLs behind one interface.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

type location struct {
	kind SourceKind
	loc  string
}

func (l location) Kind() SourceKind { return l.kind }
func (l location) Location() string { return l.loc }

func (l location) String() string {
	return string(l.kind) + ":" + l.loc
}

// SourceFromFile returns a Source pointing to a file path.
func SourceFromFile(path string) Source {
	return location{kind: SourceKindFile, loc: filepath.Clean(path)}
}

// SourceFromFS returns a Source naming an entry inside an fs.FS.
func SourceFromFS(name string) Source {
	return location{kind: SourceKindFS, loc: strings.TrimPrefix(filepath.ToSlash(name), "/")}
}

// ParseURLSource validates raw as an absolute http(s) URL.
func ParseURLSource(raw string) (Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("schema: empty URL source")
	}
	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return nil, fmt.Errorf("schema: invalid URL %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("schema: unsupported URL scheme %q", parsed.Scheme)
	}
	return location{kind: SourceKindURL, loc: raw}, nil
}

// SourceFromURL is ParseURLSource for static configuration; it panics on an
// invalid URL.
func SourceFromURL(raw string) Source {
	src, err := ParseURLSource(raw)
	if err != nil {
		panic(err)
	}
	return src
}

// SourceFromString treats http(s) locations as URLs and anything else as a
// file path, the way command line arguments are interpreted.
func SourceFromString(raw string) (Source, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("schema: empty source")
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return ParseURLSource(trimmed)
	}
	return SourceFromFile(trimmed), nil
}
