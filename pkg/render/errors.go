package render

import (
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/goliatone/go-formstate/pkg/model"
)

// ErrorMapping splits a server error payload into messages keyed by the value
// paths of rendered nodes ("/owner/email") and form-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

var (
	// envelopeSegments are leading segments servers wrap request fields in.
	envelopeSegments = []string{"attributes", "body", "data", "payload", "request"}

	formLevelKeys = []string{"", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors"}

	keySeparators = strings.NewReplacer("[", "/", "]", "", ".", "/")
)

// MergeFormErrors concatenates form-level messages, trimming whitespace and
// removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	return normalizeMessages(append(append([]string(nil), existing...), extras...))
}

// MapErrorPayload maps payload keys (JSON pointers, dotted paths, bracketed
// indices, optionally wrapped in body/request/data segments) onto the deepest
// rendered node they address. Keys that match no node become form-level
// messages.
func MapErrorPayload(root *model.Node, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		return mapping
	}

	known := make(map[string]struct{})
	root.Walk(func(n *model.Node) {
		if n.Path != "" {
			known[n.Path] = struct{}{}
		}
	})

	for _, key := range sortedKeys(payload) {
		messages := normalizeMessages(payload[key])
		if len(messages) == 0 {
			continue
		}
		path, ok := resolveErrorKey(key, known)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[path] = normalizeMessages(append(mapping.Fields[path], messages...))
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func normalizeMessages(messages []string) []string {
	out := lo.Uniq(lo.Compact(lo.Map(messages, func(msg string, _ int) string {
		return strings.TrimSpace(msg)
	})))
	if len(out) == 0 {
		return nil
	}
	return out
}

// resolveErrorKey returns the deepest known value path addressed by raw, or
// false when raw is form-level or addresses nothing rendered.
func resolveErrorKey(raw string, known map[string]struct{}) (string, bool) {
	raw = strings.TrimSpace(raw)
	if lo.Contains(formLevelKeys, strings.ToLower(raw)) {
		return "", false
	}

	best, depth := "", 0
	for _, candidate := range keyVariants(splitErrorKey(raw)) {
		for end := len(candidate); end > depth; end-- {
			path := "/" + strings.Join(candidate[:end], "/")
			if _, ok := known[path]; ok {
				best, depth = path, end
				break
			}
		}
	}
	return best, best != ""
}

// splitErrorKey tokenizes "#/body/tags/0", "$.body.tags[0]" and
// "body.tags.0" alike. Pointer escapes are decoded per segment.
func splitErrorKey(raw string) []string {
	var segments []string
	for _, part := range strings.Split(keySeparators.Replace(raw), "/") {
		part = strings.TrimSpace(part)
		if part == "" || part == "#" || part == "$" {
			continue
		}
		part = strings.ReplaceAll(part, "~1", "/")
		segments = append(segments, strings.ReplaceAll(part, "~0", "~"))
	}
	return segments
}

// keyVariants lists segments as given, without envelope segments, and both
// again without numeric segments, deduplicated.
func keyVariants(segments []string) [][]string {
	unwrapped := lo.DropWhile(segments, func(segment string) bool {
		return lo.Contains(envelopeSegments, strings.ToLower(segment))
	})
	withoutIndices := func(in []string) []string {
		return lo.Reject(in, func(segment string, _ int) bool {
			_, err := strconv.Atoi(segment)
			return err == nil
		})
	}

	variants := [][]string{segments, unwrapped, withoutIndices(segments), withoutIndices(unwrapped)}
	variants = lo.Filter(variants, func(v []string, _ int) bool { return len(v) > 0 })
	return lo.UniqBy(variants, func(v []string) string { return strings.Join(v, "\x00") })
}

func sortedKeys[V any](in map[string]V) []string {
	keys := lo.Keys(in)
	sort.Strings(keys)
	return keys
}
