package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/goliatone/go-formstate/internal/openapi"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/validation"
)

var (
	optionKeys      = []string{"editors", "option", "widget"}
	extensionKeys   = []string{"validate"}
	arrayOptionKeys = []string{"addable", "appendable", "orderable", "removable"}
)

type violation struct {
	file     string
	location string
	message  string
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr))
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet(filepath.Base(os.Args[0]), flag.ContinueOnError)
	flags.SetOutput(stderr)
	strict := flags.Bool("strict", false, "reject keywords the form runtime does not understand")
	validate := flags.Bool("validate-openapi", false, "validate OpenAPI documents before importing them")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage: %s [flags] paths...\n", flags.Name())
		fmt.Fprintf(flags.Output(), "\nLint form schemas and OpenAPI components for unsupported $vf_opt/$vf_ext extensions.\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return 2
	}
	paths := flags.Args()
	if len(paths) == 0 {
		flags.Usage()
		return 2
	}

	importer := openapi.New(openapi.Options{Validate: *validate})
	opts := validation.LintOptions{Strict: *strict}

	var violations []violation
	for _, path := range paths {
		linted, err := lintFile(ctx, importer, opts, path)
		if err != nil {
			fmt.Fprintf(stderr, "lint %s: %v\n", path, err)
			return 2
		}
		violations = append(violations, linted...)
	}
	if len(violations) == 0 {
		return 0
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].file == violations[j].file {
			if violations[i].location == violations[j].location {
				return violations[i].message < violations[j].message
			}
			return violations[i].location < violations[j].location
		}
		return violations[i].file < violations[j].file
	})
	for _, v := range violations {
		fmt.Fprintf(stderr, "%s: %s -> %s\n", v.file, v.location, v.message)
	}
	return 1
}

func lintFile(ctx context.Context, importer *openapi.Importer, opts validation.LintOptions, path string) ([]violation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	payload, err := schema.ParsePayload(raw)
	if err != nil {
		return nil, err
	}

	if !schema.IsOpenAPI(payload) {
		result := validation.LintSchema(raw, opts)
		if !result.Valid {
			return issueViolations(path, nil, result.Issues), nil
		}
		s, err := schema.Parse(raw)
		if err != nil {
			return nil, err
		}
		return lintSchema(path, nil, s), nil
	}

	components, err := importer.Components(ctx, raw)
	if err != nil {
		return nil, err
	}
	var out []violation
	for _, name := range components {
		base := []string{"components", name}
		s, err := importer.Import(ctx, raw, name)
		if err != nil {
			out = append(out, violation{file: path, location: formatLocation(base), message: err.Error()})
			continue
		}
		// Every component is linted on its own; definitions repeat them.
		s.Definitions = nil
		out = append(out, lintSchema(path, base, s)...)
	}
	return out, nil
}

func issueViolations(file string, path []string, issues []validation.SchemaIssue) []violation {
	return lo.Map(issues, func(issue validation.SchemaIssue, _ int) violation {
		location := path
		if issue.Field != "" {
			location = appendPath(path, issue.Field)
		}
		return violation{file: file, location: formatLocation(location), message: issue.Message}
	})
}

func lintSchema(file string, path []string, s schema.Schema) []violation {
	result := lintExtensions(file, path, s.Extensions)

	for _, key := range sortedKeys(s.Properties) {
		result = append(result, lintSchema(file, appendPath(path, "properties."+key), s.Properties[key])...)
	}
	if s.Items != nil {
		if s.Items.Single != nil {
			result = append(result, lintSchema(file, appendPath(path, "items"), *s.Items.Single)...)
		}
		for idx, item := range s.Items.Tuple {
			result = append(result, lintSchema(file, appendPath(path, fmt.Sprintf("items.%d", idx)), item)...)
		}
		if s.Items.Additional != nil {
			result = append(result, lintSchema(file, appendPath(path, "additionalItems"), *s.Items.Additional)...)
		}
	}
	for _, key := range sortedKeys(s.Definitions) {
		result = append(result, lintSchema(file, appendPath(path, "definitions."+key), s.Definitions[key])...)
	}
	return result
}

func lintExtensions(file string, path []string, extensions map[string]any) []violation {
	var result []violation
	report := func(at []string, format string, args ...any) {
		result = append(result, violation{file: file, location: formatLocation(at), message: fmt.Sprintf(format, args...)})
	}

	for _, namespace := range []string{schema.OptionNamespace, schema.ExtensionNamespace} {
		value, ok := extensions[namespace]
		if !ok {
			continue
		}
		at := appendPath(path, namespace)
		nested, ok := value.(map[string]any)
		if !ok {
			report(at, "%s must be an object, found %T", namespace, value)
			continue
		}
		allowed := optionKeys
		if namespace == schema.ExtensionNamespace {
			allowed = extensionKeys
		}
		for _, key := range sortedKeys(nested) {
			if !lo.Contains(allowed, key) {
				report(at, "unsupported extension key %q (supported: %s)", key, strings.Join(allowed, ", "))
				continue
			}
			result = append(result, lintHint(file, appendPath(at, key), key, nested[key])...)
		}
	}
	return result
}

func lintHint(file string, path []string, key string, value any) []violation {
	var result []violation
	report := func(format string, args ...any) {
		result = append(result, violation{file: file, location: formatLocation(path), message: fmt.Sprintf(format, args...)})
	}

	switch key {
	case "widget":
		if name, ok := value.(string); !ok || strings.TrimSpace(name) == "" {
			report("widget must be a non-empty string (got %T)", value)
		}
	case "editors":
		list, ok := value.([]any)
		if !ok {
			report("editors must be a list of strings (got %T)", value)
			break
		}
		for idx, entry := range list {
			if _, ok := entry.(string); !ok {
				report("editors[%d] must be a string (got %T)", idx, entry)
			}
		}
	case "option":
		options, ok := value.(map[string]any)
		if !ok {
			report("option must be an object (got %T)", value)
			break
		}
		for _, name := range sortedKeys(options) {
			if !lo.Contains(arrayOptionKeys, name) {
				report("unsupported array option %q (supported: %s)", name, strings.Join(arrayOptionKeys, ", "))
				continue
			}
			if _, ok := options[name].(bool); !ok {
				report("array option %q must be a boolean (got %T)", name, options[name])
			}
		}
	case "validate":
		if _, ok := value.(map[string]any); !ok {
			report("validate must be an object keyed by validator name (got %T)", value)
		}
	}
	return result
}

func sortedKeys[V any](in map[string]V) []string {
	keys := lo.Keys(in)
	sort.Strings(keys)
	return keys
}

func appendPath(path []string, segment string) []string {
	next := append([]string(nil), path...)
	return append(next, segment)
}

func formatLocation(path []string) string {
	if len(path) == 0 {
		return "(root)"
	}
	return strings.Join(path, " > ")
}
