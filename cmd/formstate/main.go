package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/goliatone/go-formstate/internal/config"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/orchestrator"
	"github.com/goliatone/go-formstate/pkg/renderers/tui"
	"github.com/goliatone/go-formstate/pkg/schema"
)

const (
	exitOK      = 0
	exitInvalid = 1
	exitFailure = 2
)

// editFunc edits a form in place; swapped in tests.
type editFunc func(ctx context.Context, f *form.Form, logger *slog.Logger) error

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, terminalEdit))
}

func terminalEdit(ctx context.Context, f *form.Form, logger *slog.Logger) error {
	return tui.New(tui.WithLogger(logger), tui.WithPromptDriver(tui.NewSurveyDriver(os.Stderr))).Edit(ctx, f)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, edit editFunc) int {
	flags := flag.NewFlagSet("formstate", flag.ContinueOnError)
	flags.SetOutput(stderr)
	schemaPath := flags.String("schema", "", "JSON Schema or OpenAPI document path or URL")
	component := flags.String("component", "", "OpenAPI component schema to render")
	valuePath := flags.String("value", "", "initial value document path or URL")
	configPath := flags.String("config", "", "YAML config file")
	interactive := flags.Bool("interactive", false, "edit the form in the terminal before printing it")
	format := flags.String("format", "", "output format (json|yaml)")
	debug := flags.Bool("debug", false, "log render traces to stderr")
	themeName := flags.String("theme", "", "theme declared in the config file")
	variant := flags.String("variant", "", "theme variant")
	tree := flags.Bool("tree", false, "include the render tree in the output")
	allowHTTP := flags.Bool("allow-http", false, "allow http(s) sources")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage: formstate -schema <path> [flags]\n\nRender a schema driven form and print its value and errors.\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitFailure
	}
	if *schemaPath == "" {
		flags.Usage()
		return exitFailure
	}

	overrides := config.Overrides{
		Theme:     *themeName,
		Variant:   *variant,
		Format:    *format,
		Component: *component,
	}
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "debug":
			overrides.Debug = debug
		case "allow-http":
			overrides.AllowHTTP = allowHTTP
		}
	})

	cfg, err := config.Load(*configPath)
	if err == nil {
		cfg, err = cfg.Merge(overrides)
	}
	if err != nil {
		fmt.Fprintf(stderr, "formstate: %v\n", err)
		return exitFailure
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	orch := orchestrator.New(
		orchestrator.WithLoaderOptions(cfg.LoaderOptions()...),
		orchestrator.WithThemeSelector(cfg.Selector(), cfg.Theme, cfg.Variant),
		orchestrator.WithThemeOptions(cfg.ThemeOptions()...),
		orchestrator.WithDefaultFormat(cfg.Format),
		orchestrator.WithLogger(logger),
		orchestrator.WithDebug(cfg.Debug),
	)

	req := orchestrator.Request{Component: cfg.Component, IncludeTree: *tree}
	req.Source, err = schema.SourceFromString(*schemaPath)
	if err == nil && *valuePath != "" {
		req.ValueSource, err = schema.SourceFromString(*valuePath)
	}
	if err != nil {
		fmt.Fprintf(stderr, "formstate: %v\n", err)
		return exitFailure
	}

	result, err := generate(ctx, orch, req, *interactive, logger, edit)
	if err != nil {
		fmt.Fprintf(stderr, "formstate: %v\n", err)
		return exitFailure
	}
	if _, err := stdout.Write(result.Encoded); err != nil {
		fmt.Fprintf(stderr, "formstate: write output: %v\n", err)
		return exitFailure
	}
	logger.Debug("rendered form", "schema", *schemaPath, "errors", len(result.Output.Errors))
	if !result.Form.Valid() {
		return exitInvalid
	}
	return exitOK
}

func generate(ctx context.Context, orch *orchestrator.Orchestrator, req orchestrator.Request, interactive bool, logger *slog.Logger, edit editFunc) (orchestrator.Result, error) {
	if !interactive || edit == nil {
		return orch.Generate(ctx, req)
	}
	f, err := orch.Build(ctx, req)
	if err != nil {
		return orchestrator.Result{}, err
	}
	if err := edit(ctx, f, logger); err != nil {
		return orchestrator.Result{}, err
	}
	if f.Tree() == nil {
		if _, err := f.Render(); err != nil {
			return orchestrator.Result{}, err
		}
	}
	return orch.Encode(ctx, f, req.Format, req.IncludeTree)
}
