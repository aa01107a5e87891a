package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	gotheme "github.com/goliatone/go-theme"

	internalloader "github.com/goliatone/go-formstate/internal/loader"
	"github.com/goliatone/go-formstate/internal/openapi"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/theme"
	"github.com/goliatone/go-formstate/pkg/validation"
)

const defaultFormat = "json"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom document loader.
func WithLoader(loader schema.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithLoaderOptions configures the built-in loader. Ignored when WithLoader
// is also supplied.
func WithLoaderOptions(opts ...schema.LoaderOption) Option {
	return func(o *Orchestrator) {
		o.loaderOptions = append(o.loaderOptions, opts...)
	}
}

// WithImporter injects the OpenAPI importer.
func WithImporter(importer *openapi.Importer) Option {
	return func(o *Orchestrator) {
		o.importer = importer
	}
}

// WithEncoders injects the output encoder registry.
func WithEncoders(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.encoders = registry
	}
}

// WithDefaultFormat overrides the encoder used when a request omits Format.
func WithDefaultFormat(name string) Option {
	return func(o *Orchestrator) {
		o.defaultFormat = name
	}
}

// WithTheme pins a theme cache, bypassing any selector.
func WithTheme(cache *theme.Cache) Option {
	return func(o *Orchestrator) {
		o.theme = cache
	}
}

// WithThemeSelector resolves a theme per request from a go-theme selector.
func WithThemeSelector(selector gotheme.ThemeSelector, name, variant string) Option {
	return func(o *Orchestrator) {
		o.selector = selector
		o.themeName = name
		o.themeVariant = variant
	}
}

// WithThemeOptions are applied to every theme cache the orchestrator builds.
func WithThemeOptions(opts ...theme.Option) Option {
	return func(o *Orchestrator) {
		o.themeOptions = append(o.themeOptions, opts...)
	}
}

// WithCustomValidators registers validators referenced from `$vf_ext/validate`.
func WithCustomValidators(custom map[string]validation.CustomFunc) Option {
	return func(o *Orchestrator) {
		if o.custom == nil {
			o.custom = make(map[string]validation.CustomFunc, len(custom))
		}
		for name, fn := range custom {
			o.custom[name] = fn
		}
	}
}

// WithSchemaTransformer registers a Transformer that runs after decoding and
// before the form is built.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithLogger sets the logger shared with the form.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithDebug enables trace paths on rendered nodes.
func WithDebug(enabled bool) Option {
	return func(o *Orchestrator) {
		o.debug = enabled
	}
}

// Orchestrator coordinates the pipeline from schema document to encoded form
// state: load, decode or import, transform, render and encode.
type Orchestrator struct {
	loader        schema.Loader
	loaderOptions []schema.LoaderOption
	importer      *openapi.Importer
	encoders      *render.Registry
	defaultFormat string
	transformer   Transformer

	theme        *theme.Cache
	selector     gotheme.ThemeSelector
	themeName    string
	themeVariant string
	themeOptions []theme.Option

	custom map[string]validation.CustomFunc
	logger *slog.Logger
	debug  bool
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{defaultFormat: defaultFormat}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request captures the inputs for one Generate call.
type Request struct {
	// Source locates the schema document. Ignored when Document is set.
	Source   schema.Source
	Document *schema.Document
	// Component selects the OpenAPI component schema. Documents with a single
	// component do not need it.
	Component string

	// Value is the initial root value; HasValue distinguishes nil from absent.
	Value    any
	HasValue bool
	// ValueSource loads the initial value when Value is absent.
	ValueSource schema.Source

	ThemeName    string
	ThemeVariant string

	// ServerErrors are mapped onto the rendered nodes after the pass.
	ServerErrors map[string][]string

	Format      string
	IncludeTree bool
}

// Result is the outcome of Generate.
type Result struct {
	Form        *form.Form
	Tree        *model.Node
	Output      render.Output
	Encoded     []byte
	ContentType string
	Mapping     render.ErrorMapping
}

// Generate executes the full pipeline.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	f, err := o.Build(ctx, req)
	if err != nil {
		return Result{}, err
	}
	tree, err := f.Render()
	if err != nil {
		return Result{}, err
	}

	result := Result{Form: f, Tree: tree}
	if len(req.ServerErrors) > 0 {
		result.Mapping = f.ImportErrors(req.ServerErrors)
	}

	encoded, err := o.Encode(ctx, f, req.Format, req.IncludeTree)
	if err != nil {
		return Result{}, err
	}
	result.Output = encoded.Output
	result.Encoded = encoded.Encoded
	result.ContentType = encoded.ContentType
	return result, nil
}

// Encode snapshots f and serializes it with the named encoder, or the
// default format when format is empty. The form must have been rendered.
func (o *Orchestrator) Encode(ctx context.Context, f *form.Form, format string, includeTree bool) (Result, error) {
	if f == nil {
		return Result{}, errors.New("orchestrator: form is nil")
	}
	format = strings.TrimSpace(format)
	if format == "" {
		format = o.defaultFormat
	}
	encoder, err := o.encoders.Get(format)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: %w", err)
	}
	result := Result{Form: f, Tree: f.Tree(), Output: f.Output(includeTree)}
	result.Encoded, err = encoder.Encode(ctx, result.Output)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: encode %s: %w", encoder.Name(), err)
	}
	result.ContentType = encoder.ContentType()
	return result, nil
}

// Build resolves the schema, value and theme of req into an unrendered form.
func (o *Orchestrator) Build(ctx context.Context, req Request, opts ...form.Option) (*form.Form, error) {
	s, err := o.Schema(ctx, req)
	if err != nil {
		return nil, err
	}
	cache, err := o.resolveTheme(req)
	if err != nil {
		return nil, err
	}

	formOpts := []form.Option{
		form.WithTheme(cache),
		form.WithCustomValidators(o.custom),
		form.WithLogger(o.logger),
		form.WithDebug(o.debug),
	}
	switch {
	case req.HasValue:
		formOpts = append(formOpts, form.WithValue(req.Value))
	case req.ValueSource != nil:
		v, err := o.loadValue(ctx, req.ValueSource)
		if err != nil {
			return nil, err
		}
		formOpts = append(formOpts, form.WithValue(v))
	}
	formOpts = append(formOpts, opts...)
	return form.New(s, formOpts...)
}

// Schema loads and decodes the schema of req, importing OpenAPI components
// when the document is an OpenAPI description.
func (o *Orchestrator) Schema(ctx context.Context, req Request) (schema.Schema, error) {
	doc, err := o.resolveDocument(ctx, req)
	if err != nil {
		return schema.Schema{}, err
	}
	payload, err := doc.Payload()
	if err != nil {
		return schema.Schema{}, fmt.Errorf("orchestrator: %s: %w", doc.Location(), err)
	}

	var s schema.Schema
	if schema.IsOpenAPI(payload) {
		s, err = o.importComponent(ctx, doc, req.Component)
	} else {
		s, err = schema.Decode(payload)
	}
	if err != nil {
		return schema.Schema{}, fmt.Errorf("orchestrator: %s: %w", doc.Location(), err)
	}

	if o.transformer != nil {
		if err := o.transformer.Transform(ctx, &s); err != nil {
			return schema.Schema{}, fmt.Errorf("orchestrator: transform schema: %w", err)
		}
	}
	return s, nil
}

func (o *Orchestrator) importComponent(ctx context.Context, doc schema.Document, component string) (schema.Schema, error) {
	raw := doc.Raw()
	if strings.TrimSpace(component) == "" {
		names, err := o.importer.Components(ctx, raw)
		if err != nil {
			return schema.Schema{}, err
		}
		if len(names) != 1 {
			return schema.Schema{}, fmt.Errorf("component is required, document declares %s", strings.Join(names, ", "))
		}
		component = names[0]
	}
	return o.importer.Import(ctx, raw, component)
}

func (o *Orchestrator) resolveDocument(ctx context.Context, req Request) (schema.Document, error) {
	if req.Document != nil {
		return *req.Document, nil
	}
	if req.Source == nil {
		return schema.Document{}, errors.New("orchestrator: request requires a Document or Source")
	}
	doc, err := o.loader.Load(ctx, req.Source)
	if err != nil {
		return schema.Document{}, fmt.Errorf("orchestrator: load schema: %w", err)
	}
	return doc, nil
}

func (o *Orchestrator) loadValue(ctx context.Context, src schema.Source) (any, error) {
	doc, err := o.loader.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load value: %w", err)
	}
	v, err := schema.ParseValue(doc.Raw())
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %s: %w", doc.Location(), err)
	}
	return v, nil
}

func (o *Orchestrator) resolveTheme(req Request) (*theme.Cache, error) {
	if o.theme != nil {
		return o.theme, nil
	}
	name, variant := o.themeName, o.themeVariant
	if req.ThemeName != "" {
		name = req.ThemeName
	}
	if req.ThemeVariant != "" {
		variant = req.ThemeVariant
	}
	opts := append([]theme.Option{theme.WithLogger(o.logger)}, o.themeOptions...)
	cache, err := theme.Resolve(o.selector, name, variant, opts...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return cache, nil
}

func (o *Orchestrator) applyDefaults() {
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.loader == nil {
		o.loader = internalloader.New(schema.NewLoaderOptions(o.loaderOptions...))
	}
	if o.importer == nil {
		o.importer = openapi.New(openapi.Options{})
	}
	if o.encoders == nil {
		o.encoders = render.NewRegistry()
	}
	if strings.TrimSpace(o.defaultFormat) == "" {
		o.defaultFormat = defaultFormat
	}
}
