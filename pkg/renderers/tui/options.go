package tui

import "log/slog"

// Theme captures optional prefixes the editor applies to printed messages.
type Theme struct {
	InfoPrefix     string
	ErrorPrefix    string
	RequiredSuffix string
}

// DefaultTheme is used when WithTheme is not supplied.
func DefaultTheme() Theme {
	return Theme{ErrorPrefix: "! ", RequiredSuffix: " *"}
}

// Option configures the Editor.
type Option func(*Editor)

// WithPromptDriver overrides the prompt driver used by the editor.
func WithPromptDriver(driver PromptDriver) Option {
	return func(e *Editor) {
		if driver != nil {
			e.driver = driver
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(e *Editor) {
		e.theme = theme
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRetryInvalid asks whether to edit a field again when its new value is
// invalid. Enabled by default.
func WithRetryInvalid(enabled bool) Option {
	return func(e *Editor) {
		e.retryInvalid = enabled
	}
}
