package tui

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/widgets"
)

// DefaultMaxAttempts bounds how often one field is prompted before giving up.
const DefaultMaxAttempts = 3

// Theme holds the prefixes the editor applies when printing messages.
type Theme struct {
	PromptPrefix string
	InfoPrefix   string
	ErrorPrefix  string
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

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(e *Editor) {
		e.theme = theme
	}
}

// WithLabels maps field paths to prompt labels. Unlabelled fields use the path.
func WithLabels(labels map[string]string) Option {
	return func(e *Editor) {
		for path, label := range labels {
			e.labels[path] = label
		}
	}
}

// WithMultiline prompts the listed paths with a multi-line editor.
func WithMultiline(paths ...string) Option {
	return func(e *Editor) {
		for _, path := range paths {
			e.hints[path] = widgets.WidgetTextArea
		}
	}
}

// WithWidgetHints forces widgets per path. Empty names are ignored; unknown
// names fall back to a single line input.
func WithWidgetHints(hints map[string]string) Option {
	return func(e *Editor) {
		for path, name := range hints {
			if name = strings.TrimSpace(name); name != "" {
				e.hints[path] = name
			}
		}
	}
}

// WithWidgets replaces the registry that picks prompts for unhinted fields.
func WithWidgets(reg *widgets.Registry) Option {
	return func(e *Editor) {
		if reg != nil {
			e.widgets = reg
		}
	}
}

// WithMaxAttempts sets how often a field is prompted while invalid. Values
// below one keep DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(e *Editor) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithLogger attaches a logger for prompt and validation events.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}
