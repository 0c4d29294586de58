package form

import (
	"strings"

	"github.com/rs/zerolog"
)

// Option customises a Form.
type Option func(*Form)

// WithLogger sets the logger form states write debug events to. The default
// discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Form) {
		f.logger = logger
	}
}

// WithValidationProps gives the form its own props function, taking precedence
// over SetupValidationProps.
func WithValidationProps(fn PropsFunc) Option {
	return func(f *Form) {
		f.props = fn
	}
}

// WithConversionMessage replaces codec.DefaultConversionMessage for every
// field that has no message of its own.
func WithConversionMessage(message string) Option {
	return func(f *Form) {
		if trimmed := strings.TrimSpace(message); trimmed != "" {
			f.conversionMessage = trimmed
		}
	}
}
