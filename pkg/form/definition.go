package form

import (
	"context"
	"strings"

	"github.com/goliatone/go-formstate/pkg/codec"
)

// Mode controls when a successful update reaches the domain object.
type Mode string

const (
	// ModeValue writes every successful update immediately.
	ModeValue Mode = "value"
	// ModeCommit stages successful updates until FieldAccessor.Commit.
	ModeCommit Mode = "commit"
)

// RawValidator checks raw text before conversion. An empty message is a pass.
// Raw validators run synchronously inside SetRaw and must not block; checks
// that wait on I/O belong in a ValueValidator.
type RawValidator func(raw string) string

// ValueValidator checks a converted value. It may block, for example to run a
// remote uniqueness check; the engine never calls it on the goroutine that
// issued SetRaw. An empty message is a pass.
type ValueValidator func(ctx context.Context, value any) string

// Definition is the static declaration of one field. It is immutable once
// built.
type Definition struct {
	path           string
	codec          codec.Codec
	rawValidator   RawValidator
	valueValidator ValueValidator
	message        string
	mode           Mode
}

// DefinitionOption customises a Definition.
type DefinitionOption func(*Definition)

// WithRawValidator attaches a raw-level validator.
func WithRawValidator(fn RawValidator) DefinitionOption {
	return func(d *Definition) {
		d.rawValidator = fn
	}
}

// WithValidator attaches a value-level validator.
func WithValidator(fn ValueValidator) DefinitionOption {
	return func(d *Definition) {
		d.valueValidator = fn
	}
}

// WithErrorMessage overrides the conversion failure message.
func WithErrorMessage(message string) DefinitionOption {
	return func(d *Definition) {
		d.message = strings.TrimSpace(message)
	}
}

// WithMode selects the binding mode. Empty values keep ModeValue.
func WithMode(mode Mode) DefinitionOption {
	return func(d *Definition) {
		if mode != "" {
			d.mode = mode
		}
	}
}

// Field declares a field at path converted by c.
func Field(path string, c codec.Codec, opts ...DefinitionOption) Definition {
	def := Definition{
		path:  strings.TrimSpace(path),
		codec: c,
		mode:  ModeValue,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&def)
		}
	}
	return def
}

// Path returns the dotted domain path the field binds to.
func (d Definition) Path() string { return d.path }

// Codec returns the codec converting between raw text and values.
func (d Definition) Codec() codec.Codec { return d.codec }

// Mode returns the binding mode, ModeValue unless WithMode changed it.
func (d Definition) Mode() Mode { return d.mode }

// ErrorMessage returns the conversion message override, or "" when the form
// or codec default applies.
func (d Definition) ErrorMessage() string { return d.message }

// validateRaw runs the codec's raw validator and then the declared one.
func (d Definition) validateRaw(raw string) string {
	if v, ok := d.codec.(codec.RawValidating); ok {
		if msg := v.ValidateRaw(raw); msg != "" {
			return msg
		}
	}
	if d.rawValidator != nil {
		return d.rawValidator(raw)
	}
	return ""
}

func (d Definition) hasValueValidator() bool {
	if _, ok := d.codec.(codec.ValueValidating); ok {
		return true
	}
	return d.valueValidator != nil
}

// validateValue runs the codec's value validator and then the declared one.
func (d Definition) validateValue(ctx context.Context, value any) string {
	if v, ok := d.codec.(codec.ValueValidating); ok {
		if msg := v.ValidateValue(ctx, value); msg != "" {
			return msg
		}
	}
	if d.valueValidator != nil {
		return d.valueValidator(ctx, value)
	}
	return ""
}
