package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/widgets"
)

// Fields is the part of a FormState or GroupAccessor the editor drives.
type Fields interface {
	Paths() []string
	Field(path string) (*form.FieldAccessor, error)
	Validate(ctx context.Context) (bool, error)
}

var (
	_ Fields = (*form.FormState)(nil)
	_ Fields = (*form.GroupAccessor)(nil)
)

// Editor walks fields through a PromptDriver, feeding answers to SetRaw and
// re-prompting while a field reports an error.
type Editor struct {
	driver      PromptDriver
	theme       Theme
	labels      map[string]string
	widgets     *widgets.Registry
	hints       map[string]string
	maxAttempts int
	logger      zerolog.Logger
}

// New constructs an Editor. Without WithPromptDriver the survey driver is used.
func New(opts ...Option) *Editor {
	e := &Editor{
		labels:      make(map[string]string),
		widgets:     widgets.NewRegistry(),
		hints:       make(map[string]string),
		maxAttempts: DefaultMaxAttempts,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.driver == nil {
		e.driver = NewSurveyDriver(nil)
	}
	return e
}

// Edit prompts every field of fields in order, then runs a validation sweep.
// Fields that fail the sweep are prompted again until the sweep passes or a
// field exhausts its attempts.
func (e *Editor) Edit(ctx context.Context, fields Fields) error {
	if fields == nil {
		return fmt.Errorf("tui: no fields to edit")
	}
	pending := fields.Paths()
	for round := 0; ; round++ {
		for _, path := range pending {
			field, err := fields.Field(path)
			if err != nil {
				return err
			}
			if err := e.editField(ctx, field); err != nil {
				return err
			}
		}

		valid, err := fields.Validate(ctx)
		if err != nil {
			return err
		}
		if valid {
			e.logger.Debug().Int("rounds", round+1).Msg("tui: fields valid")
			return nil
		}
		if round+1 >= e.maxAttempts {
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(invalidPaths(fields), ", "))
		}
		pending = invalidPaths(fields)
	}
}

func (e *Editor) editField(ctx context.Context, field *form.FieldAccessor) error {
	path := field.Path()
	for attempt := 1; ; attempt++ {
		raw, err := e.prompt(ctx, field)
		if err != nil {
			return err
		}
		if err := field.SetRaw(raw).Wait(ctx); err != nil {
			return err
		}
		if field.IsValid() {
			return nil
		}

		msg := errorMessage(field)
		e.logger.Debug().Str("path", path).Int("attempt", attempt).Str("error", msg).Msg("tui: invalid answer")
		if err := e.driver.Info(ctx, e.theme.ErrorPrefix+msg); err != nil {
			return err
		}
		if attempt >= e.maxAttempts {
			return fmt.Errorf("%w: %s", ErrTooManyAttempts, path)
		}
	}
}

func (e *Editor) prompt(ctx context.Context, field *form.FieldAccessor) (string, error) {
	path := field.Path()
	message := e.theme.PromptPrefix + e.label(path)
	help := ""
	if msg := field.Error(); msg != "" {
		help = msg
	}

	widget, _ := e.widgets.Resolve(widgets.Field{
		Path:  path,
		Codec: field.Definition().Codec(),
		Hint:  e.hints[path],
	})
	switch widget {
	case widgets.WidgetConfirm:
		current, _ := strconv.ParseBool(field.Raw())
		answer, err := e.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: current, Help: help})
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(answer), nil
	case widgets.WidgetTextArea:
		return e.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: field.Raw(), Help: help})
	}
	return e.driver.Input(ctx, InputConfig{Message: message, Default: field.Raw(), Help: help})
}

func (e *Editor) label(path string) string {
	if label := strings.TrimSpace(e.labels[path]); label != "" {
		return label
	}
	return path
}

// errorMessage prefers the "error" validation prop so renderers and the
// terminal show the same text.
func errorMessage(field *form.FieldAccessor) string {
	if msg, ok := field.ValidationProps()["error"].(string); ok && msg != "" {
		return msg
	}
	return field.Error()
}

func invalidPaths(fields Fields) []string {
	var out []string
	for _, path := range fields.Paths() {
		field, err := fields.Field(path)
		if err != nil || !field.IsValid() {
			out = append(out, path)
		}
	}
	return out
}

// Summary prints each field's current raw text, and its error when invalid,
// through the driver's Info channel.
func (e *Editor) Summary(ctx context.Context, fields Fields) error {
	for _, path := range fields.Paths() {
		field, err := fields.Field(path)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("%s%s: %s", e.theme.InfoPrefix, e.label(path), field.Raw())
		if msg := errorMessage(field); msg != "" {
			line += " (" + msg + ")"
		}
		if err := e.driver.Info(ctx, line); err != nil {
			return err
		}
	}
	return nil
}
