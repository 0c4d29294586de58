package codec

import (
	"context"
	"errors"
	"fmt"
)

// DefaultConversionMessage is reported when Parse fails and no override is
// configured for the field.
const DefaultConversionMessage = "Could not convert"

// ErrConversion signals that raw input could not be converted into a value.
var ErrConversion = errors.New("codec: conversion failed")

// Codec maps raw text to typed values and back. Parse may fail; Render must not
// fail for any value Parse produced, and Parse(Render(v)) must yield v.
type Codec interface {
	Parse(raw string) (any, error)
	Render(value any) string
}

// RawValidating is implemented by codecs that check raw text before parsing.
// An empty message means the raw input is acceptable.
type RawValidating interface {
	ValidateRaw(raw string) string
}

// ValueValidating is implemented by codecs that check parsed values. The check
// may block; an empty message means the value is acceptable.
type ValueValidating interface {
	ValidateValue(ctx context.Context, value any) string
}

// Func is a typed codec assembled from a parse and a render function.
type Func[T any] struct {
	parse  func(string) (T, error)
	render func(T) string
}

// Of builds a typed codec. Values of any other dynamic type render as "".
func Of[T any](parse func(string) (T, error), render func(T) string) *Func[T] {
	return &Func[T]{parse: parse, render: render}
}

// Parse converts raw input, wrapping failures with ErrConversion.
func (c *Func[T]) Parse(raw string) (any, error) {
	if c == nil || c.parse == nil {
		return nil, ErrConversion
	}
	value, err := c.parse(raw)
	if err != nil {
		if errors.Is(err, ErrConversion) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	return value, nil
}

// Render converts a value back to raw text.
func (c *Func[T]) Render(value any) string {
	if c == nil || c.render == nil {
		return ""
	}
	typed, ok := value.(T)
	if !ok {
		return ""
	}
	return c.render(typed)
}

// ParseTyped is the statically typed variant of Parse.
func (c *Func[T]) ParseTyped(raw string) (T, error) {
	var zero T
	value, err := c.Parse(raw)
	if err != nil {
		return zero, err
	}
	return value.(T), nil
}

// With decorates a codec with raw and value level validators. Either may be
// nil.
func With(base Codec, raw func(string) string, value func(context.Context, any) string) Codec {
	return &validated{Codec: base, raw: raw, value: value}
}

type validated struct {
	Codec
	raw   func(string) string
	value func(context.Context, any) string
}

func (v *validated) ValidateRaw(raw string) string {
	if inner, ok := v.Codec.(RawValidating); ok {
		if msg := inner.ValidateRaw(raw); msg != "" {
			return msg
		}
	}
	if v.raw == nil {
		return ""
	}
	return v.raw(raw)
}

func (v *validated) ValidateValue(ctx context.Context, value any) string {
	if inner, ok := v.Codec.(ValueValidating); ok {
		if msg := inner.ValidateValue(ctx, value); msg != "" {
			return msg
		}
	}
	if v.value == nil {
		return ""
	}
	return v.value(ctx, value)
}
