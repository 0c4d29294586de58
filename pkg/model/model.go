package model

import "errors"

// ErrUnknownPath is returned when a path is not part of the object's shape.
var ErrUnknownPath = errors.New("model: unknown path")

// Listener receives the new value stored at path after a write.
type Listener func(path string, value any)

// Model is the observable domain object capability the form engine binds to.
// Set must be a single mutation: listeners observe exactly one notification
// per successful call.
type Model interface {
	Get(path string) (any, bool)
	Set(path string, value any) error
	Subscribe(path string, fn Listener) (unsubscribe func())
}

// Shape describes which field paths a domain type declares.
type Shape interface {
	Has(path string) bool
	Paths() []string
}

// TypedShape is implemented by shapes that know which paths hold custom
// (persisted-snapshot converted) types.
type TypedShape interface {
	Shape
	CustomType(path string) string
}
