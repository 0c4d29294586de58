package form

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks declarations that can never work: paths missing
	// from the domain type, duplicate fields, group paths outside the form.
	ErrConfiguration = errors.New("form: configuration error")
	// ErrLookup is returned when a FormState is asked for an undeclared path.
	ErrLookup = errors.New("form: lookup error")
	// ErrAccess is returned when a GroupAccessor is asked for a path outside
	// its group.
	ErrAccess = errors.New("form: access error")
	// ErrClosed is returned by operations on a closed FormState.
	ErrClosed = errors.New("form: state closed")
)

// PathError records the operation and field path behind a lookup or access
// failure.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%v: %s %q", e.Err, e.Op, e.Path)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
