package form

import (
	"context"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-formstate/pkg/model"
)

// FormState binds a Form to one domain object and owns one FieldAccessor per
// declared path. Accessors are created on first use and keep their identity
// for the lifetime of the state.
type FormState struct {
	id     string
	form   *Form
	model  model.Model
	logger zerolog.Logger

	// ctx is handed to value validators started by SetRaw; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	accessors *xsync.MapOf[string, *FieldAccessor]
}

// ID returns the state's unique identifier, also attached to its log events.
func (s *FormState) ID() string {
	return s.id
}

// Form returns the form the state was created from.
func (s *FormState) Form() *Form {
	return s.form
}

// Model returns the bound domain object.
func (s *FormState) Model() model.Model {
	return s.model
}

// Paths returns the declared paths of the form.
func (s *FormState) Paths() []string {
	return s.form.Paths()
}

// Field returns the accessor for path, creating it on first use. Undeclared
// paths fail with ErrLookup.
func (s *FormState) Field(path string) (*FieldAccessor, error) {
	if s.closed.Load() {
		return nil, &PathError{Op: "field", Path: path, Err: ErrClosed}
	}
	def, ok := s.form.Definition(path)
	if !ok {
		return nil, &PathError{Op: "field", Path: path, Err: ErrLookup}
	}
	accessor, _ := s.accessors.LoadOrCompute(path, func() *FieldAccessor {
		return newAccessor(s, def)
	})
	return accessor, nil
}

// MustField panics when Field fails.
func (s *FormState) MustField(path string) *FieldAccessor {
	accessor, err := s.Field(path)
	if err != nil {
		panic(err)
	}
	return accessor
}

// Validate replays conversion and validation for every declared field against
// its current raw text and waits for all of them to settle. It reports whether
// every field ended up valid; per-field failures are left on the accessors.
// The error is non-nil only when ctx ends first or the state is closed.
func (s *FormState) Validate(ctx context.Context) (bool, error) {
	return s.validatePaths(ctx, s.form.Paths())
}

func (s *FormState) validatePaths(ctx context.Context, paths []string) (bool, error) {
	if s.closed.Load() {
		return false, ErrClosed
	}
	results := make([]bool, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		i := i
		accessor, err := s.Field(path)
		if err != nil {
			return false, err
		}
		g.Go(func() error {
			valid, err := accessor.revalidate(ctx)
			results[i] = valid
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	valid := true
	for _, ok := range results {
		valid = valid && ok
	}
	s.logger.Debug().Strs("paths", paths).Bool("valid", valid).Msg("validation sweep finished")
	return valid, nil
}

// IsValid aggregates the validity of the accessors created so far. Fields
// that were never touched count as valid.
func (s *FormState) IsValid() bool {
	valid := true
	s.accessors.Range(func(_ string, accessor *FieldAccessor) bool {
		if !accessor.IsValid() {
			valid = false
			return false
		}
		return true
	})
	return valid
}

// Validating reports whether any accessor has a validation in flight.
func (s *FormState) Validating() bool {
	pending := false
	s.accessors.Range(func(_ string, accessor *FieldAccessor) bool {
		if accessor.Validating() {
			pending = true
			return false
		}
		return true
	})
	return pending
}

// Errors returns the current error message per path, omitting valid fields.
func (s *FormState) Errors() map[string]string {
	return s.errorsFor(s.form.Paths())
}

func (s *FormState) errorsFor(paths []string) map[string]string {
	out := make(map[string]string)
	for _, path := range paths {
		accessor, ok := s.accessors.Load(path)
		if !ok {
			continue
		}
		if msg := accessor.Error(); msg != "" {
			out[path] = msg
		}
	}
	return out
}

// Commit writes staged values of every ModeCommit field.
func (s *FormState) Commit() error {
	for _, path := range s.form.Paths() {
		accessor, ok := s.accessors.Load(path)
		if !ok {
			continue
		}
		if err := accessor.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// Close detaches every accessor from the domain object and cancels value
// validators started by SetRaw. Further updates are ignored.
func (s *FormState) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.accessors.Range(func(_ string, accessor *FieldAccessor) bool {
		accessor.close()
		return true
	})
	s.cancel()
	s.logger.Debug().Msg("form state closed")
}
