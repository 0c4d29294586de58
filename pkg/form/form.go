package form

import (
	"context"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/codec"
	"github.com/goliatone/go-formstate/pkg/model"
)

// Form is the stateless declaration of a domain type's editable fields.
type Form struct {
	shape             model.Shape
	defs              []Definition
	index             map[string]int
	logger            zerolog.Logger
	props             PropsFunc
	conversionMessage string
}

// New validates defs against shape and returns the form. Every path must be
// declared by the shape, appear once and carry a codec.
func New(shape model.Shape, defs []Definition, opts ...Option) (*Form, error) {
	if shape == nil {
		return nil, configError("domain shape is required")
	}
	f := &Form{
		shape:             shape,
		defs:              make([]Definition, 0, len(defs)),
		index:             make(map[string]int, len(defs)),
		logger:            zerolog.Nop(),
		conversionMessage: codec.DefaultConversionMessage,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	for _, def := range defs {
		switch {
		case def.path == "":
			return nil, configError("field path is required")
		case !shape.Has(def.path):
			return nil, configError("field %q is not declared by the domain type", def.path)
		case def.codec == nil:
			return nil, configError("field %q has no codec", def.path)
		}
		if _, exists := f.index[def.path]; exists {
			return nil, configError("field %q declared twice", def.path)
		}
		if def.mode != ModeValue && def.mode != ModeCommit {
			return nil, configError("field %q has unknown mode %q", def.path, def.mode)
		}
		f.index[def.path] = len(f.defs)
		f.defs = append(f.defs, def)
	}
	return f, nil
}

// MustNew panics when New fails. Useful for package-level declarations.
func MustNew(shape model.Shape, defs []Definition, opts ...Option) *Form {
	f, err := New(shape, defs, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// State binds the form to a domain object. Every call returns a new,
// independent FormState; states are never cached per object.
func (f *Form) State(m model.Model) (*FormState, error) {
	if f == nil {
		return nil, configError("form is nil")
	}
	if m == nil {
		return nil, configError("domain object is required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &FormState{
		id:        uuid.NewString(),
		form:      f,
		model:     m,
		ctx:       ctx,
		cancel:    cancel,
		accessors: xsync.NewMapOf[string, *FieldAccessor](),
	}
	s.logger = f.logger.With().Str("form_state", s.id).Logger()
	s.logger.Debug().Int("fields", len(f.defs)).Msg("form state created")
	return s, nil
}

// MustState panics when State fails.
func (f *Form) MustState(m model.Model) *FormState {
	s, err := f.State(m)
	if err != nil {
		panic(err)
	}
	return s
}

// Paths returns the declared paths in declaration order.
func (f *Form) Paths() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.defs))
	for i, def := range f.defs {
		out[i] = def.path
	}
	return out
}

// Definition returns the declaration for path.
func (f *Form) Definition(path string) (Definition, bool) {
	if f == nil {
		return Definition{}, false
	}
	idx, ok := f.index[path]
	if !ok {
		return Definition{}, false
	}
	return f.defs[idx], true
}

// Has reports whether path is declared by the form.
func (f *Form) Has(path string) bool {
	_, ok := f.Definition(path)
	return ok
}

func (f *Form) conversionMessageFor(def Definition) string {
	if def.message != "" {
		return def.message
	}
	return f.conversionMessage
}
