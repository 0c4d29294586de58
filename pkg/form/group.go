package form

import (
	"context"
	"strings"
)

// Group is a named subset of a form's fields that can be accessed and
// validated on its own.
type Group struct {
	form  *Form
	name  string
	paths []string
	index map[string]struct{}
}

// NewGroup declares a group over f. Every path must be declared by f.
func NewGroup(f *Form, name string, paths ...string) (*Group, error) {
	if f == nil {
		return nil, configError("group %q requires a form", name)
	}
	if len(paths) == 0 {
		return nil, configError("group %q declares no fields", name)
	}
	g := &Group{
		form:  f,
		name:  strings.TrimSpace(name),
		paths: make([]string, 0, len(paths)),
		index: make(map[string]struct{}, len(paths)),
	}
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if !f.Has(path) {
			return nil, configError("group %q field %q is not declared by the form", g.name, path)
		}
		if _, exists := g.index[path]; exists {
			continue
		}
		g.index[path] = struct{}{}
		g.paths = append(g.paths, path)
	}
	return g, nil
}

// MustGroup panics when NewGroup fails.
func MustGroup(f *Form, name string, paths ...string) *Group {
	g, err := NewGroup(f, name, paths...)
	if err != nil {
		panic(err)
	}
	return g
}

// Group is shorthand for NewGroup(f, name, paths...).
func (f *Form) Group(name string, paths ...string) (*Group, error) {
	return NewGroup(f, name, paths...)
}

// Name returns the group name.
func (g *Group) Name() string {
	return g.name
}

// Paths returns the group's paths in declaration order.
func (g *Group) Paths() []string {
	return append([]string(nil), g.paths...)
}

// Has reports whether path belongs to the group.
func (g *Group) Has(path string) bool {
	_, ok := g.index[path]
	return ok
}

// Access returns the group's view over s. States created by a different form
// are rejected.
func (g *Group) Access(s *FormState) (*GroupAccessor, error) {
	if s == nil {
		return nil, configError("group %q requires a form state", g.name)
	}
	if s.form != g.form {
		return nil, configError("group %q belongs to a different form", g.name)
	}
	return &GroupAccessor{group: g, state: s}, nil
}

// GroupAccessor restricts a FormState to one group's fields.
type GroupAccessor struct {
	group *Group
	state *FormState
}

// Group returns the group the view was created from.
func (ga *GroupAccessor) Group() *Group {
	return ga.group
}

// Paths returns the group's paths.
func (ga *GroupAccessor) Paths() []string {
	return ga.group.Paths()
}

// Field returns the accessor for path. Paths outside the group fail with
// ErrAccess even when the form declares them.
func (ga *GroupAccessor) Field(path string) (*FieldAccessor, error) {
	if !ga.group.Has(path) {
		return nil, &PathError{Op: "group " + ga.group.name, Path: path, Err: ErrAccess}
	}
	return ga.state.Field(path)
}

// Validate validates only the group's fields and waits for them to settle.
// Fields outside the group are neither touched nor awaited.
func (ga *GroupAccessor) Validate(ctx context.Context) (bool, error) {
	return ga.state.validatePaths(ctx, ga.group.paths)
}

// IsValid aggregates the validity of the group's fields created so far.
func (ga *GroupAccessor) IsValid() bool {
	for _, path := range ga.group.paths {
		accessor, ok := ga.state.accessors.Load(path)
		if ok && !accessor.IsValid() {
			return false
		}
	}
	return true
}

// Errors returns the current error message per group path.
func (ga *GroupAccessor) Errors() map[string]string {
	return ga.state.errorsFor(ga.group.paths)
}
