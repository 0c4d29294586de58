package form_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/codec"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/testsupport"
)

type groupFixture struct {
	form  *form.Form
	state *form.FormState
	a     *form.GroupAccessor
	b     *form.GroupAccessor
}

func newGroupFixture(t *testing.T, opts ...form.DefinitionOption) groupFixture {
	t.Helper()

	obj := testsupport.Object(t, map[string]any{"foo": 1.0, "bar": 2.0, "baz": 3.0, "qux": 4.0}, "foo", "bar", "baz", "qux")
	f := form.MustNew(obj.Shape(), []form.Definition{
		form.Field("foo", codec.Number()),
		form.Field("bar", codec.Number()),
		form.Field("baz", codec.Number(), opts...),
		form.Field("qux", codec.Number()),
	})
	state := f.MustState(obj)
	t.Cleanup(state.Close)

	groupA := form.MustGroup(f, "a", "foo", "bar")
	groupB := form.MustGroup(f, "b", "baz", "qux")

	a, err := groupA.Access(state)
	if err != nil {
		t.Fatalf("access a: %v", err)
	}
	b, err := groupB.Access(state)
	if err != nil {
		t.Fatalf("access b: %v", err)
	}
	return groupFixture{form: f, state: state, a: a, b: b}
}

func TestGroup_DisjointGroupsValidateIndependently(t *testing.T) {
	t.Parallel()

	fx := newGroupFixture(t)
	ctx := testsupport.Context(t)

	baz, err := fx.b.Field("baz")
	if err != nil {
		t.Fatalf("field baz: %v", err)
	}
	testsupport.Await(t, baz.SetRaw("not a number"))

	validB, err := fx.b.Validate(ctx)
	if err != nil {
		t.Fatalf("validate b: %v", err)
	}
	if validB {
		t.Fatalf("expected group b to be invalid")
	}

	validA, err := fx.a.Validate(ctx)
	if err != nil {
		t.Fatalf("validate a: %v", err)
	}
	if !validA {
		t.Fatalf("expected group a to stay valid")
	}
	if !fx.a.IsValid() || fx.b.IsValid() {
		t.Fatalf("expected a valid and b invalid, got a=%v b=%v", fx.a.IsValid(), fx.b.IsValid())
	}

	if diff := cmp.Diff(map[string]string{"baz": codec.DefaultConversionMessage}, fx.b.Errors()); diff != "" {
		t.Fatalf("group b errors mismatch (-want +got):\n%s", diff)
	}
	if len(fx.a.Errors()) != 0 {
		t.Fatalf("group a must not report group b errors, got %v", fx.a.Errors())
	}

	if valid, _ := fx.state.Validate(ctx); valid {
		t.Fatalf("the whole form includes group b and must be invalid")
	}
}

func TestGroup_InvalidatingOneGroupDoesNotChangeTheOther(t *testing.T) {
	t.Parallel()

	fx := newGroupFixture(t)
	ctx := testsupport.Context(t)

	before, err := fx.a.Validate(ctx)
	if err != nil {
		t.Fatalf("validate a: %v", err)
	}
	for _, path := range fx.b.Paths() {
		field, err := fx.b.Field(path)
		if err != nil {
			t.Fatalf("field %s: %v", path, err)
		}
		testsupport.Await(t, field.SetRaw("?"))
	}
	after, err := fx.a.Validate(ctx)
	if err != nil {
		t.Fatalf("validate a: %v", err)
	}
	if before != after || !after {
		t.Fatalf("group a result changed from %v to %v", before, after)
	}

	for _, path := range fx.a.Paths() {
		field, _ := fx.a.Field(path)
		testsupport.Await(t, field.SetRaw("?"))
	}
	for _, path := range fx.b.Paths() {
		field, _ := fx.b.Field(path)
		testsupport.Await(t, field.SetRaw("10"))
	}
	if valid, _ := fx.b.Validate(ctx); !valid {
		t.Fatalf("group b must be valid regardless of group a")
	}
}

func TestGroup_ValidateDoesNotWaitOnOtherGroups(t *testing.T) {
	t.Parallel()

	gate := testsupport.NewGate()
	fx := newGroupFixture(t, form.WithValidator(gate.Validator()))
	ctx := testsupport.Context(t)

	baz, _ := fx.b.Field("baz")
	settle := baz.SetRaw("5")
	call := gate.Next(t)

	valid, err := fx.a.Validate(ctx)
	if err != nil {
		t.Fatalf("validate a: %v", err)
	}
	if !valid {
		t.Fatalf("expected group a to be valid")
	}
	if !baz.Validating() {
		t.Fatalf("group a validation must not touch group b's in-flight field")
	}

	call.Pass()
	testsupport.Await(t, settle)
}

func TestGroupAccessor_FieldOutsideGroup(t *testing.T) {
	t.Parallel()

	fx := newGroupFixture(t)

	field, err := fx.a.Field("baz")
	if !errors.Is(err, form.ErrAccess) {
		t.Fatalf("expected ErrAccess, got %v", err)
	}
	if field != nil {
		t.Fatalf("expected no accessor for an out-of-group path")
	}

	if _, err := fx.a.Field("missing"); !errors.Is(err, form.ErrAccess) {
		t.Fatalf("expected ErrAccess for unknown path, got %v", err)
	}

	inside, err := fx.a.Field("foo")
	if err != nil {
		t.Fatalf("field foo: %v", err)
	}
	direct, _ := fx.state.Field("foo")
	if inside != direct {
		t.Fatalf("group view must hand out the form state's accessor")
	}
}

func TestNewGroup_ConfigurationErrors(t *testing.T) {
	t.Parallel()

	f := form.MustNew(model.Paths("foo", "bar"), []form.Definition{form.Field("foo", codec.Number())})

	if _, err := form.NewGroup(f, "empty"); !errors.Is(err, form.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for empty group, got %v", err)
	}
	if _, err := form.NewGroup(f, "bad", "foo", "bar"); !errors.Is(err, form.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for path not declared by the form, got %v", err)
	}
	if _, err := form.NewGroup(nil, "orphan", "foo"); !errors.Is(err, form.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration without a form, got %v", err)
	}

	g, err := f.Group("dupes", "foo", "foo")
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	if diff := cmp.Diff([]string{"foo"}, g.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestGroup_AccessRejectsForeignState(t *testing.T) {
	t.Parallel()

	shape := model.Paths("foo")
	defs := []form.Definition{form.Field("foo", codec.Number())}
	one := form.MustNew(shape, defs)
	two := form.MustNew(shape, defs)

	g := form.MustGroup(one, "g", "foo")
	state := two.MustState(model.MustObject(shape, nil))

	if _, err := g.Access(state); !errors.Is(err, form.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for a state of another form, got %v", err)
	}
}
