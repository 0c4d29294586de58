package widgets

import (
	"testing"

	"github.com/goliatone/go-formstate/pkg/codec"
)

func TestResolve_ExplicitHintWins(t *testing.T) {
	reg := NewRegistry()
	field := Field{Path: "subscribed", Codec: codec.Boolean(), Hint: " TextArea "}

	if got, ok := reg.Resolve(field); !ok || got != WidgetTextArea {
		t.Fatalf("expected explicit hint to win, got %q (ok=%v)", got, ok)
	}
}

func TestResolve_Builtins(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		name   string
		field  Field
		expect string
		ok     bool
	}{
		{name: "boolean confirm", field: Field{Codec: codec.Boolean()}, expect: WidgetConfirm, ok: true},
		{name: "sanitized textarea", field: Field{Codec: codec.Sanitized(nil)}, expect: WidgetTextArea, ok: true},
		{name: "integer unresolved", field: Field{Codec: codec.Integer()}},
		{name: "decimal unresolved", field: Field{Codec: codec.Decimal()}},
		{name: "nil codec unresolved", field: Field{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := reg.Resolve(tc.field)
			if got != tc.expect || ok != tc.ok {
				t.Fatalf("expected %q (ok=%v), got %q (ok=%v)", tc.expect, tc.ok, got, ok)
			}
		})
	}
}

func TestRegister_PriorityAndOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register("masked", 100, func(field Field) bool { return field.Path == "pin" })
	reg.Register("first", 10, func(Field) bool { return true })
	reg.Register("second", 10, func(Field) bool { return true })

	if got, _ := reg.Resolve(Field{Path: "pin", Codec: codec.Boolean()}); got != "masked" {
		t.Fatalf("expected higher priority matcher to win, got %q", got)
	}
	if got, _ := reg.Resolve(Field{Path: "notes", Codec: codec.String()}); got != "first" {
		t.Fatalf("expected registration order to break ties, got %q", got)
	}
}

func TestRegistry_EmptyAndNil(t *testing.T) {
	var empty Registry
	if _, ok := empty.Resolve(Field{Codec: codec.Boolean()}); ok {
		t.Fatalf("empty registry must not resolve")
	}
	var nilReg *Registry
	if got, ok := nilReg.Resolve(Field{Hint: "confirm"}); !ok || got != WidgetConfirm {
		t.Fatalf("hints resolve without a registry, got %q (ok=%v)", got, ok)
	}
	nilReg.Register("ignored", 1, func(Field) bool { return true })
	if nilReg.Widgets() != nil {
		t.Fatalf("nil registry lists no widgets")
	}
}

func TestRegistry_Widgets(t *testing.T) {
	reg := NewRegistry()
	reg.Register(WidgetConfirm, 5, func(Field) bool { return false })
	got := reg.Widgets()
	if len(got) != 2 || got[0] != WidgetConfirm || got[1] != WidgetTextArea {
		t.Fatalf("unexpected widgets %v", got)
	}
}
