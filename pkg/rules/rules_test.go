package rules_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/codec"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/rules"
	"github.com/goliatone/go-formstate/pkg/testsupport"
)

func TestBuild_RawStage(t *testing.T) {
	t.Parallel()

	raw, value, err := rules.Build([]rules.Spec{
		{Kind: rules.KindRequired},
		{Kind: rules.KindMinLength, Value: 3},
		{Kind: rules.KindMaxLength, Value: "5", Message: "Too long"},
		{Kind: rules.KindPattern, Value: "^[a-z]+$"},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if value != nil {
		t.Fatalf("expected no value stage for raw-only rules")
	}

	cases := map[string]string{
		"":       "Required",
		"  ":     "Required",
		"ab":     "Must be at least 3 characters",
		"abcdef": "Too long",
		"ab1":    "Invalid format",
		"abc":    "",
		"héllo":  "Invalid format",
	}
	for input, want := range cases {
		if got := raw(input); got != want {
			t.Fatalf("raw(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestBuild_OptionalFieldsPassEmptyInput(t *testing.T) {
	t.Parallel()

	raw, _, err := rules.Build([]rules.Spec{
		{Kind: rules.KindMinLength, Value: 2.0},
		{Kind: rules.KindPattern, Value: `^\d+$`},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := raw(""); got != "" {
		t.Fatalf("expected empty input to pass, got %q", got)
	}
}

func TestBuild_ValueStage(t *testing.T) {
	t.Parallel()

	raw, value, err := rules.Build([]rules.Spec{
		{Kind: rules.KindMin, Value: 18},
		{Kind: rules.KindMax, Value: int64(120)},
		{Kind: rules.KindExpr, Value: "value != 42", Message: "Not that one"},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if raw != nil {
		t.Fatalf("expected no raw stage for value-only rules")
	}

	ctx := context.Background()
	cases := []struct {
		value any
		want  string
	}{
		{value: 17, want: "Must be at least 18"},
		{value: 121.5, want: "Must be at most 120"},
		{value: 42, want: "Not that one"},
		{value: 30, want: ""},
		{value: "not a number", want: "Must be at least 18"},
	}
	for _, tc := range cases {
		if got := value(ctx, tc.value); got != tc.want {
			t.Fatalf("value(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if got := value(cancelled, 30); got == "" {
		t.Fatalf("expected cancelled context to fail validation")
	}
}

func TestBuild_ExprStageSelection(t *testing.T) {
	t.Parallel()

	raw, value, err := rules.Build([]rules.Spec{
		{Kind: rules.KindExpr, Value: `raw != "n/a"`, Message: "Say something"},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if raw == nil || value != nil {
		t.Fatalf("expected an expression on raw to run at the raw stage")
	}
	if got := raw("n/a"); got != "Say something" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		spec rules.Spec
		want error
	}{
		{name: "unknown kind", spec: rules.Spec{Kind: "email"}, want: rules.ErrUnknownKind},
		{name: "min without value", spec: rules.Spec{Kind: rules.KindMin}, want: rules.ErrInvalidRule},
		{name: "min not numeric", spec: rules.Spec{Kind: rules.KindMin, Value: "ten"}, want: rules.ErrInvalidRule},
		{name: "negative length", spec: rules.Spec{Kind: rules.KindMinLength, Value: -1}, want: rules.ErrInvalidRule},
		{name: "fractional length", spec: rules.Spec{Kind: rules.KindMaxLength, Value: 2.5}, want: rules.ErrInvalidRule},
		{name: "bad pattern", spec: rules.Spec{Kind: rules.KindPattern, Value: "("}, want: rules.ErrInvalidRule},
		{name: "empty pattern", spec: rules.Spec{Kind: rules.KindPattern}, want: rules.ErrInvalidRule},
		{name: "bad expr", spec: rules.Spec{Kind: rules.KindExpr, Value: "value = 1"}, want: rules.ErrInvalidRule},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, _, err := rules.Build([]rules.Spec{tc.spec}); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestOptions_DriveAccessor(t *testing.T) {
	t.Parallel()

	opts, err := rules.Options([]rules.Spec{
		{Kind: rules.KindRequired, Message: "Age is required"},
		{Kind: rules.KindMin, Value: 18},
	})
	if err != nil {
		t.Fatalf("options: %v", err)
	}

	obj := testsupport.Object(t, nil, "age")
	f := form.MustNew(obj.Shape(), []form.Definition{form.Field("age", codec.Integer(), opts...)})
	state := f.MustState(obj)
	field := state.MustField("age")

	testsupport.Await(t, field.SetRaw(""))
	testsupport.Await(t, field.SetRaw("abc"))
	if got := field.Error(); got != codec.DefaultConversionMessage {
		t.Fatalf("expected conversion failure, got %q", got)
	}
	testsupport.Await(t, field.SetRaw("12"))
	testsupport.Await(t, field.SetRaw(" "))
	testsupport.Await(t, field.SetRaw("16"))
	testsupport.Await(t, field.SetRaw("21"))

	if !field.IsValid() {
		t.Fatalf("expected valid field, got %q", field.Error())
	}
	if diff := cmp.Diff(map[string]any{"age": 21}, obj.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	testsupport.Await(t, field.SetRaw("16"))
	if got := field.Error(); got != "Must be at least 18" {
		t.Fatalf("expected min failure, got %q", got)
	}
	testsupport.Await(t, field.SetRaw(""))
	if got := field.Error(); got != "Age is required" {
		t.Fatalf("expected required failure, got %q", got)
	}
}
