package schema_test

import (
	"errors"
	"os"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/codec"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/rules"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/testsupport"
)

func TestLoadFS_Testdata(t *testing.T) {
	t.Parallel()

	store, err := schema.LoadFS(os.DirFS("testdata"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"contact", "invoice", "profile"}, store.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	profile, ok := store.Declaration("profile")
	if !ok {
		t.Fatalf("expected profile declaration")
	}
	want := schema.Declaration{
		Name:   "profile",
		Source: "profile.yaml",
		Fields: []schema.FieldDecl{
			{Path: "name", Codec: "text", Label: "Full name", Rules: []rules.Spec{
				{Kind: "required", Message: "Name is required"},
				{Kind: "maxLength", Value: 40},
			}},
			{Path: "age", Codec: "integer", Message: "Age must be a whole number", Rules: []rules.Spec{
				{Kind: "min", Value: 18},
			}},
			{Path: "bio", Codec: "sanitized"},
		},
		Groups: []schema.GroupDecl{
			{Name: "identity", Fields: []string{"name", "age"}},
			{Name: "about", Fields: []string{"bio"}},
		},
	}
	if diff := cmp.Diff(want, profile); diff != "" {
		t.Fatalf("profile mismatch (-want +got):\n%s", diff)
	}

	contact, _ := store.Declaration("contact")
	if diff := cmp.Diff([]string{"email", "address.city"}, contact.Paths()); diff != "" {
		t.Fatalf("contact paths mismatch (-want +got):\n%s", diff)
	}
	if got := contact.Labels()["address.city"]; got != "address.city" {
		t.Fatalf("expected label to default to the path, got %q", got)
	}
}

func TestLoadFS_Empty(t *testing.T) {
	t.Parallel()

	store, err := schema.LoadFS(nil)
	if err != nil || !store.Empty() {
		t.Fatalf("expected empty store, got %v %v", store.Names(), err)
	}

	store, err = schema.LoadFS(fstest.MapFS{"README.md": {Data: []byte("# notes")}})
	if err != nil || !store.Empty() {
		t.Fatalf("non-declaration files must be skipped, got %v %v", store.Names(), err)
	}
}

func TestLoadFS_DuplicateNames(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"a/form.json": {Data: []byte(`{"name": "form", "fields": [{"path": "a"}]}`)},
		"b/form.yaml": {Data: []byte("name: form\nfields:\n  - path: b\n")},
	}
	if _, err := schema.LoadFS(fsys); !errors.Is(err, schema.ErrInvalidDeclaration) {
		t.Fatalf("expected duplicate declaration error, got %v", err)
	}
}

func TestParse_SniffsUnknownExtensions(t *testing.T) {
	t.Parallel()

	payloads := map[string]string{
		"json": `{"fields": [{"path": "title"}]}`,
		"yaml": "fields:\n  - path: title\n",
		"toml": "[[fields]]\npath = \"title\"\n",
	}
	for format, payload := range payloads {
		decl, err := schema.Parse([]byte(payload), "inline-"+format)
		if err != nil {
			t.Fatalf("%s: parse: %v", format, err)
		}
		if diff := cmp.Diff([]string{"title"}, decl.Paths()); diff != "" {
			t.Fatalf("%s: paths mismatch (-want +got):\n%s", format, diff)
		}
		if decl.Name != "inline-"+format {
			t.Fatalf("%s: expected base name, got %q", format, decl.Name)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		file    string
		payload string
		want    error
	}{
		{name: "empty", file: "x.json", payload: "  ", want: schema.ErrParse},
		{name: "broken json", file: "x.json", payload: `{"fields": [`, want: schema.ErrParse},
		{name: "unknown json key", file: "x.json", payload: `{"feilds": []}`, want: schema.ErrParse},
		{name: "no fields", file: "x.yaml", payload: "name: nothing\n", want: schema.ErrInvalidDeclaration},
		{name: "empty path", file: "x.yaml", payload: "fields:\n  - codec: text\n", want: schema.ErrInvalidDeclaration},
		{name: "duplicate path", file: "x.yaml", payload: "fields:\n  - path: a\n  - path: a\n", want: schema.ErrInvalidDeclaration},
		{name: "unknown codec", file: "x.yaml", payload: "fields:\n  - path: a\n    codec: money\n", want: schema.ErrInvalidDeclaration},
		{name: "unknown mode", file: "x.yaml", payload: "fields:\n  - path: a\n    mode: later\n", want: schema.ErrInvalidDeclaration},
		{name: "bad rule", file: "x.yaml", payload: "fields:\n  - path: a\n    rules:\n      - kind: shout\n", want: schema.ErrInvalidDeclaration},
		{name: "group undeclared field", file: "x.yaml", payload: "fields:\n  - path: a\ngroups:\n  - name: g\n    fields: [b]\n", want: schema.ErrInvalidDeclaration},
		{name: "empty group", file: "x.yaml", payload: "fields:\n  - path: a\ngroups:\n  - name: g\n", want: schema.ErrInvalidDeclaration},
		{name: "duplicate group", file: "x.toml", payload: "[[fields]]\npath = \"a\"\n[[groups]]\nname = \"g\"\nfields = [\"a\"]\n[[groups]]\nname = \"g\"\nfields = [\"a\"]\n", want: schema.ErrInvalidDeclaration},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := schema.Parse([]byte(tc.payload), tc.file); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDeclaration_BuildProfile(t *testing.T) {
	t.Parallel()

	decl, err := schema.Load(schema.SourceFromFile("testdata/profile.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	obj := testsupport.Object(t, map[string]any{"age": 30}, "name", "age", "bio")
	f, groups, err := decl.Build(obj.Shape())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if diff := cmp.Diff([]string{"name", "age", "bio"}, f.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}

	state := f.MustState(obj)
	identity, err := groups["identity"].Access(state)
	if err != nil {
		t.Fatalf("access identity: %v", err)
	}
	about, err := groups["about"].Access(state)
	if err != nil {
		t.Fatalf("access about: %v", err)
	}

	ctx := testsupport.Context(t)
	if valid, _ := identity.Validate(ctx); valid {
		t.Fatalf("expected required name to fail the identity group")
	}
	if diff := cmp.Diff(map[string]string{"name": "Name is required"}, identity.Errors()); diff != "" {
		t.Fatalf("identity errors mismatch (-want +got):\n%s", diff)
	}

	age, _ := identity.Field("age")
	testsupport.Await(t, age.SetRaw("old"))
	if got := age.Error(); got != "Age must be a whole number" {
		t.Fatalf("expected declared conversion message, got %q", got)
	}
	testsupport.Await(t, age.SetRaw("12"))
	if got := age.Error(); got != "Must be at least 18" {
		t.Fatalf("expected min rule message, got %q", got)
	}

	bio, _ := about.Field("bio")
	testsupport.Await(t, bio.SetRaw("<b>hi</b>"))
	if got := bio.Error(); got != codec.MarkupMessage {
		t.Fatalf("expected markup rejection, got %q", got)
	}
	testsupport.Await(t, bio.SetRaw("hi there"))
	if valid, _ := about.Validate(ctx); !valid {
		t.Fatalf("about group must validate independently, errors: %v", about.Errors())
	}
}

func TestDeclaration_BuildInvoice(t *testing.T) {
	t.Parallel()

	decl, err := schema.Load(schema.SourceFromFile("testdata/invoice.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	shape, err := model.NewSchema(
		model.SchemaField{Path: "number", Kind: model.KindString},
		model.SchemaField{Path: "amount", Kind: model.KindCustom, Type: codec.NameDecimal},
		model.SchemaField{Path: "approved", Kind: model.KindBoolean},
	)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	obj := model.MustObject(shape, nil)

	f, groups, err := decl.Build(shape)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	state := f.MustState(obj)

	number := state.MustField("number")
	testsupport.Await(t, number.SetRaw("42"))
	if got := number.Error(); got != "Use INV-<digits>" {
		t.Fatalf("expected pattern message, got %q", got)
	}

	totals, _ := groups["totals"].Access(state)
	amount, _ := totals.Field("amount")
	testsupport.Await(t, amount.SetRaw("-3.10"))
	if got := amount.Error(); got != "Amount must be positive" {
		t.Fatalf("expected expr rule message, got %q", got)
	}
	testsupport.Await(t, amount.SetRaw("3.10"))
	if !amount.IsValid() {
		t.Fatalf("expected valid amount, got %q", amount.Error())
	}

	approved := state.MustField("approved")
	testsupport.Await(t, approved.SetRaw("true"))
	if _, ok := obj.Get("approved"); ok {
		t.Fatalf("commit mode field must stage until Commit")
	}
	if err := state.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got, _ := obj.Get("approved"); got != true {
		t.Fatalf("expected committed approval, got %v", got)
	}
}

func TestDeclaration_CodecFallsBackToShapeType(t *testing.T) {
	t.Parallel()

	decl, err := schema.Parse([]byte("fields:\n  - path: price\n  - path: note\n"), "inline.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	shape, err := model.NewSchema(
		model.SchemaField{Path: "price", Kind: model.KindCustom, Type: codec.NameDecimal},
		model.SchemaField{Path: "note", Kind: model.KindString},
	)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	f, _, err := decl.Build(shape)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	state := f.MustState(model.MustObject(shape, nil))
	price := state.MustField("price")
	testsupport.Await(t, price.SetRaw("abc"))
	if got := price.Error(); got == "" {
		t.Fatalf("expected decimal codec to reject abc")
	}
	note := state.MustField("note")
	testsupport.Await(t, note.SetRaw("abc"))
	if got := note.Error(); got != "" {
		t.Fatalf("expected string codec to accept abc, got %q", got)
	}
}

func TestDeclaration_BuildRejectsPathOutsideShape(t *testing.T) {
	t.Parallel()

	decl, err := schema.Parse([]byte(`{"fields": [{"path": "ghost"}]}`), "ghost.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, _, err := decl.Build(model.Paths("real")); !errors.Is(err, form.ErrConfiguration) {
		t.Fatalf("expected form configuration error, got %v", err)
	}
}

func TestDeclaration_Shape(t *testing.T) {
	t.Parallel()

	decl, err := schema.Load(schema.SourceFromFile("testdata/invoice.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	shape, err := decl.Shape()
	if err != nil {
		t.Fatalf("shape: %v", err)
	}
	want := []model.SchemaField{
		{Path: "number", Kind: model.KindString},
		{Path: "amount", Kind: model.KindCustom, Type: codec.NameDecimal},
		{Path: "approved", Kind: model.KindBoolean},
	}
	if diff := cmp.Diff(want, shape.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestDeclaration_Widgets(t *testing.T) {
	t.Parallel()

	decl, err := schema.Parse([]byte(`
fields:
  - path: notes
    widget: textarea
  - path: title
    widget: "  "
  - path: done
    codec: boolean
`), "todo.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"notes": "textarea"}, decl.Widgets()); diff != "" {
		t.Fatalf("widgets mismatch (-want +got):\n%s", diff)
	}
}
