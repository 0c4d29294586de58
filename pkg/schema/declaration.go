package schema

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formstate/pkg/codec"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/rules"
)

// Declaration is the file form of a Form: its fields and named groups.
type Declaration struct {
	Name   string      `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Source string      `json:"-" yaml:"-" toml:"-"`
	Fields []FieldDecl `json:"fields" yaml:"fields" toml:"fields"`
	Groups []GroupDecl `json:"groups,omitempty" yaml:"groups,omitempty" toml:"groups,omitempty"`
}

// FieldDecl declares one field. Codec names resolve through codec.Lookup;
// an empty codec falls back to the shape's custom type for the path, then to
// "string".
type FieldDecl struct {
	Path    string       `json:"path" yaml:"path" toml:"path"`
	Codec   string       `json:"codec,omitempty" yaml:"codec,omitempty" toml:"codec,omitempty"`
	Mode    string       `json:"mode,omitempty" yaml:"mode,omitempty" toml:"mode,omitempty"`
	Message string       `json:"message,omitempty" yaml:"message,omitempty" toml:"message,omitempty"`
	Label   string       `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Widget  string       `json:"widget,omitempty" yaml:"widget,omitempty" toml:"widget,omitempty"`
	Rules   []rules.Spec `json:"rules,omitempty" yaml:"rules,omitempty" toml:"rules,omitempty"`
}

// GroupDecl names a subset of the declared fields.
type GroupDecl struct {
	Name   string   `json:"name" yaml:"name" toml:"name"`
	Fields []string `json:"fields" yaml:"fields" toml:"fields"`
}

// Field returns the declaration for path.
func (d Declaration) Field(path string) (FieldDecl, bool) {
	for _, field := range d.Fields {
		if field.Path == path {
			return field, true
		}
	}
	return FieldDecl{}, false
}

// Paths lists the declared field paths in order.
func (d Declaration) Paths() []string {
	out := make([]string, 0, len(d.Fields))
	for _, field := range d.Fields {
		out = append(out, field.Path)
	}
	return out
}

// Labels maps declared paths to their display labels, defaulting to the path.
func (d Declaration) Labels() map[string]string {
	out := make(map[string]string, len(d.Fields))
	for _, field := range d.Fields {
		label := strings.TrimSpace(field.Label)
		if label == "" {
			label = field.Path
		}
		out[field.Path] = label
	}
	return out
}

// Widgets maps paths to their declared widget hints. Undeclared hints are
// omitted.
func (d Declaration) Widgets() map[string]string {
	out := make(map[string]string)
	for _, field := range d.Fields {
		if widget := strings.TrimSpace(field.Widget); widget != "" {
			out[field.Path] = widget
		}
	}
	return out
}

// Shape derives a domain shape from the declared codecs. Codecs naming a
// registered custom type produce custom fields so snapshots go through the
// persisted contract.
func (d Declaration) Shape() (*model.Schema, error) {
	fields := make([]model.SchemaField, 0, len(d.Fields))
	for _, field := range d.Fields {
		name := strings.ToLower(strings.TrimSpace(field.Codec))
		sf := model.SchemaField{Path: field.Path, Kind: model.KindAny}
		switch {
		case codec.DefaultRegistry.Has(name):
			sf.Kind, sf.Type = model.KindCustom, name
		case name == codec.NameInteger:
			sf.Kind = model.KindInteger
		case name == codec.NameNumber:
			sf.Kind = model.KindNumber
		case name == codec.NameBoolean:
			sf.Kind = model.KindBoolean
		case name == "" || name == codec.NameString || name == codec.NameText || name == codec.NameSanitized:
			sf.Kind = model.KindString
		}
		fields = append(fields, sf)
	}
	shape, err := model.NewSchema(fields...)
	if err != nil {
		return nil, fmt.Errorf("schema: %s: %w", d.label(), err)
	}
	return shape, nil
}

// Validate checks the declaration without a shape: paths are present and
// unique, codecs resolve, modes are known, rules compile and groups reference
// declared fields.
func (d Declaration) Validate() error {
	_, err := d.definitions(nil)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(d.Groups))
	for _, group := range d.Groups {
		if strings.TrimSpace(group.Name) == "" {
			return d.errorf("group with empty name")
		}
		if _, exists := seen[group.Name]; exists {
			return d.errorf("duplicate group %q", group.Name)
		}
		seen[group.Name] = struct{}{}
		if len(group.Fields) == 0 {
			return d.errorf("group %q declares no fields", group.Name)
		}
		for _, path := range group.Fields {
			if _, ok := d.Field(path); !ok {
				return d.errorf("group %q references undeclared field %q", group.Name, path)
			}
		}
	}
	return nil
}

// Build turns the declaration into a Form over shape plus its groups keyed by
// name.
func (d Declaration) Build(shape model.Shape, opts ...form.Option) (*form.Form, map[string]*form.Group, error) {
	if err := d.Validate(); err != nil {
		return nil, nil, err
	}
	defs, err := d.definitions(shape)
	if err != nil {
		return nil, nil, err
	}
	f, err := form.New(shape, defs, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("schema: %s: %w", d.label(), err)
	}

	groups := make(map[string]*form.Group, len(d.Groups))
	for _, decl := range d.Groups {
		group, err := form.NewGroup(f, decl.Name, decl.Fields...)
		if err != nil {
			return nil, nil, fmt.Errorf("schema: %s: %w", d.label(), err)
		}
		groups[group.Name()] = group
	}
	return f, groups, nil
}

func (d Declaration) definitions(shape model.Shape) ([]form.Definition, error) {
	if len(d.Fields) == 0 {
		return nil, d.errorf("declares no fields")
	}
	typed, _ := shape.(model.TypedShape)

	defs := make([]form.Definition, 0, len(d.Fields))
	seen := make(map[string]struct{}, len(d.Fields))
	for idx, field := range d.Fields {
		path := strings.TrimSpace(field.Path)
		if path == "" {
			return nil, d.errorf("field %d has an empty path", idx)
		}
		if _, exists := seen[path]; exists {
			return nil, d.errorf("duplicate field path %q", path)
		}
		seen[path] = struct{}{}

		name := strings.TrimSpace(field.Codec)
		if name == "" && typed != nil {
			name = typed.CustomType(path)
		}
		if name == "" {
			name = codec.NameString
		}
		c, err := codec.Lookup(name)
		if err != nil {
			return nil, d.errorf("field %q: %v", path, err)
		}

		mode := form.Mode(strings.ToLower(strings.TrimSpace(field.Mode)))
		switch mode {
		case "", form.ModeValue, form.ModeCommit:
		default:
			return nil, d.errorf("field %q: unknown mode %q", path, field.Mode)
		}

		opts, err := rules.Options(field.Rules)
		if err != nil {
			return nil, d.errorf("field %q: %v", path, err)
		}
		opts = append(opts, form.WithMode(mode))
		if field.Message != "" {
			opts = append(opts, form.WithErrorMessage(field.Message))
		}
		defs = append(defs, form.Field(path, c, opts...))
	}
	return defs, nil
}

func (d Declaration) label() string {
	switch {
	case d.Name != "" && d.Source != "":
		return fmt.Sprintf("declaration %q (file %s)", d.Name, d.Source)
	case d.Name != "":
		return fmt.Sprintf("declaration %q", d.Name)
	case d.Source != "":
		return "file " + d.Source
	default:
		return "declaration"
	}
}

func (d Declaration) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidDeclaration, d.label(), fmt.Sprintf(format, args...))
}
