package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/goliatone/go-formstate/pkg/codec"
)

// Kind is the simplified shape of a leaf value.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindCustom  Kind = "custom"
	KindAny     Kind = "any"
)

// SchemaField declares one leaf path. Type names the custom type for
// KindCustom fields.
type SchemaField struct {
	Path string
	Kind Kind
	Type string
}

// Schema is an ordered set of declared leaf paths.
type Schema struct {
	fields []SchemaField
	index  map[string]int
}

var _ TypedShape = (*Schema)(nil)

// NewSchema builds a schema from explicit field declarations. Empty or
// duplicate paths are rejected.
func NewSchema(fields ...SchemaField) (*Schema, error) {
	s := &Schema{index: make(map[string]int, len(fields))}
	for _, field := range fields {
		if err := s.add(field); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Paths is a shorthand for a schema whose fields carry no kind information.
func Paths(paths ...string) *Schema {
	s := &Schema{index: make(map[string]int, len(paths))}
	for _, path := range paths {
		_ = s.add(SchemaField{Path: path, Kind: KindAny})
	}
	return s
}

func (s *Schema) add(field SchemaField) error {
	field.Path = strings.TrimSpace(field.Path)
	if field.Path == "" {
		return errors.New("model: schema field path is required")
	}
	if _, exists := s.index[field.Path]; exists {
		return fmt.Errorf("model: duplicate schema path %q", field.Path)
	}
	if field.Kind == "" {
		field.Kind = KindAny
	}
	s.index[field.Path] = len(s.fields)
	s.fields = append(s.fields, field)
	return nil
}

// Has reports whether path is declared.
func (s *Schema) Has(path string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[path]
	return ok
}

// Paths returns the declared paths in declaration order.
func (s *Schema) Paths() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.fields))
	for i, field := range s.fields {
		out[i] = field.Path
	}
	return out
}

// Field returns the declaration for path.
func (s *Schema) Field(path string) (SchemaField, bool) {
	if s == nil {
		return SchemaField{}, false
	}
	idx, ok := s.index[path]
	if !ok {
		return SchemaField{}, false
	}
	return s.fields[idx], true
}

// Fields returns a copy of the declarations.
func (s *Schema) Fields() []SchemaField {
	if s == nil {
		return nil
	}
	return append([]SchemaField(nil), s.fields...)
}

// CustomType returns the custom type name declared for path, if any.
func (s *Schema) CustomType(path string) string {
	field, ok := s.Field(path)
	if !ok || field.Kind != KindCustom {
		return ""
	}
	return field.Type
}

// SchemaOf derives a schema from a struct value or type. Field names follow
// json tags; nested structs contribute dotted paths. Struct types recognised
// by a custom type in reg (IsOfType on the zero value) are treated as leaves.
// A nil reg uses codec.DefaultRegistry.
func SchemaOf(v any, reg *codec.Registry) (*Schema, error) {
	if reg == nil {
		reg = codec.DefaultRegistry
	}
	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model: schema source must be a struct, got %v", t)
	}

	s := &Schema{index: make(map[string]int)}
	if err := collectStruct(s, t, "", reg); err != nil {
		return nil, err
	}
	return s, nil
}

func collectStruct(s *Schema, t reflect.Type, prefix string, reg *codec.Registry) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, skip := jsonName(sf)
		if skip {
			continue
		}
		path := joinPath(prefix, name)
		ft := sf.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}

		if custom := customTypeFor(ft, reg); custom != "" {
			if err := s.add(SchemaField{Path: path, Kind: KindCustom, Type: custom}); err != nil {
				return err
			}
			continue
		}
		if ft.Kind() == reflect.Struct {
			if err := collectStruct(s, ft, path, reg); err != nil {
				return err
			}
			continue
		}
		if err := s.add(SchemaField{Path: path, Kind: kindOf(ft)}); err != nil {
			return err
		}
	}
	return nil
}

func jsonName(sf reflect.StructField) (string, bool) {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name := strings.Split(tag, ",")[0]
	if name == "" {
		name = sf.Name
	}
	return name, false
}

func customTypeFor(t reflect.Type, reg *codec.Registry) string {
	zero := reflect.Zero(t).Interface()
	for _, name := range reg.List() {
		custom, err := reg.Get(name)
		if err != nil {
			continue
		}
		if custom.IsOfType(zero) {
			return name
		}
	}
	return ""
}

func kindOf(t reflect.Type) Kind {
	switch t.Kind() {
	case reflect.String:
		return KindString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInteger
	case reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.Bool:
		return KindBoolean
	default:
		return KindAny
	}
}

func joinPath(parent, child string) string {
	parent = strings.TrimSpace(parent)
	child = strings.TrimSpace(child)
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}
