// Package formstate ties declarations, domain shapes and forms together for
// callers that want a ready form from a file or an OpenAPI component.
package formstate

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/goliatone/go-formstate/pkg/codec"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/openapi"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// Bundle is a built form together with the declaration and shape it came from.
type Bundle struct {
	Declaration schema.Declaration
	Shape       *model.Schema
	Form        *form.Form
	Groups      map[string]*form.Group
}

// FromDeclaration builds a Bundle using the shape derived from decl's codecs.
func FromDeclaration(decl schema.Declaration, opts ...form.Option) (*Bundle, error) {
	shape, err := decl.Shape()
	if err != nil {
		return nil, err
	}
	return build(decl, shape, opts...)
}

// LoadFile reads a JSON, YAML or TOML declaration and builds its Bundle.
func LoadFile(path string, opts ...form.Option) (*Bundle, error) {
	decl, err := schema.Load(schema.SourceFromFile(path))
	if err != nil {
		return nil, err
	}
	return FromDeclaration(decl, opts...)
}

// FromOpenAPI builds a Bundle from an OpenAPI component schema.
func FromOpenAPI(ctx context.Context, data []byte, component string, opts ...form.Option) (*Bundle, error) {
	decl, shape, err := openapi.FromComponent(ctx, data, component)
	if err != nil {
		return nil, err
	}
	return build(decl, shape, opts...)
}

func build(decl schema.Declaration, shape *model.Schema, opts ...form.Option) (*Bundle, error) {
	f, groups, err := decl.Build(shape, opts...)
	if err != nil {
		return nil, err
	}
	return &Bundle{Declaration: decl, Shape: shape, Form: f, Groups: groups}, nil
}

// NewObject creates a domain object over the bundle's shape and restores
// snapshot into it. A nil snapshot yields an empty object. Numbers decoded
// from JSON, YAML or TOML are coerced to the shape's integer and number kinds.
func (b *Bundle) NewObject(snapshot map[string]any) (*model.Object, error) {
	obj, err := model.NewObject(b.Shape, nil)
	if err != nil {
		return nil, err
	}
	if len(snapshot) == 0 {
		return obj, nil
	}
	if err := obj.Restore(Coerce(b.Shape, snapshot), codec.DefaultRegistry); err != nil {
		return nil, err
	}
	return obj, nil
}

// Open creates a domain object from snapshot and a fresh FormState over it.
func (b *Bundle) Open(snapshot map[string]any) (*model.Object, *form.FormState, error) {
	obj, err := b.NewObject(snapshot)
	if err != nil {
		return nil, nil, err
	}
	state, err := b.Form.State(obj)
	if err != nil {
		return nil, nil, err
	}
	return obj, state, nil
}

// Group returns the named group.
func (b *Bundle) Group(name string) (*form.Group, error) {
	group, ok := b.Groups[name]
	if !ok {
		return nil, fmt.Errorf("formstate: group %q not declared (have %v)", name, b.GroupNames())
	}
	return group, nil
}

// GroupNames lists declared group names in sorted order.
func (b *Bundle) GroupNames() []string {
	names := make([]string, 0, len(b.Groups))
	for name := range b.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Coerce flattens snapshot to the shape's dotted paths and converts decoded
// numbers to the Go types the builtin codecs render: int for integer fields
// and float64 for number fields. Values that cannot be converted exactly are
// kept as decoded.
func Coerce(shape *model.Schema, snapshot map[string]any) map[string]any {
	out := make(map[string]any, len(snapshot))
	for _, field := range shape.Fields() {
		value, ok := lookup(snapshot, field.Path)
		if !ok {
			continue
		}
		switch field.Kind {
		case model.KindInteger:
			if n, ok := toInt(value); ok {
				value = n
			}
		case model.KindNumber:
			if f, ok := toFloat(value); ok {
				value = f
			}
		}
		out[field.Path] = value
	}
	return out
}

func lookup(root map[string]any, path string) (any, bool) {
	if value, ok := root[path]; ok {
		return value, true
	}
	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		return nil, false
	}
	child, ok := root[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return lookup(child, rest)
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint64:
		if v > math.MaxInt {
			return 0, false
		}
		return int(v), true
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}
