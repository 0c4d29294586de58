package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formstate/pkg/codec"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/rules"
	"github.com/goliatone/go-formstate/pkg/schema"
)

const (
	// CodecExtension overrides the codec picked for a property.
	CodecExtension = "x-formstate-codec"
	// GroupExtension places a property in a named group.
	GroupExtension = "x-formstate-group"
	// WidgetExtension sets the prompt widget hint for a property.
	WidgetExtension = "x-formstate-widget"
	// FormatDecimal marks string or number properties carried as decimals.
	FormatDecimal = "decimal"
)

var (
	// ErrComponentNotFound is returned when the document lacks the component.
	ErrComponentNotFound = errors.New("openapi: component not found")
	// ErrUnsupported is returned when the component is not an object schema.
	ErrUnsupported = errors.New("openapi: unsupported schema")
)

// Option customises FromComponent.
type Option func(*converter)

// WithExternalRefs allows the loader to resolve references outside the
// document.
func WithExternalRefs(allowed bool) Option {
	return func(c *converter) {
		c.externalRefs = allowed
	}
}

// WithReadOnly keeps readOnly properties, which are skipped by default.
func WithReadOnly(include bool) Option {
	return func(c *converter) {
		c.readOnly = include
	}
}

type converter struct {
	externalRefs bool
	readOnly     bool

	fields []schema.FieldDecl
	shape  []model.SchemaField
	groups map[string][]string
}

// FromComponent loads an OpenAPI document and turns the object schema under
// components.schemas[component] into a form declaration and the matching
// domain shape. Nested objects flatten into dotted paths; arrays and
// properties without a scalar type are skipped.
func FromComponent(ctx context.Context, data []byte, component string, opts ...Option) (schema.Declaration, *model.Schema, error) {
	if err := ctx.Err(); err != nil {
		return schema.Declaration{}, nil, err
	}
	if len(data) == 0 {
		return schema.Declaration{}, nil, errors.New("openapi: document payload is empty")
	}

	c := &converter{groups: make(map[string][]string)}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: c.externalRefs,
	}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return schema.Declaration{}, nil, fmt.Errorf("openapi: load document: %w", err)
	}

	name := strings.TrimSpace(component)
	if spec.Components == nil || spec.Components.Schemas == nil {
		return schema.Declaration{}, nil, fmt.Errorf("%w: %q", ErrComponentNotFound, name)
	}
	ref, ok := spec.Components.Schemas[name]
	if !ok || ref == nil || ref.Value == nil {
		return schema.Declaration{}, nil, fmt.Errorf("%w: %q", ErrComponentNotFound, name)
	}
	if len(ref.Value.Properties) == 0 {
		return schema.Declaration{}, nil, fmt.Errorf("%w: component %q has no properties", ErrUnsupported, name)
	}

	if err := c.walk("", ref.Value); err != nil {
		return schema.Declaration{}, nil, err
	}
	if len(c.fields) == 0 {
		return schema.Declaration{}, nil, fmt.Errorf("%w: component %q has no scalar properties", ErrUnsupported, name)
	}

	shape, err := model.NewSchema(c.shape...)
	if err != nil {
		return schema.Declaration{}, nil, fmt.Errorf("openapi: component %q: %w", name, err)
	}

	decl := schema.Declaration{Name: name, Source: "#/components/schemas/" + name, Fields: c.fields}
	groupNames := make([]string, 0, len(c.groups))
	for group := range c.groups {
		groupNames = append(groupNames, group)
	}
	sort.Strings(groupNames)
	for _, group := range groupNames {
		decl.Groups = append(decl.Groups, schema.GroupDecl{Name: group, Fields: c.groups[group]})
	}

	if err := decl.Validate(); err != nil {
		return schema.Declaration{}, nil, err
	}
	return decl, shape, nil
}

func (c *converter) walk(prefix string, src *openapi3.Schema) error {
	required := make(map[string]struct{}, len(src.Required))
	for _, name := range src.Required {
		required[name] = struct{}{}
	}

	names := make([]string, 0, len(src.Properties))
	for name := range src.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop := src.Properties[name]
		if prop == nil || prop.Value == nil {
			continue
		}
		value := prop.Value
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		if value.ReadOnly && !c.readOnly {
			continue
		}

		typ := firstSchemaType(value.Type)
		if typ == openapi3.TypeObject || (typ == "" && len(value.Properties) > 0) {
			if err := c.walk(path, value); err != nil {
				return err
			}
			continue
		}

		codecName, kind, customType := codecFor(typ, value)
		if codecName == "" {
			continue
		}

		field := schema.FieldDecl{
			Path:  path,
			Codec: codecName,
			Label: strings.TrimSpace(value.Title),
		}
		if widget, ok := value.Extensions[WidgetExtension].(string); ok {
			field.Widget = strings.TrimSpace(widget)
		}
		if _, ok := required[name]; ok {
			field.Rules = append(field.Rules, rules.Spec{Kind: rules.KindRequired})
		}
		field.Rules = append(field.Rules, constraints(typ, value)...)

		c.fields = append(c.fields, field)
		c.shape = append(c.shape, model.SchemaField{Path: path, Kind: kind, Type: customType})
		if group, ok := value.Extensions[GroupExtension].(string); ok && strings.TrimSpace(group) != "" {
			group = strings.TrimSpace(group)
			c.groups[group] = append(c.groups[group], path)
		}
	}
	return nil
}

func codecFor(typ string, src *openapi3.Schema) (string, model.Kind, string) {
	override, _ := src.Extensions[CodecExtension].(string)
	override = strings.TrimSpace(override)

	var (
		name string
		kind model.Kind
	)
	switch typ {
	case openapi3.TypeString:
		name, kind = codec.NameString, model.KindString
	case openapi3.TypeInteger:
		name, kind = codec.NameInteger, model.KindInteger
	case openapi3.TypeNumber:
		name, kind = codec.NameNumber, model.KindNumber
	case openapi3.TypeBoolean:
		name, kind = codec.NameBoolean, model.KindBoolean
	default:
		if override == "" {
			return "", "", ""
		}
		kind = model.KindAny
	}
	if strings.EqualFold(src.Format, FormatDecimal) && (typ == openapi3.TypeString || typ == openapi3.TypeNumber) {
		name = codec.NameDecimal
	}
	if override != "" {
		name = override
	}
	if codec.DefaultRegistry.Has(name) {
		return name, model.KindCustom, name
	}
	return name, kind, ""
}

func constraints(typ string, src *openapi3.Schema) []rules.Spec {
	var out []rules.Spec
	if src.MinLength != 0 {
		out = append(out, rules.Spec{Kind: rules.KindMinLength, Value: int(src.MinLength)})
	}
	if src.MaxLength != nil {
		out = append(out, rules.Spec{Kind: rules.KindMaxLength, Value: int(*src.MaxLength)})
	}
	if src.Pattern != "" {
		out = append(out, rules.Spec{Kind: rules.KindPattern, Value: src.Pattern})
	}
	if src.Min != nil {
		if src.ExclusiveMin {
			out = append(out, rules.Spec{Kind: rules.KindExpr, Value: "value > " + formatNumber(*src.Min), Message: "Must be greater than " + formatNumber(*src.Min)})
		} else {
			out = append(out, rules.Spec{Kind: rules.KindMin, Value: *src.Min})
		}
	}
	if src.Max != nil {
		if src.ExclusiveMax {
			out = append(out, rules.Spec{Kind: rules.KindExpr, Value: "value < " + formatNumber(*src.Max), Message: "Must be less than " + formatNumber(*src.Max)})
		} else {
			out = append(out, rules.Spec{Kind: rules.KindMax, Value: *src.Max})
		}
	}
	if rule, ok := enumRule(typ, src.Enum); ok {
		out = append(out, rule)
	}
	return out
}

func enumRule(typ string, values []any) (rules.Spec, bool) {
	if len(values) == 0 {
		return rules.Spec{}, false
	}
	terms := make([]string, 0, len(values))
	for _, v := range values {
		switch typed := v.(type) {
		case string:
			terms = append(terms, "value == "+strconv.Quote(typed))
		case float64:
			terms = append(terms, "value == "+formatNumber(typed))
		case bool:
			terms = append(terms, "value == "+strconv.FormatBool(typed))
		default:
			return rules.Spec{}, false
		}
	}
	if typ == openapi3.TypeString {
		// Blank input is left to the required rule.
		terms = append(terms, `value == ""`)
	}
	return rules.Spec{Kind: rules.KindExpr, Value: strings.Join(terms, " || "), Message: "Not an allowed value"}, true
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	for _, value := range values {
		if value != "null" {
			return value
		}
	}
	return ""
}
