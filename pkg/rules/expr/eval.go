package expr

import (
	"fmt"
	"strconv"
	"strings"
)

type node interface {
	eval(vars Vars) (bool, error)
}

type orNode struct {
	left  node
	right node
}

func (n orNode) eval(vars Vars) (bool, error) {
	ok, err := n.left.eval(vars)
	if err != nil || ok {
		return ok, err
	}
	return n.right.eval(vars)
}

type andNode struct {
	left  node
	right node
}

func (n andNode) eval(vars Vars) (bool, error) {
	ok, err := n.left.eval(vars)
	if err != nil || !ok {
		return false, err
	}
	return n.right.eval(vars)
}

type notNode struct {
	inner node
}

func (n notNode) eval(vars Vars) (bool, error) {
	ok, err := n.inner.eval(vars)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

type literalKind int

const (
	litString literalKind = iota
	litNumber
	litBool
	litNull
)

type literal struct {
	kind   literalKind
	raw    string
	number float64
}

type compareNode struct {
	identifier string
	op         tokenKind
	literal    literal
}

func (n compareNode) eval(vars Vars) (bool, error) {
	value, _ := lookup(vars, n.identifier)

	switch n.literal.kind {
	case litNull:
		return equality(n.op, value == nil), nil
	case litBool:
		got, _ := coerceBool(value)
		return equality(n.op, got == (n.literal.raw == "true")), nil
	case litNumber:
		got, ok := coerceNumber(value)
		if !ok {
			// Missing or non-numeric values only satisfy "!=".
			return n.op == tokenNeq, nil
		}
		return ordered(n.op, compareFloat(got, n.literal.number)), nil
	case litString:
		return ordered(n.op, strings.Compare(coerceString(value), n.literal.raw)), nil
	default:
		return false, fmt.Errorf("rules/expr: unsupported literal %q", n.literal.raw)
	}
}

func equality(op tokenKind, equal bool) bool {
	if op == tokenNeq {
		return !equal
	}
	return equal
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func ordered(op tokenKind, cmp int) bool {
	switch op {
	case tokenEq:
		return cmp == 0
	case tokenNeq:
		return cmp != 0
	case tokenLt:
		return cmp < 0
	case tokenLte:
		return cmp <= 0
	case tokenGt:
		return cmp > 0
	case tokenGte:
		return cmp >= 0
	default:
		return false
	}
}

type truthyNode struct {
	identifier string
}

func (n truthyNode) eval(vars Vars) (bool, error) {
	value, ok := lookup(vars, n.identifier)
	if !ok {
		return false, nil
	}
	return truthy(value), nil
}

func lookup(vars Vars, key string) (any, bool) {
	key = strings.TrimSpace(key)
	if len(vars) == 0 || key == "" {
		return nil, false
	}
	if v, ok := vars[key]; ok {
		return v, true
	}

	var current any = map[string]any(vars)
	for _, part := range strings.Split(key, ".") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, false
		}
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]string:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		default:
			return nil, false
		}
	}
	return current, true
}

func truthy(value any) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case float32:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

func coerceBool(value any) (bool, bool) {
	if value == nil {
		return false, false
	}
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return parsed, true
		}
		return strings.TrimSpace(v) != "", true
	default:
		return truthy(value), true
	}
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	case fmt.Stringer:
		f, err := strconv.ParseFloat(v.String(), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(value)
	}
}
