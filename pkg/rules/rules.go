package rules

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/rules/expr"
)

// Rule kinds understood by Build.
const (
	KindRequired  = "required"
	KindMin       = "min"
	KindMax       = "max"
	KindMinLength = "minLength"
	KindMaxLength = "maxLength"
	KindPattern   = "pattern"
	KindExpr      = "expr"
)

var (
	// ErrUnknownKind is returned for rule kinds Build does not recognise.
	ErrUnknownKind = errors.New("rules: unknown kind")
	// ErrInvalidRule is returned when a rule's value cannot be used.
	ErrInvalidRule = errors.New("rules: invalid rule")
)

// Spec declares one validation rule. Value carries the rule argument (a
// number for min/max and the length rules, a regular expression for pattern,
// an expression for expr) and is ignored by required.
type Spec struct {
	Kind    string `json:"kind" yaml:"kind" toml:"kind"`
	Value   any    `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty" toml:"message,omitempty"`
}

// Build compiles specs into the raw and value stage validators of a field.
// Either result is nil when no rule runs at that stage. Within a stage rules
// run in declaration order and the first failing message wins.
//
// Length and pattern rules pass empty input so optional fields are left to
// required. An expr rule runs at the raw stage with `raw` bound when it does
// not reference `value`; otherwise it runs on the converted value.
func Build(specs []Spec) (form.RawValidator, form.ValueValidator, error) {
	var (
		rawChecks   []form.RawValidator
		valueChecks []func(any) string
	)

	for i, spec := range specs {
		kind := strings.TrimSpace(spec.Kind)
		switch strings.ToLower(kind) {
		case strings.ToLower(KindRequired):
			msg := message(spec, "Required")
			rawChecks = append(rawChecks, func(raw string) string {
				if strings.TrimSpace(raw) == "" {
					return msg
				}
				return ""
			})
		case strings.ToLower(KindMinLength), strings.ToLower(KindMaxLength):
			limit, err := intValue(spec)
			if err != nil {
				return nil, nil, ruleError(i, kind, err)
			}
			isMin := strings.EqualFold(kind, KindMinLength)
			msg := message(spec, lengthMessage(isMin, limit))
			rawChecks = append(rawChecks, func(raw string) string {
				if raw == "" {
					return ""
				}
				n := utf8.RuneCountInString(raw)
				if (isMin && n < limit) || (!isMin && n > limit) {
					return msg
				}
				return ""
			})
		case strings.ToLower(KindPattern):
			source := strings.TrimSpace(stringValue(spec.Value))
			if source == "" {
				return nil, nil, ruleError(i, kind, errors.New("pattern is required"))
			}
			re, err := regexp.Compile(source)
			if err != nil {
				return nil, nil, ruleError(i, kind, err)
			}
			msg := message(spec, "Invalid format")
			rawChecks = append(rawChecks, func(raw string) string {
				if raw == "" || re.MatchString(raw) {
					return ""
				}
				return msg
			})
		case strings.ToLower(KindMin), strings.ToLower(KindMax):
			bound, err := numberValue(spec)
			if err != nil {
				return nil, nil, ruleError(i, kind, err)
			}
			op, verb := ">=", "least"
			if strings.EqualFold(kind, KindMax) {
				op, verb = "<=", "most"
			}
			literal := strconv.FormatFloat(bound, 'f', -1, 64)
			program, err := expr.Compile("value " + op + " " + literal)
			if err != nil {
				return nil, nil, ruleError(i, kind, err)
			}
			valueChecks = append(valueChecks, programCheck(program, message(spec, "Must be at "+verb+" "+literal)))
		case strings.ToLower(KindExpr):
			program, err := expr.Compile(stringValue(spec.Value))
			if err != nil {
				return nil, nil, ruleError(i, kind, err)
			}
			msg := message(spec, "Invalid value")
			if program.References("value") {
				valueChecks = append(valueChecks, programCheck(program, msg))
				continue
			}
			rawChecks = append(rawChecks, func(raw string) string {
				ok, err := program.Eval(expr.Vars{"raw": raw})
				if err != nil || !ok {
					return msg
				}
				return ""
			})
		default:
			return nil, nil, fmt.Errorf("%w: rule %d %q", ErrUnknownKind, i, spec.Kind)
		}
	}

	return composeRaw(rawChecks), composeValue(valueChecks), nil
}

// Options is Build expressed as definition options.
func Options(specs []Spec) ([]form.DefinitionOption, error) {
	raw, value, err := Build(specs)
	if err != nil {
		return nil, err
	}
	var opts []form.DefinitionOption
	if raw != nil {
		opts = append(opts, form.WithRawValidator(raw))
	}
	if value != nil {
		opts = append(opts, form.WithValidator(value))
	}
	return opts, nil
}

func programCheck(program *expr.Program, msg string) func(any) string {
	return func(value any) string {
		ok, err := program.Eval(expr.Vars{"value": value})
		if err != nil || !ok {
			return msg
		}
		return ""
	}
}

func composeRaw(checks []form.RawValidator) form.RawValidator {
	if len(checks) == 0 {
		return nil
	}
	return func(raw string) string {
		for _, check := range checks {
			if msg := check(raw); msg != "" {
				return msg
			}
		}
		return ""
	}
}

func composeValue(checks []func(any) string) form.ValueValidator {
	if len(checks) == 0 {
		return nil
	}
	return func(ctx context.Context, value any) string {
		for _, check := range checks {
			if err := ctx.Err(); err != nil {
				return err.Error()
			}
			if msg := check(value); msg != "" {
				return msg
			}
		}
		return ""
	}
}

func lengthMessage(isMin bool, limit int) string {
	if isMin {
		return fmt.Sprintf("Must be at least %d characters", limit)
	}
	return fmt.Sprintf("Must be at most %d characters", limit)
}

func message(spec Spec, fallback string) string {
	if msg := strings.TrimSpace(spec.Message); msg != "" {
		return msg
	}
	return fallback
}

func ruleError(index int, kind string, err error) error {
	return fmt.Errorf("%w: rule %d %q: %v", ErrInvalidRule, index, kind, err)
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func numberValue(spec Spec) (float64, error) {
	switch v := spec.Value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not a number", v)
		}
		return n, nil
	case nil:
		return 0, errors.New("value is required")
	default:
		return 0, fmt.Errorf("value %v is not a number", v)
	}
}

func intValue(spec Spec) (int, error) {
	n, err := numberValue(spec)
	if err != nil {
		return 0, err
	}
	if n < 0 || n != float64(int(n)) {
		return 0, fmt.Errorf("value %v is not a non-negative integer", spec.Value)
	}
	return int(n), nil
}
