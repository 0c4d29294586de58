package codec

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/woodsbury/decimal128"
)

// DecimalMessage is reported by the decimal type for malformed input.
const DecimalMessage = "Not a valid decimal"

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

var errNotDecimal = errors.New("codec: not a decimal")

type decimalType struct{}

// DecimalType is the arbitrary precision decimal custom type. Values are
// decimal128.Decimal; the persisted form is the decimal string.
func DecimalType() CustomType {
	return decimalType{}
}

func (decimalType) Name() string { return NameDecimal }

func (decimalType) FromPersisted(persisted any) (any, error) {
	switch typed := persisted.(type) {
	case decimal128.Decimal:
		return typed.Canonical(), nil
	case string:
		return parseDecimal(typed)
	case fmt.Stringer:
		return parseDecimal(typed.String())
	default:
		return nil, fmt.Errorf("%w: unsupported persisted type %T", errNotDecimal, persisted)
	}
}

func (decimalType) ToPersisted(value any) (any, error) {
	d, ok := value.(decimal128.Decimal)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported value type %T", errNotDecimal, value)
	}
	return d.String(), nil
}

func (decimalType) IsOfType(value any) bool {
	_, ok := value.(decimal128.Decimal)
	return ok
}

func (t decimalType) Validate(persisted any) string {
	if _, err := t.FromPersisted(persisted); err != nil {
		return DecimalMessage
	}
	return ""
}

func parseDecimal(raw string) (decimal128.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if !decimalPattern.MatchString(trimmed) {
		return decimal128.Decimal{}, fmt.Errorf("%w: %q", errNotDecimal, raw)
	}
	d, err := decimal128.Parse(trimmed)
	if err != nil {
		return decimal128.Decimal{}, fmt.Errorf("%w: %v", errNotDecimal, err)
	}
	// equal values must compare equal under reflect.DeepEqual
	return d.Canonical(), nil
}

// Decimal is the field codec for decimal128 values.
func Decimal() Codec {
	return FromCustomType(DecimalType())
}
