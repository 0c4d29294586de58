package codec

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Built-in codec names accepted by Lookup.
const (
	NameString    = "string"
	NameText      = "text"
	NameInteger   = "integer"
	NameNumber    = "number"
	NameBoolean   = "boolean"
	NameDecimal   = "decimal"
	NameSanitized = "sanitized"
)

// String passes raw text through unchanged.
func String() *Func[string] {
	return Of(func(raw string) (string, error) {
		return raw, nil
	}, func(value string) string {
		return value
	})
}

// TrimmedString strips surrounding whitespace on Parse.
func TrimmedString() *Func[string] {
	return Of(func(raw string) (string, error) {
		return strings.TrimSpace(raw), nil
	}, func(value string) string {
		return value
	})
}

// Integer converts base-10 integers. Surrounding whitespace is ignored.
func Integer() *Func[int] {
	return Of(func(raw string) (int, error) {
		return strconv.Atoi(strings.TrimSpace(raw))
	}, strconv.Itoa)
}

// Number converts finite floating point numbers.
func Number() *Func[float64] {
	return Of(func(raw string) (float64, error) {
		value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return 0, errors.New("number is not finite")
		}
		return value, nil
	}, func(value float64) string {
		return strconv.FormatFloat(value, 'f', -1, 64)
	})
}

// Boolean accepts the forms understood by strconv.ParseBool.
func Boolean() *Func[bool] {
	return Of(func(raw string) (bool, error) {
		return strconv.ParseBool(strings.TrimSpace(raw))
	}, strconv.FormatBool)
}

var builtins = map[string]func() Codec{
	NameString:    func() Codec { return String() },
	NameText:      func() Codec { return TrimmedString() },
	NameInteger:   func() Codec { return Integer() },
	NameNumber:    func() Codec { return Number() },
	NameBoolean:   func() Codec { return Boolean() },
	NameDecimal:   func() Codec { return Decimal() },
	NameSanitized: func() Codec { return Sanitized(nil) },
}

// Lookup resolves a codec by name. Built-in names win; otherwise custom types
// registered on DefaultRegistry are lifted through FromCustomType.
func Lookup(name string) (Codec, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, errors.New("codec: name is required")
	}
	if factory, ok := builtins[key]; ok {
		return factory(), nil
	}
	if custom, err := DefaultRegistry.Get(key); err == nil {
		return FromCustomType(custom), nil
	}
	return nil, fmt.Errorf("codec: %q not found", name)
}

// Names lists the built-in codec names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
