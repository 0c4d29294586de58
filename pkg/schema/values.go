package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// LoadValues reads a JSON, YAML or TOML document of domain values, such as a
// persisted snapshot. The result may hold nested maps or dotted keys.
func LoadValues(src Source) (map[string]any, error) {
	doc, err := ReadDocument(src)
	if err != nil {
		return nil, err
	}
	return DecodeValues(doc)
}

// DecodeValues decodes the values held by doc.
func DecodeValues(doc Document) (map[string]any, error) {
	values, err := decodeValues(doc.raw, doc.Format())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, doc.Location(), err)
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}

func decodeValues(data []byte, format Format) (map[string]any, error) {
	var values map[string]any
	switch format {
	case FormatJSON:
		return values, json.Unmarshal(data, &values)
	case FormatYAML:
		return values, yaml.Unmarshal(data, &values)
	case FormatTOML:
		_, err := toml.Decode(string(data), &values)
		return values, err
	}

	if err := json.Unmarshal(data, &values); err == nil {
		return values, nil
	}
	values = nil
	if err := yaml.Unmarshal(data, &values); err == nil {
		return values, nil
	}
	values = nil
	if _, err := toml.Decode(string(data), &values); err == nil {
		return values, nil
	}
	return nil, errors.New("invalid JSON, YAML or TOML values")
}
