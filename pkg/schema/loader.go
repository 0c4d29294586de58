package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidDeclaration marks declarations that parse but cannot describe
	// a form.
	ErrInvalidDeclaration = errors.New("schema: invalid declaration")
	// ErrParse marks documents that cannot be decoded.
	ErrParse = errors.New("schema: parse error")
)

// Parse decodes a declaration document. The name's extension selects the
// decoder; unknown extensions try JSON, then YAML, then TOML. Declarations
// without a name take the file base name.
func Parse(data []byte, name string) (Declaration, error) {
	doc, err := NewDocument(SourceFromBytes(name, data), data)
	if err != nil {
		return Declaration{}, fmt.Errorf("%w: %s: %v", ErrParse, name, err)
	}
	return Decode(doc)
}

// Load reads and decodes the document behind src.
func Load(src Source) (Declaration, error) {
	doc, err := ReadDocument(src)
	if err != nil {
		return Declaration{}, err
	}
	return Decode(doc)
}

// Decode turns a Document into a validated Declaration.
func Decode(doc Document) (Declaration, error) {
	location := doc.Location()
	decl, err := decode(doc.raw, doc.Format())
	if err != nil {
		return Declaration{}, fmt.Errorf("%w: %s: %v", ErrParse, location, err)
	}

	decl.Source = location
	decl.Name = strings.TrimSpace(decl.Name)
	if decl.Name == "" {
		decl.Name = baseName(location)
	}
	for i := range decl.Fields {
		decl.Fields[i].Path = strings.TrimSpace(decl.Fields[i].Path)
	}
	for i := range decl.Groups {
		decl.Groups[i].Name = strings.TrimSpace(decl.Groups[i].Name)
		for j := range decl.Groups[i].Fields {
			decl.Groups[i].Fields[j] = strings.TrimSpace(decl.Groups[i].Fields[j])
		}
	}

	if err := decl.Validate(); err != nil {
		return Declaration{}, err
	}
	return decl, nil
}

func decode(data []byte, format Format) (Declaration, error) {
	var decl Declaration
	switch format {
	case FormatJSON:
		return decl, decodeJSON(data, &decl)
	case FormatYAML:
		return decl, yaml.Unmarshal(data, &decl)
	case FormatTOML:
		_, err := toml.Decode(string(data), &decl)
		return decl, err
	}

	if err := decodeJSON(data, &decl); err == nil {
		return decl, nil
	}
	decl = Declaration{}
	if err := yaml.Unmarshal(data, &decl); err == nil {
		return decl, nil
	}
	decl = Declaration{}
	if _, err := toml.Decode(string(data), &decl); err == nil {
		return decl, nil
	}
	return Declaration{}, errors.New("invalid JSON, YAML or TOML")
}

func decodeJSON(data []byte, out *Declaration) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func baseName(location string) string {
	base := path.Base(strings.ReplaceAll(location, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// Store holds declarations keyed by name.
type Store struct {
	declarations map[string]Declaration
}

// LoadFS walks fsys and decodes every JSON, YAML or TOML declaration file.
// When fsys is nil or holds no declaration files the store is empty.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{declarations: make(map[string]Declaration)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(name string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || FormatFor(name) == FormatUnknown {
			return nil
		}

		decl, err := Load(SourceFromFS(fsys, name))
		if err != nil {
			return err
		}
		if existing, exists := store.declarations[decl.Name]; exists {
			return fmt.Errorf("%w: duplicate declaration %q (files %s and %s)", ErrInvalidDeclaration, decl.Name, existing.Source, name)
		}
		store.declarations[decl.Name] = decl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Declaration returns the declaration registered under name.
func (s *Store) Declaration(name string) (Declaration, bool) {
	if s == nil {
		return Declaration{}, false
	}
	decl, ok := s.declarations[name]
	return decl, ok
}

// Names lists the stored declaration names in sorted order.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.declarations))
	for name := range s.declarations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Empty reports whether the store holds any declarations.
func (s *Store) Empty() bool {
	return s == nil || len(s.declarations) == 0
}
