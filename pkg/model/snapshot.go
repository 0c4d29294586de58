package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formstate/pkg/codec"
)

// RestoreError lists the snapshot paths whose persisted values failed their
// custom type's validation probe.
type RestoreError struct {
	Fields map[string]string
}

func (e *RestoreError) Error() string {
	paths := make([]string, 0, len(e.Fields))
	for path := range e.Fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	parts := make([]string, 0, len(paths))
	for _, path := range paths {
		parts = append(parts, fmt.Sprintf("%s: %s", path, e.Fields[path]))
	}
	return "model: invalid snapshot: " + strings.Join(parts, "; ")
}

// Snapshot returns the object's values as nested maps with custom typed paths
// converted to their persisted form. A nil reg uses codec.DefaultRegistry.
func (o *Object) Snapshot(reg *codec.Registry) (map[string]any, error) {
	if o == nil {
		return nil, fmt.Errorf("model: object is nil")
	}
	if reg == nil {
		reg = codec.DefaultRegistry
	}
	out := o.Values()
	typed, ok := o.shape.(TypedShape)
	if !ok {
		return out, nil
	}
	for _, path := range typed.Paths() {
		name := typed.CustomType(path)
		if name == "" {
			continue
		}
		value, ok := getPath(out, path)
		if !ok || value == nil {
			continue
		}
		custom, err := reg.Get(name)
		if err != nil {
			return nil, err
		}
		persisted, err := custom.ToPersisted(value)
		if err != nil {
			return nil, fmt.Errorf("model: snapshot %q: %w", path, err)
		}
		setPath(out, path, persisted)
	}
	return out, nil
}

// Restore writes snapshot values into the object. Snapshot keys may be nested
// maps or flattened dotted paths. Custom typed values are converted through
// FromPersisted unless IsOfType already recognises them. Every path is
// validated before any write; on failure the object is left untouched and a
// *RestoreError is returned. Each restored path produces one notification.
func (o *Object) Restore(snapshot map[string]any, reg *codec.Registry) error {
	if o == nil {
		return fmt.Errorf("model: object is nil")
	}
	if reg == nil {
		reg = codec.DefaultRegistry
	}
	typed, _ := o.shape.(TypedShape)

	type write struct {
		path  string
		value any
	}
	var (
		writes []write
		issues = make(map[string]string)
	)

	for _, path := range o.shape.Paths() {
		value, ok := snapshot[path]
		if !ok {
			value, ok = getPath(snapshot, path)
		}
		if !ok {
			continue
		}
		if typed != nil && value != nil {
			if name := typed.CustomType(path); name != "" {
				custom, err := reg.Get(name)
				if err != nil {
					return err
				}
				if !custom.IsOfType(value) {
					if msg := custom.Validate(value); msg != "" {
						issues[path] = msg
						continue
					}
					converted, err := custom.FromPersisted(value)
					if err != nil {
						issues[path] = err.Error()
						continue
					}
					value = converted
				}
			}
		}
		writes = append(writes, write{path: path, value: value})
	}

	if len(issues) > 0 {
		return &RestoreError{Fields: issues}
	}
	for _, w := range writes {
		if err := o.Set(w.path, w.value); err != nil {
			return err
		}
	}
	return nil
}
