package codec

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// CustomType describes a value type that needs explicit conversion when the
// domain object is restored from, or saved to, a persisted snapshot.
//
// Validate must not mutate anything and must return "" exactly when
// FromPersisted would succeed. IsOfType lets the model boundary recognise
// values that are already converted so they are not parsed twice.
type CustomType interface {
	Name() string
	FromPersisted(persisted any) (any, error)
	ToPersisted(value any) (any, error)
	IsOfType(value any) bool
	Validate(persisted any) string
}

// Registry stores custom types by name.
type Registry struct {
	mu    sync.RWMutex
	types map[string]CustomType
}

// DefaultRegistry holds the custom types available to Lookup. The decimal type
// is registered on package init.
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.MustRegister(DecimalType())
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]CustomType)}
}

// Register adds a custom type by its Name(). Duplicate names return an error.
func (r *Registry) Register(t CustomType) error {
	if t == nil {
		return fmt.Errorf("codec: custom type is required")
	}
	name := strings.ToLower(strings.TrimSpace(t.Name()))
	if name == "" {
		return fmt.Errorf("codec: custom type name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[name]; exists {
		return fmt.Errorf("codec: custom type %q already registered", name)
	}
	r.types[name] = t
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(t CustomType) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Get retrieves a custom type by name.
func (r *Registry) Get(name string) (CustomType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("codec: custom type %q not found", name)
	}
	return t, nil
}

// Has reports whether a custom type is registered.
func (r *Registry) Has(name string) bool {
	_, err := r.Get(name)
	return err == nil
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromCustomType exposes a custom type as a field codec, treating the raw text
// as the persisted representation.
func FromCustomType(t CustomType) Codec {
	return &customCodec{t: t}
}

type customCodec struct {
	t CustomType
}

func (c *customCodec) Parse(raw string) (any, error) {
	value, err := c.t.FromPersisted(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	return value, nil
}

func (c *customCodec) Render(value any) string {
	if !c.t.IsOfType(value) {
		return ""
	}
	persisted, err := c.t.ToPersisted(value)
	if err != nil {
		return ""
	}
	if s, ok := persisted.(string); ok {
		return s
	}
	return fmt.Sprint(persisted)
}
