package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formstate/pkg/codec"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetInput    = "input"
	WidgetConfirm  = "confirm"
	WidgetTextArea = "textarea"
)

// Field describes a form field for widget resolution.
type Field struct {
	Path  string
	Codec codec.Codec
	// Hint is an explicit widget name, typically from a declaration.
	Hint string
}

// Matcher decides whether a widget should handle the supplied field.
type Matcher func(field Field) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects prompt widgets for fields based on explicit hints or
// registered matchers. Higher priority wins; ties fall back to registration
// order. An empty registry never resolves a widget.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in widget matchers
// registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher with the provided name and priority. Higher
// priority values take precedence.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget name for a field. An explicit hint is honoured
// before matcher evaluation.
func (r *Registry) Resolve(field Field) (string, bool) {
	if hint := strings.ToLower(strings.TrimSpace(field.Hint)); hint != "" {
		return hint, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

// Widgets lists the distinct registered widget names in sorted order.
func (r *Registry) Widgets() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{}, len(r.rules))
	out := make([]string, 0, len(r.rules))
	for _, entry := range r.rules {
		if _, ok := seen[entry.name]; ok {
			continue
		}
		seen[entry.name] = struct{}{}
		out = append(out, entry.name)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetConfirm, 90, func(field Field) bool {
		_, ok := field.Codec.(*codec.Func[bool])
		return ok
	})

	r.Register(WidgetTextArea, 60, func(field Field) bool {
		_, ok := field.Codec.(*codec.SanitizedCodec)
		return ok
	})
}
