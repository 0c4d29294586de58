package model

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Object is a thread-safe, map-backed Model. Values live in nested maps keyed
// by path segments; listeners are invoked after each write with the lock
// released, so a listener may read the object again.
type Object struct {
	shape Shape

	mu        sync.RWMutex
	values    map[string]any
	listeners map[string]map[uint64]Listener
	nextID    uint64
}

var _ Model = (*Object)(nil)

// NewObject builds an object over shape seeded with initial values keyed by
// dotted paths. Paths outside the shape are rejected.
func NewObject(shape Shape, initial map[string]any) (*Object, error) {
	if shape == nil {
		return nil, fmt.Errorf("model: object shape is required")
	}
	obj := &Object{
		shape:     shape,
		values:    make(map[string]any),
		listeners: make(map[string]map[uint64]Listener),
	}
	keys := make([]string, 0, len(initial))
	for key := range initial {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !shape.Has(key) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPath, key)
		}
		setPath(obj.values, key, initial[key])
	}
	return obj, nil
}

// MustObject panics when NewObject fails. Useful in tests and fixtures.
func MustObject(shape Shape, initial map[string]any) *Object {
	obj, err := NewObject(shape, initial)
	if err != nil {
		panic(err)
	}
	return obj
}

// Shape returns the shape the object was built with.
func (o *Object) Shape() Shape {
	if o == nil {
		return nil
	}
	return o.shape
}

// Get resolves a dotted path.
func (o *Object) Get(path string) (any, bool) {
	if o == nil {
		return nil, false
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	return getPath(o.values, path)
}

// Set stores value at path and notifies the path's listeners once.
func (o *Object) Set(path string, value any) error {
	if o == nil {
		return fmt.Errorf("model: object is nil")
	}
	if !o.shape.Has(path) {
		return fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}

	o.mu.Lock()
	setPath(o.values, path, value)
	listeners := make([]Listener, 0, len(o.listeners[path]))
	ids := make([]uint64, 0, len(o.listeners[path]))
	for id := range o.listeners[path] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		listeners = append(listeners, o.listeners[path][id])
	}
	o.mu.Unlock()

	for _, fn := range listeners {
		fn(path, value)
	}
	return nil
}

// Subscribe registers fn for writes to path. The returned function removes
// the listener and is safe to call more than once.
func (o *Object) Subscribe(path string, fn Listener) func() {
	if o == nil || fn == nil {
		return func() {}
	}
	o.mu.Lock()
	o.nextID++
	id := o.nextID
	if o.listeners[path] == nil {
		o.listeners[path] = make(map[uint64]Listener)
	}
	o.listeners[path][id] = fn
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.listeners[path], id)
			if len(o.listeners[path]) == 0 {
				delete(o.listeners, path)
			}
		})
	}
}

// Listeners reports how many listeners are registered for path.
func (o *Object) Listeners(path string) int {
	if o == nil {
		return 0
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.listeners[path])
}

// Values returns a deep copy of the stored values as nested maps.
func (o *Object) Values() map[string]any {
	if o == nil {
		return nil
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	return deepCopy(o.values).(map[string]any)
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	default:
		return typed
	}
}

func getPath(root map[string]any, path string) (any, bool) {
	if root == nil || path == "" {
		return nil, false
	}
	var current any = root
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		next, ok := node[segment]
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func setPath(root map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	node := root
	for _, segment := range segments[:len(segments)-1] {
		child, ok := node[segment].(map[string]any)
		if !ok || child == nil {
			child = make(map[string]any)
			node[segment] = child
		}
		node = child
	}
	node[segments[len(segments)-1]] = value
}
