// Package registry maps logical entity names ("Square", "Tile", "Player",
// "Turn", ...) to constructors. It is passed to every component that has to
// rebuild peers from stored data, so a host can substitute its own concrete
// constructors without the game packages knowing about them.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// ClassKey is the key under which structural snapshots record the kind of
// entity a map describes.
const ClassKey = "_class"

// Spec is the plain-data description of an entity.
type Spec map[string]any

// Constructor builds an entity from a spec. The registry is passed along so
// constructors can build their own children.
type Constructor func(reg *Registry, spec Spec) (any, error)

var ErrUnknownKind = errors.New("unknown kind")

type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

func New() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register binds kind to ctor, replacing any earlier binding.
func (r *Registry) Register(kind string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[kind] = ctor
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ctors[kind]
	return ok
}

// Create builds an entity of the given kind.
func (r *Registry) Create(kind string, spec Spec) (any, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if spec == nil {
		spec = Spec{}
	}
	return ctor(r, spec)
}

// CreateAs builds an entity and asserts its type.
func CreateAs[T any](r *Registry, kind string, spec Spec) (T, error) {
	var zero T
	obj, err := r.Create(kind, spec)
	if err != nil {
		return zero, err
	}
	t, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("constructor for %q returned %T, expected %T", kind, obj, zero)
	}
	return t, nil
}

// Restore builds the entity described by a class-tagged spec. When the
// spec carries no class, fallback is used.
func Restore[T any](r *Registry, spec Spec, fallback string) (T, error) {
	kind := fallback
	if c, ok := spec[ClassKey].(string); ok && c != "" {
		kind = c
	}
	return CreateAs[T](r, kind, spec)
}

// Decode copies a spec into a typed struct using `spec` field tags. Numbers
// are converted loosely since specs may have been through JSON, CBOR or
// protobuf and come back as float64, uint64 and so on.
func Decode(spec Spec, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "spec",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(spec))
}

// AsSpec converts a nested value from a decoded snapshot into a Spec.
func AsSpec(v any) (Spec, bool) {
	switch m := v.(type) {
	case Spec:
		return m, true
	case map[string]any:
		return Spec(m), true
	case map[any]any:
		s := make(Spec, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			s[ks] = val
		}
		return s, true
	}
	return nil, false
}

// AsList converts a nested value into a slice of Specs.
func AsList(v any) ([]Spec, error) {
	if v == nil {
		return nil, nil
	}
	var items []any
	switch l := v.(type) {
	case []any:
		items = l
	case []Spec:
		return l, nil
	case []map[string]any:
		out := make([]Spec, len(l))
		for i := range l {
			out[i] = Spec(l[i])
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	out := make([]Spec, 0, len(items))
	for i, item := range items {
		s, ok := AsSpec(item)
		if !ok {
			return nil, fmt.Errorf("list item %d: expected a map, got %T", i, item)
		}
		out = append(out, s)
	}
	return out, nil
}
