package tuning

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry holds every runtime-tunable variable of a process, keyed by
// (category, name).
//
// It is safe for concurrent use. Reads share one RWMutex; every write is
// exclusive. There is no transaction spanning two calls: Get followed by Set
// is not atomic.
//
// The zero value is ready to use.
type Registry struct {
	mu   sync.RWMutex
	vars State

	logger            *slog.Logger
	noRegisterOnWrite bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registration and write diagnostics.
//
// Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithRegisterOnWrite controls whether accessors register their declaration
// before writing to a key that is not registered yet.
//
// Default is true. When false, writing an unregistered key is a no-op.
func WithRegisterOnWrite(v bool) Option {
	return func(r *Registry) { r.noRegisterOnWrite = !v }
}

// New creates a new Registry.
func New(opts ...Option) *Registry {
	r := &Registry{vars: make(State)}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Registry) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

// Register stores d's initial representation under (category, name).
//
// If the key already exists, Register does nothing: the first registration
// wins and the stored default, bounds and current value are kept.
func (r *Registry) Register(category, name string, d Definition) {
	if d == nil {
		return
	}
	r.mu.Lock()
	if r.vars == nil {
		r.vars = make(State)
	}
	group, ok := r.vars[category]
	if !ok {
		group = make(map[string]Tuneable)
		r.vars[category] = group
	}
	if _, exists := group[name]; exists {
		r.mu.Unlock()
		return
	}
	t := d.MakeTuneable()
	group[name] = t
	r.mu.Unlock()

	r.log().Debug("tuning: register", "category", category, "name", name, "kind", t.Kind())
}

// IsRegistered reports whether (category, name) exists.
func (r *Registry) IsRegistered(category, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.vars.Get(category, name)
	return ok
}

// KindOf returns the kind stored under (category, name).
func (r *Registry) KindOf(category, name string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.vars.Get(category, name)
	if !ok {
		return "", false
	}
	return t.Kind(), true
}

// Lookup returns a copy of the variable stored under (category, name).
func (r *Registry) Lookup(category, name string) (Tuneable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.vars.Get(category, name)
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// Len returns the number of registered variables.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.vars.Len()
}

// Snapshot returns a point-in-time deep copy of every registered variable.
func (r *Registry) Snapshot() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(State, len(r.vars))
	for category, group := range r.vars {
		g := make(map[string]Tuneable, len(group))
		for name, t := range group {
			g[name] = t.Clone()
		}
		out[category] = g
	}
	return out
}

// Keys returns every registered key, sorted by category then name.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	keys := make([]Key, 0, r.vars.Len())
	for category, group := range r.vars {
		for name := range group {
			keys = append(keys, Key{Category: category, Name: name})
		}
	}
	r.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Apply writes t's current value into (category, name) through the update
// rule of t's kind, so bounded numerics are clamped against the stored bounds.
// t's own default and bounds are ignored.
//
// It reports false if the key is missing or holds a different kind.
func (r *Registry) Apply(category, name string, t Tuneable) bool {
	switch v := t.(type) {
	case *Numeric[float32]:
		return Set(r, category, name, v.Current)
	case *Numeric[float64]:
		return Set(r, category, name, v.Current)
	case *Numeric[int32]:
		return Set(r, category, name, v.Current)
	case *Numeric[int64]:
		return Set(r, category, name, v.Current)
	case *BooleanVariable:
		return Set(r, category, name, v.Current)
	default:
		return false
	}
}

// ResetKey resets (category, name) to its default, whatever its kind.
//
// It reports false if the key is missing.
func (r *Registry) ResetKey(category, name string) bool {
	kind, ok := r.KindOf(category, name)
	if !ok {
		return false
	}
	switch kind {
	case KindFloat32:
		return reset[float32](r, category, name)
	case KindFloat64:
		return reset[float64](r, category, name)
	case KindInt32:
		return reset[int32](r, category, name)
	case KindInt64:
		return reset[int64](r, category, name)
	default:
		return reset[bool](r, category, name)
	}
}

// SetFromString parses value according to the kind stored under
// (category, name) and writes it with Set.
//
// Bool values accept true/false, t/f, 1/0, yes/no, y/n, on/off
// (case-insensitive).
func (r *Registry) SetFromString(category, name, value string) error {
	kind, ok := r.KindOf(category, name)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, category, name)
	}
	switch kind {
	case KindFloat32:
		return setString[float32](r, category, name, value)
	case KindFloat64:
		return setString[float64](r, category, name, value)
	case KindInt32:
		return setString[int32](r, category, name, value)
	case KindInt64:
		return setString[int64](r, category, name, value)
	default:
		return setString[bool](r, category, name, value)
	}
}

// Get returns the current value of (category, name).
//
// ok is false if the key is missing or holds a kind other than T's.
func Get[T Value](r *Registry, category, name string) (v T, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, found := r.vars.Get(category, name)
	if !found {
		return v, false
	}
	return strategyFor[T]().extract(t)
}

// Set writes v into (category, name), clamping bounded numerics.
//
// It reports false, and changes nothing, if the key is missing or holds a
// kind other than T's.
func Set[T Value](r *Registry, category, name string, v T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, found := r.vars.Get(category, name)
	if !found {
		return false
	}
	return strategyFor[T]().update(t, v)
}

// Reset restores the current value of (category, name) to its default.
//
// It does nothing if the key is missing or holds a kind other than T's.
func Reset[T Value](r *Registry, category, name string) {
	reset[T](r, category, name)
}

func reset[T Value](r *Registry, category, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, found := r.vars.Get(category, name)
	if !found {
		return false
	}
	return strategyFor[T]().reset(t)
}

// Key is a (category, name) pair.
type Key struct {
	Category string `json:"category"`
	Name     string `json:"name"`
}

func (k Key) String() string { return k.Category + "/" + k.Name }

// Less orders keys by category, then name.
func (k Key) Less(o Key) bool {
	if k.Category != o.Category {
		return k.Category < o.Category
	}
	return k.Name < o.Name
}

func (r *Registry) ensureRegistered(category, name string, d Definition) {
	if r.noRegisterOnWrite || r.IsRegistered(category, name) {
		return
	}
	r.log().Warn("tuning: writing unregistered variable", "category", category, "name", name)
	r.Register(category, name, d)
}
