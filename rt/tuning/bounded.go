package tuning

type boundsConfig[T Number] struct {
	min *T
	max *T
}

// BoundOption configures the bounds of a numeric declaration.
type BoundOption[T Number] func(*boundsConfig[T])

// WithMin sets an inclusive lower bound.
func WithMin[T Number](v T) BoundOption[T] {
	return func(c *boundsConfig[T]) { c.min = &v }
}

// WithMax sets an inclusive upper bound.
func WithMax[T Number](v T) BoundOption[T] {
	return func(c *boundsConfig[T]) { c.max = &v }
}

// Bounded declares a numeric variable with optional bounds.
//
// A Bounded is an immutable declaration: it never holds the stored value,
// every access goes through its Registry by key. min <= max is assumed and not
// checked.
type Bounded[T Number] struct {
	r        *Registry
	category string
	name     string
	def      T
	min      *T
	max      *T
}

type (
	Float32 = Bounded[float32]
	Float64 = Bounded[float64]
	Int32   = Bounded[int32]
	Int64   = Bounded[int64]
)

// NewBounded declares a numeric variable. It does not register it.
//
// It panics if r is nil.
func NewBounded[T Number](r *Registry, category, name string, def T, opts ...BoundOption[T]) Bounded[T] {
	if r == nil {
		panic("tuning: nil Registry")
	}
	var cfg boundsConfig[T]
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return Bounded[T]{
		r:        r,
		category: category,
		name:     name,
		def:      def,
		min:      cfg.min,
		max:      cfg.max,
	}
}

// NewFloat32 declares a float32 variable. It does not register it.
func NewFloat32(r *Registry, category, name string, def float32, opts ...BoundOption[float32]) Float32 {
	return NewBounded(r, category, name, def, opts...)
}

// NewFloat64 declares a float64 variable. It does not register it.
func NewFloat64(r *Registry, category, name string, def float64, opts ...BoundOption[float64]) Float64 {
	return NewBounded(r, category, name, def, opts...)
}

// NewInt32 declares an int32 variable. It does not register it.
func NewInt32(r *Registry, category, name string, def int32, opts ...BoundOption[int32]) Int32 {
	return NewBounded(r, category, name, def, opts...)
}

// NewInt64 declares an int64 variable. It does not register it.
func NewInt64(r *Registry, category, name string, def int64, opts ...BoundOption[int64]) Int64 {
	return NewBounded(r, category, name, def, opts...)
}

// Category returns the declared category.
func (b Bounded[T]) Category() string { return b.category }

// Name returns the declared name.
func (b Bounded[T]) Name() string { return b.name }

// Default returns the declared default value.
func (b Bounded[T]) Default() T { return b.def }

// Kind returns the stored kind for T.
func (b Bounded[T]) Kind() Kind { return kindOf[T]() }

// Bounds returns the declared bounds. hasLo (hasHi) is false when the
// variable is unbounded below (above).
func (b Bounded[T]) Bounds() (lo T, hasLo bool, hi T, hasHi bool) {
	if b.min != nil {
		lo, hasLo = *b.min, true
	}
	if b.max != nil {
		hi, hasHi = *b.max, true
	}
	return lo, hasLo, hi, hasHi
}

// MakeTuneable returns the initial stored representation: current = default.
func (b Bounded[T]) MakeTuneable() Tuneable {
	return &Numeric[T]{
		Default: b.def,
		Min:     clonePtr(b.min),
		Max:     clonePtr(b.max),
		Current: b.def,
	}
}

// Register registers the declaration. Calling it more than once is harmless.
//
// Registration is not required, but doing it at startup avoids the first
// Read paying for it.
func (b Bounded[T]) Register() {
	b.r.Register(b.category, b.name, b)
}

// Read returns the current value. On a miss it registers the declaration and
// returns the declared default.
func (b Bounded[T]) Read() T {
	if v, ok := Get[T](b.r, b.category, b.name); ok {
		return v
	}
	b.Register()
	return b.def
}

// Write stores v, clamped to the stored bounds. NaN is dropped, and so is ±Inf
// unless a bound clamps it.
//
// If the key is not registered and the Registry allows it (the default), the
// declaration is registered first.
func (b Bounded[T]) Write(v T) {
	b.r.ensureRegistered(b.category, b.name, b)
	Set(b.r, b.category, b.name, v)
}

// Reset restores the declared default.
func (b Bounded[T]) Reset() {
	Reset[T](b.r, b.category, b.name)
}
