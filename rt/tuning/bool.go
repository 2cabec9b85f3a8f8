package tuning

// Bool declares a boolean variable. It has no bounds.
type Bool struct {
	r        *Registry
	category string
	name     string
	def      bool
}

// NewBool declares a boolean variable. It does not register it.
//
// It panics if r is nil.
func NewBool(r *Registry, category, name string, def bool) Bool {
	if r == nil {
		panic("tuning: nil Registry")
	}
	return Bool{r: r, category: category, name: name, def: def}
}

// Category returns the declared category.
func (b Bool) Category() string { return b.category }

// Name returns the declared name.
func (b Bool) Name() string { return b.name }

// Default returns the declared default value.
func (b Bool) Default() bool { return b.def }

// Kind always returns KindBoolean.
func (b Bool) Kind() Kind { return KindBoolean }

// MakeTuneable returns the initial stored representation: current = default.
func (b Bool) MakeTuneable() Tuneable {
	return &BooleanVariable{Default: b.def, Current: b.def}
}

// Register registers the declaration. Calling it more than once is harmless.
func (b Bool) Register() {
	b.r.Register(b.category, b.name, b)
}

// Read returns the current value, registering the declaration on a miss.
func (b Bool) Read() bool {
	if v, ok := Get[bool](b.r, b.category, b.name); ok {
		return v
	}
	b.Register()
	return b.def
}

// Write stores v.
//
// If the key is not registered and the Registry allows it (the default), the
// declaration is registered first.
func (b Bool) Write(v bool) {
	b.r.ensureRegistered(b.category, b.name, b)
	Set(b.r, b.category, b.name, v)
}

// Reset restores the declared default.
func (b Bool) Reset() {
	Reset[bool](b.r, b.category, b.name)
}
