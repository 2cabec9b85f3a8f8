package tuning

// Kind identifies the stored representation of a variable.
//
// The string form is also the tag used on the wire (see package netsync).
type Kind string

const (
	KindFloat32 Kind = "Float32"
	KindFloat64 Kind = "Float64"
	KindInt32   Kind = "Int32"
	KindInt64   Kind = "Int64"
	KindBoolean Kind = "Boolean"
)

func (k Kind) String() string { return string(k) }

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindFloat32, KindFloat64, KindInt32, KindInt64, KindBoolean:
		return true
	default:
		return false
	}
}

// Number is the set of numeric types that carry optional bounds.
type Number interface {
	float32 | float64 | int32 | int64
}

// Value is the set of Go types a variable can hold.
type Value interface {
	Number | bool
}

// Tuneable is the stored, type-tagged representation of one variable.
//
// The set of implementations is closed: *Numeric[float32], *Numeric[float64],
// *Numeric[int32], *Numeric[int64] and *BooleanVariable.
type Tuneable interface {
	Kind() Kind
	// Clone returns a deep copy.
	Clone() Tuneable

	sealed()
}

// Numeric is the stored state of a numeric variable with optional bounds.
//
// A nil Min (Max) means unbounded below (above).
type Numeric[T Number] struct {
	Default T  `json:"default"`
	Min     *T `json:"min"`
	Max     *T `json:"max"`
	Current T  `json:"current"`
}

type (
	Float32Variable = Numeric[float32]
	Float64Variable = Numeric[float64]
	Int32Variable   = Numeric[int32]
	Int64Variable   = Numeric[int64]
)

func (v *Numeric[T]) Kind() Kind { return kindOf[T]() }

func (v *Numeric[T]) Clone() Tuneable {
	out := &Numeric[T]{Default: v.Default, Current: v.Current}
	out.Min = clonePtr(v.Min)
	out.Max = clonePtr(v.Max)
	return out
}

func (*Numeric[T]) sealed() {}

// BooleanVariable is the stored state of a boolean variable.
type BooleanVariable struct {
	Default bool `json:"default"`
	Current bool `json:"current"`
}

func (*BooleanVariable) Kind() Kind { return KindBoolean }

func (v *BooleanVariable) Clone() Tuneable {
	out := *v
	return &out
}

func (*BooleanVariable) sealed() {}

// State maps category -> name -> Tuneable.
type State map[string]map[string]Tuneable

// Len returns the total number of variables in s.
func (s State) Len() int {
	n := 0
	for _, group := range s {
		n += len(group)
	}
	return n
}

// Get returns the variable stored under (category, name).
func (s State) Get(category, name string) (Tuneable, bool) {
	group, ok := s[category]
	if !ok {
		return nil, false
	}
	t, ok := group[name]
	return t, ok
}

// Definition converts a declaration into its initial stored representation.
type Definition interface {
	MakeTuneable() Tuneable
}

func kindOf[T Value]() Kind {
	var zero T
	switch any(zero).(type) {
	case float32:
		return KindFloat32
	case float64:
		return KindFloat64
	case int32:
		return KindInt32
	case int64:
		return KindInt64
	default:
		return KindBoolean
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
