package tuning

// strategy is the per-kind rule set the registry dispatches through.
type strategy[T Value] interface {
	update(t Tuneable, v T) bool
	reset(t Tuneable) bool
	extract(t Tuneable) (T, bool)
}

type numericStrategy[T Number] struct{}

func (numericStrategy[T]) update(t Tuneable, v T) bool {
	n, ok := t.(*Numeric[T])
	if !ok || v != v {
		return false
	}
	c := clamp(v, n.Min, n.Max)
	if !IsFinite(c) {
		return false
	}
	n.Current = c
	return true
}

func (numericStrategy[T]) reset(t Tuneable) bool {
	n, ok := t.(*Numeric[T])
	if !ok {
		return false
	}
	n.Current = n.Default
	return true
}

func (numericStrategy[T]) extract(t Tuneable) (T, bool) {
	n, ok := t.(*Numeric[T])
	if !ok {
		var zero T
		return zero, false
	}
	return n.Current, true
}

type booleanStrategy struct{}

func (booleanStrategy) update(t Tuneable, v bool) bool {
	b, ok := t.(*BooleanVariable)
	if !ok {
		return false
	}
	b.Current = v
	return true
}

func (booleanStrategy) reset(t Tuneable) bool {
	b, ok := t.(*BooleanVariable)
	if !ok {
		return false
	}
	b.Current = b.Default
	return true
}

func (booleanStrategy) extract(t Tuneable) (bool, bool) {
	b, ok := t.(*BooleanVariable)
	if !ok {
		return false, false
	}
	return b.Current, true
}

func strategyFor[T Value]() strategy[T] {
	var zero T
	var s any
	switch any(zero).(type) {
	case float32:
		s = numericStrategy[float32]{}
	case float64:
		s = numericStrategy[float64]{}
	case int32:
		s = numericStrategy[int32]{}
	case int64:
		s = numericStrategy[int64]{}
	default:
		s = booleanStrategy{}
	}
	return s.(strategy[T])
}

// clamp restricts v to [min, max]; a nil bound is unbounded on that side.
// The low bound is applied first, then the high bound.
func clamp[T Number](v T, lo, hi *T) T {
	if lo != nil && v < *lo {
		v = *lo
	}
	if hi != nil && v > *hi {
		v = *hi
	}
	return v
}
