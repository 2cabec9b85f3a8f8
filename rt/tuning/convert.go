package tuning

import "math"

// Int32From converts v to int32, saturating at the int32 range instead of
// wrapping.
func Int32From(v int64) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}

// Float32From converts v to float32, saturating finite values outside the
// float32 range at ±math.MaxFloat32. NaN and ±Inf pass through unchanged.
func Float32From(v float64) float32 {
	switch {
	case v > math.MaxFloat32 && !math.IsInf(v, 1):
		return math.MaxFloat32
	case v < -math.MaxFloat32 && !math.IsInf(v, -1):
		return -math.MaxFloat32
	default:
		return float32(v)
	}
}

// IsFinite reports whether v is neither NaN nor ±Inf. Integers are always
// finite.
func IsFinite[T Number](v T) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
