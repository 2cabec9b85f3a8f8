package tuning

import "errors"

// The Registry's own operations never fail; these errors are only returned by
// the string-based helpers used by ops tooling.
var (
	// ErrNotFound indicates the key is not registered.
	ErrNotFound = errors.New("tuning: key not found")
	// ErrInvalidValue indicates a value cannot be parsed for the stored kind.
	ErrInvalidValue = errors.New("tuning: invalid value")
)
