package tuning

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	errNotBool   = errors.New("want true/false, t/f, 1/0, yes/no, y/n or on/off")
	errNotFinite = errors.New("not a finite number")
)

// parseAs converts s into a T. Integers are base 10 and must fit T; floats
// are rounded to T's precision and must be finite.
func parseAs[T Value](s string) (T, error) {
	var out T
	s = strings.TrimSpace(s)
	switch p := any(&out).(type) {
	case *float32:
		f, err := strconv.ParseFloat(s, 32)
		if err == nil && !IsFinite(f) {
			err = errNotFinite
		}
		*p = float32(f)
		return out, err
	case *float64:
		f, err := strconv.ParseFloat(s, 64)
		if err == nil && !IsFinite(f) {
			err = errNotFinite
		}
		*p = f
		return out, err
	case *int32:
		n, err := strconv.ParseInt(s, 10, 32)
		*p = int32(n)
		return out, err
	case *int64:
		n, err := strconv.ParseInt(s, 10, 64)
		*p = n
		return out, err
	case *bool:
		switch strings.ToLower(s) {
		case "true", "t", "1", "yes", "y", "on":
			*p = true
		case "false", "f", "0", "no", "n", "off":
			*p = false
		default:
			return out, errNotBool
		}
	}
	return out, nil
}

func setString[T Value](r *Registry, category, name, value string) error {
	v, err := parseAs[T](value)
	if err != nil {
		return fmt.Errorf("%w: %s/%s expects %s, got %q: %v", ErrInvalidValue, category, name, kindOf[T](), value, err)
	}
	if !Set(r, category, name, v) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, category, name)
	}
	return nil
}
