package netsync

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/evan-idocoding/livetune/rt/tuning"
)

var (
	// ErrMalformed wraps every decode failure.
	ErrMalformed = errors.New("netsync: malformed message")
	// ErrUnexpected is returned by Client when the server answers with the
	// wrong variant.
	ErrUnexpected = errors.New("netsync: unexpected message")
	// ErrSkipped is returned by Encode together with a usable Tuneables
	// frame when some entries could not be encoded and were left out.
	ErrSkipped = errors.New("netsync: entries skipped")
)

// Message is one protocol frame: ListAll, Tuneables, Delta or Ok.
type Message interface {
	tag() string
}

// ListAll asks for a full snapshot.
type ListAll struct{}

// Tuneables carries a full snapshot.
type Tuneables struct {
	State tuning.State
}

// Delta asks to set one variable. Only Value's current value is applied.
type Delta struct {
	Category string
	Name     string
	Value    tuning.Tuneable
}

// Ok acknowledges a Delta.
type Ok struct {
	Category string
	Name     string
}

func (ListAll) tag() string   { return "ListAll" }
func (Tuneables) tag() string { return "Tuneables" }
func (Delta) tag() string     { return "Delta" }
func (Ok) tag() string        { return "Ok" }

// Encode renders m as a JSON text frame.
//
// A Tuneables entry that cannot be encoded, such as a non-finite default, is
// left out of the frame; Encode then returns the frame along with an error
// wrapping ErrSkipped. Non-finite bounds are encoded as absent.
func Encode(m Message) ([]byte, error) {
	var (
		payload []byte
		skipped []error
	)
	switch v := m.(type) {
	case ListAll:
		payload = []byte("[]")
	case Tuneables:
		groups := make(map[string]map[string]json.RawMessage, len(v.State))
		for category, group := range v.State {
			g := make(map[string]json.RawMessage, len(group))
			for name, t := range group {
				raw, err := encodeTuneable(t)
				if err != nil {
					skipped = append(skipped, fmt.Errorf("%s/%s: %w", category, name, err))
					continue
				}
				g[name] = raw
			}
			groups[category] = g
		}
		b, err := json.Marshal([]any{groups})
		if err != nil {
			return nil, fmt.Errorf("netsync: encode: %w", err)
		}
		payload = b
	case Delta:
		raw, err := encodeTuneable(v.Value)
		if err != nil {
			return nil, fmt.Errorf("netsync: encode %s/%s: %w", v.Category, v.Name, err)
		}
		b, err := json.Marshal([][]any{{v.Category, v.Name, raw}})
		if err != nil {
			return nil, fmt.Errorf("netsync: encode: %w", err)
		}
		payload = b
	case Ok:
		b, err := json.Marshal([][]string{{v.Category, v.Name}})
		if err != nil {
			return nil, fmt.Errorf("netsync: encode: %w", err)
		}
		payload = b
	default:
		return nil, fmt.Errorf("netsync: encode: unknown message %T", m)
	}
	b, err := sjson.SetRawBytes([]byte(`{}`), m.tag(), payload)
	if err != nil {
		return nil, err
	}
	if len(skipped) > 0 {
		return b, fmt.Errorf("%w: %w", ErrSkipped, errors.Join(skipped...))
	}
	return b, nil
}

func encodeTuneable(t tuning.Tuneable) (json.RawMessage, error) {
	switch v := t.(type) {
	case nil:
		return nil, errors.New("nil tuneable")
	case *tuning.Float32Variable:
		t = finiteBounds(v)
	case *tuning.Float64Variable:
		t = finiteBounds(v)
	}
	body, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	inner := make([]byte, 0, len(body)+2)
	inner = append(inner, '[')
	inner = append(inner, body...)
	inner = append(inner, ']')
	return sjson.SetRawBytes([]byte(`{}`), t.Kind().String(), inner)
}

// finiteBounds returns n, or a copy of n with its non-finite bounds removed.
// An infinite bound constrains nothing, and NaN bounds never clamp.
func finiteBounds[T float32 | float64](n *tuning.Numeric[T]) *tuning.Numeric[T] {
	drop := func(b *T) bool { return b != nil && !tuning.IsFinite(*b) }
	if !drop(n.Min) && !drop(n.Max) {
		return n
	}
	out := *n
	if drop(out.Min) {
		out.Min = nil
	}
	if drop(out.Max) {
		out.Max = nil
	}
	return &out
}

// Decode parses one JSON text frame.
func Decode(data []byte) (Message, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	tag, body, err := single(gjson.ParseBytes(data))
	if err != nil {
		return nil, err
	}
	switch tag {
	case "ListAll":
		return ListAll{}, nil
	case "Tuneables":
		return decodeTuneables(body.Get("0"))
	case "Delta":
		category, name, err := decodeKey(body.Get("0"))
		if err != nil {
			return nil, err
		}
		t, err := DecodeTuneable(body.Get("0.2"))
		if err != nil {
			return nil, err
		}
		return Delta{Category: category, Name: name, Value: t}, nil
	case "Ok":
		category, name, err := decodeKey(body.Get("0"))
		if err != nil {
			return nil, err
		}
		return Ok{Category: category, Name: name}, nil
	default:
		return nil, fmt.Errorf("%w: unknown variant %q", ErrMalformed, tag)
	}
}

// single returns the only key of an externally tagged object.
func single(v gjson.Result) (string, gjson.Result, error) {
	if !v.IsObject() {
		return "", gjson.Result{}, fmt.Errorf("%w: expected object", ErrMalformed)
	}
	var (
		tag  string
		body gjson.Result
		n    int
	)
	v.ForEach(func(k, val gjson.Result) bool {
		n++
		tag, body = k.String(), val
		return n < 2
	})
	if n != 1 {
		return "", gjson.Result{}, fmt.Errorf("%w: expected exactly one variant", ErrMalformed)
	}
	return tag, body, nil
}

func decodeKey(v gjson.Result) (string, string, error) {
	c, n := v.Get("0"), v.Get("1")
	if c.Type != gjson.String || n.Type != gjson.String {
		return "", "", fmt.Errorf("%w: expected [category, name]", ErrMalformed)
	}
	return c.Str, n.Str, nil
}

func decodeTuneables(v gjson.Result) (Message, error) {
	if !v.IsObject() {
		return nil, fmt.Errorf("%w: expected category map", ErrMalformed)
	}
	state := make(tuning.State)
	var err error
	v.ForEach(func(category, group gjson.Result) bool {
		if !group.IsObject() {
			err = fmt.Errorf("%w: category %q is not an object", ErrMalformed, category.Str)
			return false
		}
		g := make(map[string]tuning.Tuneable)
		group.ForEach(func(name, raw gjson.Result) bool {
			var t tuning.Tuneable
			t, err = DecodeTuneable(raw)
			if err != nil {
				return false
			}
			g[name.Str] = t
			return true
		})
		state[category.Str] = g
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return Tuneables{State: state}, nil
}

// DecodeTuneable parses one kind-tagged tuneable value.
func DecodeTuneable(v gjson.Result) (tuning.Tuneable, error) {
	tag, body, err := single(v)
	if err != nil {
		return nil, err
	}
	fields := body.Get("0")
	if !fields.IsObject() {
		return nil, fmt.Errorf("%w: %s: expected object payload", ErrMalformed, tag)
	}
	switch tuning.Kind(tag) {
	case tuning.KindFloat32:
		return decodeNumeric(fields, tag, func(r gjson.Result) float32 { return tuning.Float32From(r.Float()) })
	case tuning.KindFloat64:
		return decodeNumeric(fields, tag, gjson.Result.Float)
	case tuning.KindInt32:
		return decodeNumeric(fields, tag, func(r gjson.Result) int32 { return tuning.Int32From(r.Int()) })
	case tuning.KindInt64:
		return decodeNumeric(fields, tag, gjson.Result.Int)
	case tuning.KindBoolean:
		cur := fields.Get("current")
		if cur.Type != gjson.True && cur.Type != gjson.False {
			return nil, fmt.Errorf("%w: Boolean: current must be a bool", ErrMalformed)
		}
		return &tuning.BooleanVariable{Default: fields.Get("default").Bool(), Current: cur.Bool()}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrMalformed, tag)
	}
}

func decodeNumeric[T tuning.Number](fields gjson.Result, tag string, conv func(gjson.Result) T) (tuning.Tuneable, error) {
	cur := fields.Get("current")
	if cur.Type != gjson.Number {
		return nil, fmt.Errorf("%w: %s: current must be a number", ErrMalformed, tag)
	}
	out := &tuning.Numeric[T]{
		Default: conv(fields.Get("default")),
		Current: conv(cur),
	}
	if b := fields.Get("min"); b.Type == gjson.Number {
		lo := conv(b)
		out.Min = &lo
	}
	if b := fields.Get("max"); b.Type == gjson.Number {
		hi := conv(b)
		out.Max = &hi
	}
	return out, nil
}
