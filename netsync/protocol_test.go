package netsync

import (
	"errors"
	"math"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/evan-idocoding/livetune/rt/tuning"
)

func TestEncodeListAll(t *testing.T) {
	b, err := Encode(ListAll{})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"ListAll":[]}` {
		t.Fatalf("unexpected encoding: %s", b)
	}
}

func TestEncodeOk(t *testing.T) {
	b, err := Encode(Ok{Category: "bool", Name: "name1"})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"Ok":[["bool","name1"]]}` {
		t.Fatalf("unexpected encoding: %s", b)
	}
}

func TestEncodeDeltaFloat(t *testing.T) {
	lo := float32(0)
	b, err := Encode(Delta{Category: "float", Name: "name2", Value: &tuning.Float32Variable{Default: 1, Min: &lo, Current: 0.5}})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"Delta":[["float","name2",{"Float32":[{"default":1,"min":0,"max":null,"current":0.5}]}]]}`
	if string(b) != want {
		t.Fatalf("unexpected encoding:\n got %s\nwant %s", b, want)
	}
}

func TestEncodeTuneablesShape(t *testing.T) {
	state := tuning.State{
		"bool": {"name1": &tuning.BooleanVariable{Default: true, Current: false}},
		"int":  {"name.dotted": &tuning.Int64Variable{Default: 20, Current: 3}},
	}
	b, err := Encode(Tuneables{State: state})
	if err != nil {
		t.Fatal(err)
	}
	root := gjson.ParseBytes(b)
	if got := root.Get("Tuneables.0.bool.name1.Boolean.0.default").Bool(); !got {
		t.Fatalf("expected default true in %s", b)
	}
	if got := root.Get(`Tuneables.0.int.name\.dotted.Int64.0.current`).Int(); got != 3 {
		t.Fatalf("expected current 3 in %s", b)
	}
}

func TestEncodeTuneablesSkipsNonFinite(t *testing.T) {
	state := tuning.State{
		"float": {
			"nan":  &tuning.Float64Variable{Default: 1, Current: math.NaN()},
			"good": &tuning.Float32Variable{Default: 1, Current: 0.5},
		},
	}
	b, err := Encode(Tuneables{State: state})
	if !errors.Is(err, ErrSkipped) {
		t.Fatalf("expected ErrSkipped, got %v", err)
	}
	m, err := Decode(b)
	if err != nil {
		t.Fatalf("frame with skipped entries does not decode: %v", err)
	}
	got := m.(Tuneables).State
	if _, ok := got.Get("float", "nan"); ok {
		t.Fatalf("expected float/nan to be skipped in %s", b)
	}
	if _, ok := got.Get("float", "good"); !ok {
		t.Fatalf("expected float/good to survive in %s", b)
	}
}

func TestDecodeSaturatesNarrowKinds(t *testing.T) {
	v := gjson.Parse(`{"Int32":[{"default":-4294967296,"min":null,"max":4294967295,"current":4294967295}]}`)
	tn, err := DecodeTuneable(v)
	if err != nil {
		t.Fatal(err)
	}
	n := tn.(*tuning.Int32Variable)
	if n.Current != math.MaxInt32 || *n.Max != math.MaxInt32 || n.Default != math.MinInt32 {
		t.Fatalf("expected saturation, got %+v max=%d", n, *n.Max)
	}

	v = gjson.Parse(`{"Float32":[{"default":0,"min":-1e39,"max":null,"current":1e39}]}`)
	tn, err = DecodeTuneable(v)
	if err != nil {
		t.Fatal(err)
	}
	f := tn.(*tuning.Float32Variable)
	if f.Current != math.MaxFloat32 || *f.Min != -math.MaxFloat32 {
		t.Fatalf("expected saturation, got %+v min=%v", f, *f.Min)
	}
}

func TestDecodeDeltaBoolean(t *testing.T) {
	m, err := Decode([]byte(`{"Delta":[["bool","name1",{"Boolean":[{"default":true,"current":false}]}]]}`))
	if err != nil {
		t.Fatal(err)
	}
	d, ok := m.(Delta)
	if !ok {
		t.Fatalf("expected Delta, got %T", m)
	}
	if d.Category != "bool" || d.Name != "name1" {
		t.Fatalf("unexpected key %s/%s", d.Category, d.Name)
	}
	bv, ok := d.Value.(*tuning.BooleanVariable)
	if !ok || bv.Current != false || bv.Default != true {
		t.Fatalf("unexpected value %#v", d.Value)
	}
}

func TestDecodeNumericBounds(t *testing.T) {
	m, err := Decode([]byte(`{"Delta":[["int","x",{"Int64":[{"default":20,"min":null,"max":20,"current":9007199254740993}]}]]}`))
	if err != nil {
		t.Fatal(err)
	}
	v := m.(Delta).Value.(*tuning.Int64Variable)
	if v.Min != nil {
		t.Fatalf("expected nil min, got %v", *v.Min)
	}
	if v.Max == nil || *v.Max != 20 {
		t.Fatalf("expected max 20, got %v", v.Max)
	}
	if v.Current != 9007199254740993 {
		t.Fatalf("expected exact int64, got %d", v.Current)
	}
}

func TestRoundTripTuneables(t *testing.T) {
	lo, hi := int32(0), int32(20)
	in := tuning.State{
		"int":  {"name20": &tuning.Int32Variable{Default: 20, Min: &lo, Max: &hi, Current: 7}},
		"bool": {"b": &tuning.BooleanVariable{Default: true, Current: true}},
	}
	b, err := Encode(Tuneables{State: in})
	if err != nil {
		t.Fatal(err)
	}
	m, err := Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	out := m.(Tuneables).State
	iv, ok := out.Get("int", "name20")
	if !ok {
		t.Fatalf("missing int/name20 in %v", out)
	}
	got := iv.(*tuning.Int32Variable)
	if got.Current != 7 || *got.Min != 0 || *got.Max != 20 {
		t.Fatalf("unexpected %#v", got)
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 variables, got %d", out.Len())
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		`not json`,
		`[]`,
		`{}`,
		`{"ListAll":[],"Ok":[]}`,
		`{"Hello":[]}`,
		`{"Ok":[[1,2]]}`,
		`{"Delta":[["c","n",{"UInt8":[{"current":1}]}]]}`,
		`{"Delta":[["c","n",{"Float32":[{"current":"x"}]}]]}`,
		`{"Delta":[["c","n",{"Boolean":[{"current":1}]}]]}`,
		`{"Tuneables":[{"c":1}]}`,
	}
	for _, c := range cases {
		if _, err := Decode([]byte(c)); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Decode(%s): expected ErrMalformed, got %v", c, err)
		}
	}
}
