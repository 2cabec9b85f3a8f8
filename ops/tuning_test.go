package ops

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evan-idocoding/livetune/rt/tuning"
)

func newTestRegistry() *tuning.Registry {
	r := tuning.New()
	tuning.Declare(
		tuning.NewFloat32(r, "float", "name1", 1, tuning.WithMin[float32](0), tuning.WithMax[float32](1)),
		tuning.NewInt64(r, "int", "name_64_2", 20, tuning.WithMax[int64](20)),
		tuning.NewBool(r, "bool", "name1", true),
	).Register()
	return r
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestTuningSnapshotText(t *testing.T) {
	w := do(TuningSnapshotHandler(newTestRegistry()), http.MethodGet, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"tuning\tbool/name1\tkind\tBoolean\n",
		"tuning\tbool/name1\tcurrent\ttrue\n",
		"tuning\tfloat/name1\tmin\t0\n",
		"tuning\tint/name_64_2\tmax\t20\n",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body=%q, want contain %q", body, want)
		}
	}
	if strings.Contains(body, "tuning\tint/name_64_2\tmin") {
		t.Fatalf("expected no min line for an unbounded-below variable: %q", body)
	}
	// Sorted by category: bool < float < int.
	if strings.Index(body, "bool/") > strings.Index(body, "float/") {
		t.Fatalf("expected sorted output: %q", body)
	}
}

func TestTuningSnapshotJSON(t *testing.T) {
	w := do(TuningSnapshotHandler(newTestRegistry(), WithTuningDefaultFormat(FormatJSON)), http.MethodGet, "/")
	var got struct {
		OK    bool `json:"ok"`
		Items []struct {
			Category string  `json:"category"`
			Name     string  `json:"name"`
			Kind     string  `json:"kind"`
			Current  any     `json:"current"`
			Min      *any    `json:"min"`
			Max      float64 `json:"max"`
		} `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.OK || len(got.Items) != 3 {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}
	it := got.Items[2]
	if it.Category != "int" || it.Kind != "Int64" || it.Min != nil || it.Max != 20 {
		t.Fatalf("unexpected int item: %+v", it)
	}
}

func TestTuningSnapshotNonFiniteDeclaration(t *testing.T) {
	r := newTestRegistry()
	tuning.NewFloat64(r, "float", "inf", math.Inf(1), tuning.WithMin(math.Inf(-1))).Register()

	w := do(TuningSnapshotHandler(r, WithTuningDefaultFormat(FormatJSON)), http.MethodGet, "/")
	var got struct {
		OK    bool `json:"ok"`
		Items []struct {
			Name    string `json:"name"`
			Current any    `json:"current"`
			Min     *any   `json:"min"`
		} `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	if !got.OK || len(got.Items) != 4 {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}
	it := got.Items[1]
	if it.Name != "inf" || it.Current != "+Inf" || it.Min != nil {
		t.Fatalf("unexpected float/inf item: %+v", it)
	}

	w = do(TuningSnapshotHandler(r), http.MethodGet, "/")
	if !strings.Contains(w.Body.String(), "tuning\tfloat/inf\tcurrent\t+Inf\n") {
		t.Fatalf("text body=%q", w.Body.String())
	}
}

func TestTuningSnapshotGuard(t *testing.T) {
	h := TuningSnapshotHandler(newTestRegistry(), WithTuningAllowCategories("bool"))
	body := do(h, http.MethodGet, "/").Body.String()
	if strings.Contains(body, "float/") || !strings.Contains(body, "bool/name1") {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestTuningLookup(t *testing.T) {
	r := newTestRegistry()
	h := TuningLookupHandler(r)

	w := do(h, http.MethodGet, "/?category=float&name=name1")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "tuning\tfloat/name1\tcurrent\t1\n") {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
	if w := do(h, http.MethodGet, "/?category=float"); w.Code != http.StatusBadRequest {
		t.Fatalf("missing name: status=%d", w.Code)
	}
	if w := do(h, http.MethodGet, "/?category=float&name=nope"); w.Code != http.StatusNotFound {
		t.Fatalf("unknown key: status=%d", w.Code)
	}
	if w := do(h, http.MethodPost, "/?category=float&name=name1"); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST: status=%d", w.Code)
	}
}

func TestTuningSetClamps(t *testing.T) {
	r := newTestRegistry()
	h := TuningSetHandler(r)

	w := do(h, http.MethodPost, "/?category=float&name=name1&value=3.5")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "tuning\tfloat/name1\tnew.current\t1\n") {
		t.Fatalf("body=%q", body)
	}

	w = do(h, http.MethodPost, "/?category=float&name=name1&value=0.25")
	if got, _ := tuning.Get[float32](r, "float", "name1"); got != 0.25 {
		t.Fatalf("expected 0.25, got %v (body=%q)", got, w.Body.String())
	}
}

func TestTuningSetErrors(t *testing.T) {
	r := newTestRegistry()
	h := TuningSetHandler(r, WithTuningDefaultFormat(FormatJSON))

	cases := []struct {
		method, target string
		code           int
	}{
		{http.MethodGet, "/?category=bool&name=name1&value=true", http.StatusMethodNotAllowed},
		{http.MethodPost, "/?category=bool&name=name1", http.StatusBadRequest},
		{http.MethodPost, "/?category=bool&name=name1&value=maybe", http.StatusBadRequest},
		{http.MethodPost, "/?category=bool&name=missing&value=true", http.StatusNotFound},
	}
	for _, c := range cases {
		w := do(h, c.method, c.target)
		if w.Code != c.code {
			t.Fatalf("%s %s: status=%d, want %d", c.method, c.target, w.Code, c.code)
		}
		var resp tuningWriteResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.OK || resp.Error == "" {
			t.Fatalf("%s %s: unexpected body %s", c.method, c.target, w.Body.String())
		}
	}
}

func TestTuningReset(t *testing.T) {
	r := newTestRegistry()
	tuning.Set(r, "bool", "name1", false)

	w := do(TuningResetHandler(r), http.MethodPost, "/?category=bool&name=name1")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "old.current\tfalse\n") || !strings.Contains(body, "new.current\ttrue\n") {
		t.Fatalf("body=%q", body)
	}
	if w := do(TuningResetHandler(r), http.MethodPost, "/?category=x&name=y"); w.Code != http.StatusNotFound {
		t.Fatalf("unknown key: status=%d", w.Code)
	}
}

func TestTuningWriteGuardForbidden(t *testing.T) {
	r := newTestRegistry()
	h := TuningSetHandler(r, WithTuningAllowCategories("float"))
	if w := do(h, http.MethodPost, "/?category=bool&name=name1&value=false"); w.Code != http.StatusForbidden {
		t.Fatalf("status=%d, want 403", w.Code)
	}
	if got, _ := tuning.Get[bool](r, "bool", "name1"); !got {
		t.Fatalf("guarded key must not change")
	}
}

func TestEscapeTextField(t *testing.T) {
	if got := escapeTextField("a\tb\nc\\\x01"); got != `a\tb\nc\\\u0001` {
		t.Fatalf("got %q", got)
	}
	if got := escapeTextField("plain"); got != "plain" {
		t.Fatalf("got %q", got)
	}
}
