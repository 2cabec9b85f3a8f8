package filesync

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/evan-idocoding/livetune/rt/tuning"
)

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// recorder is a slog.Handler that keeps every message. When hold is set,
// Handle blocks on a record with that message until release is closed.
type recorder struct {
	mu   sync.Mutex
	msgs []string

	hold     string
	held     chan struct{}
	heldOnce sync.Once
	release  chan struct{}
}

func (h *recorder) Enabled(context.Context, slog.Level) bool { return true }

func (h *recorder) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.msgs = append(h.msgs, r.Message)
	h.mu.Unlock()
	if h.hold != "" && r.Message == h.hold {
		h.heldOnce.Do(func() { close(h.held) })
		<-h.release
	}
	return nil
}

func (h *recorder) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recorder) WithGroup(string) slog.Handler      { return h }

func (h *recorder) count(msg string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.msgs {
		if m == msg {
			n++
		}
	}
	return n
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestLoadClampsAndSkipsUnknown(t *testing.T) {
	r := tuning.New()
	x := tuning.NewFloat32(r, "float", "x", 0, tuning.WithMin[float32](0), tuning.WithMax[float32](1))
	x.Register()

	path := filepath.Join(t.TempDir(), "tune.toml")
	writeFile(t, path, "[float]\nx = 1.5\nunknown = 2.0\n")

	var buf bytes.Buffer
	res, err := Load(r, path, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	if err != nil {
		t.Fatal(err)
	}
	if got := x.Read(); got != 1 {
		t.Fatalf("expected clamped 1, got %v", got)
	}
	if len(res.Applied) != 1 || res.Applied[0].String() != "float/x" {
		t.Fatalf("unexpected applied: %v", res.Applied)
	}
	if len(res.Rejected) != 1 || res.Rejected[0].String() != "float/unknown" {
		t.Fatalf("unexpected rejected: %v", res.Rejected)
	}
	if !strings.Contains(buf.String(), "unknown tuneable") {
		t.Fatalf("expected unknown tuneable log, got %q", buf.String())
	}
}

func TestApplyDocumentKinds(t *testing.T) {
	r := tuning.New()
	f32 := tuning.NewFloat32(r, "float", "f32", 0)
	f64 := tuning.NewFloat64(r, "float", "f64", 0)
	i32 := tuning.NewInt32(r, "int", "i32", 0)
	i64 := tuning.NewInt64(r, "int", "i64", 0)
	b := tuning.NewBool(r, "bool", "b", false)
	tuning.Declare(f32, f64, i32, i64, b).Register()

	doc, err := Parse(`
[float]
f32 = 0.25
f64 = 0.5

[int]
i32 = 5000000000
i64 = -7

[bool]
b = true
`)
	if err != nil {
		t.Fatal(err)
	}
	res := ApplyDocument(r, doc, discardLogger())
	if len(res.Rejected) != 0 {
		t.Fatalf("unexpected rejected: %v", res.Rejected)
	}
	if f32.Read() != 0.25 || f64.Read() != 0.5 {
		t.Fatalf("floats: got %v %v", f32.Read(), f64.Read())
	}
	if i32.Read() != math.MaxInt32 {
		t.Fatalf("expected saturated int32, got %d", i32.Read())
	}
	if i64.Read() != -7 {
		t.Fatalf("expected -7, got %d", i64.Read())
	}
	if !b.Read() {
		t.Fatalf("expected true")
	}
}

func TestApplyDocumentUnsupportedValues(t *testing.T) {
	r := tuning.New()
	b := tuning.NewBool(r, "misc", "flag", false)
	b.Register()

	doc, err := Parse(`
[misc]
a = "text"
b = 1979-05-27T07:32:00Z
c = [1, 2]
flag = true

[misc.nested]
x = 1
`)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	res := ApplyDocument(r, doc, slog.New(slog.NewTextHandler(&buf, nil)))

	if !b.Read() {
		t.Fatalf("expected flag to be applied despite unsupported siblings")
	}
	if len(res.Rejected) != 4 {
		t.Fatalf("expected 4 rejected, got %v", res.Rejected)
	}
	if n := strings.Count(buf.String(), "unsupported value"); n != 4 {
		t.Fatalf("expected 4 unsupported warnings, got %d", n)
	}
}

func TestNonFiniteFloatsAreRejected(t *testing.T) {
	r := tuning.New()
	a := tuning.NewFloat64(r, "float", "a", 1)
	b := tuning.NewFloat32(r, "float", "b", 2, tuning.WithMax[float32](10))
	c := tuning.NewFloat64(r, "float", "c", 3, tuning.WithMin(0.0))
	d := tuning.NewFloat32(r, "float", "d", 4)
	tuning.Declare(a, b, c, d).Register()

	doc, err := Parse(`
[float]
a = nan
b = inf
c = -inf
d = 1e39
`)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	res := ApplyDocument(r, doc, slog.New(slog.NewTextHandler(&buf, nil)))

	if len(res.Rejected) != 3 || len(res.Applied) != 1 {
		t.Fatalf("expected 3 rejected and 1 applied, got %+v", res)
	}
	if n := strings.Count(buf.String(), "unsupported value"); n != 3 {
		t.Fatalf("expected 3 unsupported warnings, got %d: %s", n, buf.String())
	}
	if a.Read() != 1 || b.Read() != 2 || c.Read() != 3 {
		t.Fatalf("non-finite values changed state: a=%v b=%v c=%v", a.Read(), b.Read(), c.Read())
	}
	if got := d.Read(); got != math.MaxFloat32 {
		t.Fatalf("expected 1e39 to saturate at MaxFloat32, got %v", got)
	}
}

func TestKindMismatchIsRejected(t *testing.T) {
	r := tuning.New()
	b := tuning.NewBool(r, "bool", "b", false)
	b.Register()

	doc, _ := Parse("[bool]\nb = 1\n")
	res := ApplyDocument(r, doc, discardLogger())
	if len(res.Rejected) != 1 || b.Read() {
		t.Fatalf("expected integer for a Boolean key to be rejected, got %v", res)
	}
}

func TestParseRejectsTopLevelScalar(t *testing.T) {
	if _, err := Parse("x = 1\n"); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
	if _, err := Parse("[broken"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestOpenMissingFile(t *testing.T) {
	r := tuning.New()
	if _, err := Open(r, filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestWatcherReappliesOnChange(t *testing.T) {
	r := tuning.New()
	v := tuning.NewInt32(r, "int", "name20", 20, tuning.WithMin[int32](0), tuning.WithMax[int32](20))
	v.Register()

	path := filepath.Join(t.TempDir(), "tune.toml")
	writeFile(t, path, "[int]\nname20 = 5\n")

	w, err := Open(r, path, WithPeriod(10*time.Millisecond), WithLogger(discardLogger()))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if got := v.Read(); got != 5 {
		t.Fatalf("expected initial apply to set 5, got %d", got)
	}

	writeFile(t, path, "[int]\nname20 = 99\n")

	deadline := time.Now().Add(3 * time.Second)
	for v.Read() != 20 {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for reload, value=%d", v.Read())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWatcherKeepsStateOnBadReload(t *testing.T) {
	r := tuning.New()
	v := tuning.NewBool(r, "bool", "b", false)
	v.Register()

	dir := t.TempDir()
	path := filepath.Join(dir, "tune.toml")
	writeFile(t, path, "[bool]\nb = true\n")

	w, err := Open(r, path, WithPeriod(10*time.Millisecond), WithLogger(discardLogger()))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	writeFile(t, path, "[bool\nb = ")
	// A sibling file in the same directory is ignored.
	writeFile(t, filepath.Join(dir, "other.toml"), "[bool]\nb = false\n")
	time.Sleep(100 * time.Millisecond)

	if !v.Read() {
		t.Fatalf("expected value to survive a broken reload")
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	r := tuning.New()
	path := filepath.Join(t.TempDir(), "tune.toml")
	writeFile(t, path, "")

	w, err := Open(r, path, WithLogger(discardLogger()))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestWatcherCoalescesBursts(t *testing.T) {
	r := tuning.New()
	v := tuning.NewInt64(r, "int", "n", 0)
	v.Register()

	path := filepath.Join(t.TempDir(), "tune.toml")
	writeFile(t, path, "[int]\nn = 0\n")

	h := &recorder{}
	w, err := Open(r, path, WithPeriod(300*time.Millisecond), WithLogger(slog.New(h)))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	for i := 1; i <= 5; i++ {
		writeFile(t, path, "[int]\nn = "+strconv.Itoa(i)+"\n")
	}
	waitFor(t, "reload", func() bool { return v.Read() == 5 })
	// Let a second reload land if the burst was split.
	time.Sleep(400 * time.Millisecond)

	if n := h.count("filesync: applied"); n != 1 {
		t.Fatalf("expected 5 writes to coalesce into 1 reload, got %d", n)
	}
}

func TestWatcherKeepsStateWhenFileRemoved(t *testing.T) {
	r := tuning.New()
	v := tuning.NewInt32(r, "int", "n", 0)
	v.Register()

	path := filepath.Join(t.TempDir(), "tune.toml")
	writeFile(t, path, "[int]\nn = 7\n")

	h := &recorder{}
	w, err := Open(r, path, WithPeriod(20*time.Millisecond), WithLogger(slog.New(h)))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "removal warning", func() bool {
		return h.count("filesync: file removed; keeping current values") > 0
	})
	if n := h.count("filesync: reload failed"); n != 0 {
		t.Fatalf("removal triggered %d failed reloads", n)
	}
	if got := v.Read(); got != 7 {
		t.Fatalf("expected 7 to survive removal, got %d", got)
	}

	writeFile(t, path, "[int]\nn = 8\n")
	waitFor(t, "reload after recreate", func() bool { return v.Read() == 8 })
}

func TestWatcherCloseJoinTimeout(t *testing.T) {
	r := tuning.New()
	path := filepath.Join(t.TempDir(), "tune.toml")
	writeFile(t, path, "")

	h := &recorder{
		hold:    "filesync: change",
		held:    make(chan struct{}),
		release: make(chan struct{}),
	}
	t.Cleanup(func() { close(h.release) })

	w, err := Open(r, path,
		WithPeriod(10*time.Millisecond),
		WithJoinTimeout(50*time.Millisecond),
		WithLogger(slog.New(h)))
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, path, "[misc]\n")
	select {
	case <-h.held:
	case <-time.After(3 * time.Second):
		t.Fatalf("worker never picked up the change")
	}

	err = w.Close()
	if !errors.Is(err, ErrJoinTimeout) {
		t.Fatalf("expected ErrJoinTimeout, got %v", err)
	}
	if again := w.Close(); !errors.Is(again, ErrJoinTimeout) {
		t.Fatalf("second Close returned %v, want the first result", again)
	}
}
