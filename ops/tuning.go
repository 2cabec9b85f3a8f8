package ops

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/evan-idocoding/livetune/rt/tuning"
)

type tuningConfig struct {
	format Format
	guard  func(tuning.Key) bool
}

// TuningOption configures tuning handlers.
type TuningOption func(*tuningConfig)

// WithTuningDefaultFormat sets the default response format. Default is FormatText.
func WithTuningDefaultFormat(f Format) TuningOption {
	return func(c *tuningConfig) { c.format = f }
}

// WithTuningKeyGuard appends a key guard. Guards combine with AND and apply
// to read and write handlers alike.
func WithTuningKeyGuard(fn func(tuning.Key) bool) TuningOption {
	return func(c *tuningConfig) {
		if fn == nil {
			return
		}
		prev := c.guard
		if prev == nil {
			c.guard = fn
			return
		}
		c.guard = func(k tuning.Key) bool { return prev(k) && fn(k) }
	}
}

// WithTuningAllowCategories restricts keys to the given categories. With no
// non-empty category, every key is denied.
func WithTuningAllowCategories(categories ...string) TuningOption {
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		if c != "" {
			set[c] = struct{}{}
		}
	}
	return WithTuningKeyGuard(func(k tuning.Key) bool {
		_, ok := set[k.Category]
		return ok
	})
}

func applyTuningOptions(opts []TuningOption) tuningConfig {
	cfg := tuningConfig{format: FormatText}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if !cfg.format.valid() {
		cfg.format = FormatText
	}
	return cfg
}

func (c tuningConfig) allowed(k tuning.Key) bool {
	return c.guard == nil || c.guard(k)
}

// TuningItem is the ops view of one variable. Values keep their Go type in
// JSON; Min and Max are omitted when unbounded.
type TuningItem struct {
	Category string      `json:"category"`
	Name     string      `json:"name"`
	Kind     tuning.Kind `json:"kind"`
	Current  any         `json:"current"`
	Default  any         `json:"default"`
	Min      any         `json:"min,omitempty"`
	Max      any         `json:"max,omitempty"`
}

// NewTuningItem converts a stored variable into its ops view.
func NewTuningItem(k tuning.Key, t tuning.Tuneable) TuningItem {
	it := TuningItem{Category: k.Category, Name: k.Name, Kind: t.Kind()}
	switch v := t.(type) {
	case *tuning.Float32Variable:
		fillNumeric(&it, v)
	case *tuning.Float64Variable:
		fillNumeric(&it, v)
	case *tuning.Int32Variable:
		fillNumeric(&it, v)
	case *tuning.Int64Variable:
		fillNumeric(&it, v)
	case *tuning.BooleanVariable:
		it.Current, it.Default = v.Current, v.Default
	}
	return it
}

// fillNumeric renders non-finite values as strings ("NaN", "+Inf"); JSON has
// no literal for them. Non-finite bounds are omitted.
func fillNumeric[T tuning.Number](it *TuningItem, v *tuning.Numeric[T]) {
	it.Current, it.Default = jsonNumber(v.Current), jsonNumber(v.Default)
	if v.Min != nil && tuning.IsFinite(*v.Min) {
		it.Min = *v.Min
	}
	if v.Max != nil && tuning.IsFinite(*v.Max) {
		it.Max = *v.Max
	}
}

func jsonNumber[T tuning.Number](v T) any {
	if !tuning.IsFinite(v) {
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	}
	return v
}

// TuningItems returns every variable of r in key order.
func TuningItems(r *tuning.Registry) []TuningItem {
	snap := r.Snapshot()
	keys := make([]tuning.Key, 0, snap.Len())
	for category, group := range snap {
		for name := range group {
			keys = append(keys, tuning.Key{Category: category, Name: name})
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	out := make([]TuningItem, 0, len(keys))
	for _, k := range keys {
		t, _ := snap.Get(k.Category, k.Name)
		out = append(out, NewTuningItem(k, t))
	}
	return out
}

type tuningListResponse struct {
	OK    bool         `json:"ok"`
	Error string       `json:"error,omitempty"`
	Items []TuningItem `json:"items,omitempty"`
}

type tuningItemResponse struct {
	OK    bool        `json:"ok"`
	Error string      `json:"error,omitempty"`
	Item  *TuningItem `json:"item,omitempty"`
}

type tuningWriteResponse struct {
	OK    bool        `json:"ok"`
	Error string      `json:"error,omitempty"`
	Old   *TuningItem `json:"old,omitempty"`
	New   *TuningItem `json:"new,omitempty"`
}

// TuningSnapshotHandler lists every variable. GET/HEAD only.
func TuningSnapshotHandler(r *tuning.Registry, opts ...TuningOption) http.Handler {
	if r == nil {
		panic("ops: nil tuning.Registry")
	}
	cfg := applyTuningOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		format := formatFromRequest(req, cfg.format)
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			writeResponse(w, req, format, http.StatusMethodNotAllowed,
				tuningListResponse{Error: "method not allowed"}, textLine("method not allowed"))
			return
		}
		all := TuningItems(r)
		items := all[:0:0]
		for _, it := range all {
			if cfg.allowed(tuning.Key{Category: it.Category, Name: it.Name}) {
				items = append(items, it)
			}
		}
		writeResponse(w, req, format, http.StatusOK, tuningListResponse{OK: true, Items: items},
			func(b *strings.Builder) {
				for _, it := range items {
					appendTuningItemLines(b, "", it)
				}
			})
	})
}

// TuningLookupHandler returns one variable. GET/HEAD only;
// ?category=<c>&name=<n>.
func TuningLookupHandler(r *tuning.Registry, opts ...TuningOption) http.Handler {
	if r == nil {
		panic("ops: nil tuning.Registry")
	}
	cfg := applyTuningOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		format := formatFromRequest(req, cfg.format)
		fail := func(code int, msg string) {
			writeResponse(w, req, format, code, tuningItemResponse{Error: msg}, textLine(msg))
		}
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			fail(http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		key, code, msg := keyFromRequest(req, cfg)
		if code != 0 {
			fail(code, msg)
			return
		}
		t, ok := r.Lookup(key.Category, key.Name)
		if !ok {
			fail(http.StatusNotFound, "key not found")
			return
		}
		it := NewTuningItem(key, t)
		writeResponse(w, req, format, http.StatusOK, tuningItemResponse{OK: true, Item: &it},
			func(b *strings.Builder) { appendTuningItemLines(b, "", it) })
	})
}

// TuningSetHandler parses ?value= by the stored kind and writes it. POST only;
// ?category=<c>&name=<n>&value=<v>. Numeric values are clamped, so the new
// value may differ from the one sent.
func TuningSetHandler(r *tuning.Registry, opts ...TuningOption) http.Handler {
	return tuningWriteHandler(r, opts, func(req *http.Request, key tuning.Key) (int, string) {
		value, ok := getQuery(req, "value")
		if !ok {
			return http.StatusBadRequest, "missing value"
		}
		if err := r.SetFromString(key.Category, key.Name, value); err != nil {
			return mapTuningErrorToStatus(err), err.Error()
		}
		return 0, ""
	})
}

// TuningResetHandler restores a variable's default. POST only;
// ?category=<c>&name=<n>.
func TuningResetHandler(r *tuning.Registry, opts ...TuningOption) http.Handler {
	return tuningWriteHandler(r, opts, func(_ *http.Request, key tuning.Key) (int, string) {
		if !r.ResetKey(key.Category, key.Name) {
			return http.StatusNotFound, "key not found"
		}
		return 0, ""
	})
}

func tuningWriteHandler(r *tuning.Registry, opts []TuningOption, write func(*http.Request, tuning.Key) (int, string)) http.Handler {
	if r == nil {
		panic("ops: nil tuning.Registry")
	}
	cfg := applyTuningOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		format := formatFromRequest(req, cfg.format)
		fail := func(code int, msg string, old *TuningItem) {
			writeResponse(w, req, format, code, tuningWriteResponse{Error: msg, Old: old}, textLine(msg))
		}
		if req.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			fail(http.StatusMethodNotAllowed, "method not allowed", nil)
			return
		}
		key, code, msg := keyFromRequest(req, cfg)
		if code != 0 {
			fail(code, msg, nil)
			return
		}
		t, ok := r.Lookup(key.Category, key.Name)
		if !ok {
			fail(http.StatusNotFound, "key not found", nil)
			return
		}
		old := NewTuningItem(key, t)
		if code, msg := write(req, key); code != 0 {
			fail(code, msg, &old)
			return
		}
		t, _ = r.Lookup(key.Category, key.Name)
		cur := NewTuningItem(key, t)
		writeResponse(w, req, format, http.StatusOK, tuningWriteResponse{OK: true, Old: &old, New: &cur},
			func(b *strings.Builder) {
				appendTuningItemLines(b, "old.", old)
				appendTuningItemLines(b, "new.", cur)
			})
	})
}

// keyFromRequest returns a non-zero status on failure.
func keyFromRequest(req *http.Request, cfg tuningConfig) (tuning.Key, int, string) {
	category, _ := getQuery(req, "category")
	name, _ := getQuery(req, "name")
	if category == "" || name == "" {
		return tuning.Key{}, http.StatusBadRequest, "missing category or name"
	}
	key := tuning.Key{Category: category, Name: name}
	if !cfg.allowed(key) {
		return key, http.StatusForbidden, "key not allowed"
	}
	return key, 0, ""
}

// appendTuningItemLines writes one line per field:
// tuning\t<category>/<name>\t<prefix><field>\t<value>\n
func appendTuningItemLines(b *strings.Builder, prefix string, it TuningItem) {
	key := escapeTextField(it.Category + "/" + it.Name)
	write := func(field, value string) {
		b.WriteString("tuning\t")
		b.WriteString(key)
		b.WriteByte('\t')
		b.WriteString(prefix)
		b.WriteString(field)
		b.WriteByte('\t')
		b.WriteString(value)
		b.WriteByte('\n')
	}
	write("kind", it.Kind.String())
	write("current", formatTuningValue(it.Current))
	write("default", formatTuningValue(it.Default))
	if it.Min != nil {
		write("min", formatTuningValue(it.Min))
	}
	if it.Max != nil {
		write("max", formatTuningValue(it.Max))
	}
}

func formatTuningValue(v any) string {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	default:
		return ""
	}
}

func mapTuningErrorToStatus(err error) int {
	switch {
	case errors.Is(err, tuning.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, tuning.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
