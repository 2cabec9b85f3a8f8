package filesync

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/evan-idocoding/livetune/rt/tuning"
)

// ErrFormat is returned when a file is valid TOML but not a
// category -> name -> value document.
var ErrFormat = errors.New("filesync: invalid document")

// Document is a parsed file: category -> name -> raw TOML value.
type Document map[string]map[string]any

// Result reports the outcome of applying a Document.
type Result struct {
	Applied  []tuning.Key
	Rejected []tuning.Key
}

// Parse decodes TOML text into a Document.
func Parse(text string) (Document, error) {
	var raw map[string]any
	if _, err := toml.Decode(text, &raw); err != nil {
		return nil, fmt.Errorf("filesync: parse: %w", err)
	}
	doc := make(Document, len(raw))
	for category, v := range raw {
		group, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: top-level key %q is not a table", ErrFormat, category)
		}
		doc[category] = group
	}
	return doc, nil
}

// ReadFile reads and parses path.
func ReadFile(path string) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("filesync: read: %w", err)
	}
	return Parse(string(b))
}

// Load reads path and applies it to r once.
func Load(r *tuning.Registry, path string, opts ...Option) (Result, error) {
	cfg := buildConfig(opts)
	doc, err := ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	return applyDocument(r, doc, cfg.logger), nil
}

// ApplyDocument applies every value of doc to r, in key order. A value that
// cannot be applied is logged and recorded in Result.Rejected; it never stops
// the rest of the document.
func ApplyDocument(r *tuning.Registry, doc Document, l *slog.Logger) Result {
	if l == nil {
		l = slog.Default()
	}
	return applyDocument(r, doc, l)
}

func applyDocument(r *tuning.Registry, doc Document, l *slog.Logger) Result {
	var res Result
	categories := make([]string, 0, len(doc))
	for c := range doc {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, category := range categories {
		group := doc[category]
		names := make([]string, 0, len(group))
		for n := range group {
			names = append(names, n)
		}
		sort.Strings(names)

		for _, name := range names {
			key := tuning.Key{Category: category, Name: name}
			if applyValue(r, category, name, group[name], l) {
				res.Applied = append(res.Applied, key)
				continue
			}
			l.Error("filesync: unknown tuneable", "key", key.String())
			res.Rejected = append(res.Rejected, key)
		}
	}
	return res
}

func applyValue(r *tuning.Registry, category, name string, v any, l *slog.Logger) bool {
	switch x := v.(type) {
	case int64:
		return tuning.Set(r, category, name, x) ||
			tuning.Set(r, category, name, tuning.Int32From(x))
	case float64:
		if !tuning.IsFinite(x) {
			break
		}
		return tuning.Set(r, category, name, x) ||
			tuning.Set(r, category, name, tuning.Float32From(x))
	case bool:
		return tuning.Set(r, category, name, x)
	}
	l.Warn("filesync: unsupported value",
		"key", category+"/"+name, "type", fmt.Sprintf("%T", v), "value", fmt.Sprint(v))
	return false
}
