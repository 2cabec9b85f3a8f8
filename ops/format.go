package ops

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Format controls the response rendering format.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

func (f Format) valid() bool { return f == FormatText || f == FormatJSON }

func formatFromRequest(r *http.Request, def Format) Format {
	switch r.URL.Query().Get("format") {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return def
	}
}

// writeResponse renders resp as JSON, or as text through renderText. HEAD
// requests get headers only.
func writeResponse(w http.ResponseWriter, r *http.Request, f Format, code int, resp any, renderText func(*strings.Builder)) {
	w.Header().Set("Cache-Control", "no-store")
	if f == FormatJSON {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		if r.Method != http.MethodHead {
			_ = json.NewEncoder(w).Encode(resp)
		}
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	if r.Method == http.MethodHead {
		return
	}
	var b strings.Builder
	renderText(&b)
	_, _ = w.Write([]byte(b.String()))
}

func textLine(msg string) func(*strings.Builder) {
	return func(b *strings.Builder) {
		if msg == "" {
			msg = "error"
		}
		b.WriteString(msg)
		b.WriteByte('\n')
	}
}

// escapeTextField escapes characters that would break the line/tab layout.
func escapeTextField(s string) string {
	if !strings.ContainsAny(s, "\\\t\r\n") && !hasControl(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '\n':
			b.WriteString(`\n`)
		default:
			if c < 0x20 {
				const hex = "0123456789abcdef"
				b.WriteString(`\u00`)
				b.WriteByte(hex[c>>4])
				b.WriteByte(hex[c&0x0f])
			} else {
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

func hasControl(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 {
			return true
		}
	}
	return false
}

func getQuery(r *http.Request, name string) (string, bool) {
	vs, ok := r.URL.Query()[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}
