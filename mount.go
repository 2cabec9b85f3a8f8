package livetune

import (
	"net/http"
	"strings"
	"time"
)

// Conservative default timeouts for the servers NewService builds.
const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultIdleTimeout       = 60 * time.Second
)

func newHTTPServerWithDefaults(addr string, handler http.Handler) *http.Server {
	if strings.TrimSpace(addr) == "" {
		panic("livetune: newHTTPServerWithDefaults: empty addr")
	}
	if handler == nil {
		panic("livetune: newHTTPServerWithDefaults: nil handler")
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}
}

// mountPrefix routes requests whose path starts with prefix to subtree, with
// the prefix stripped, and everything else to fallback.
//
// prefix must start with "/"; a missing trailing "/" is added. A request for
// the bare base path (e.g. "/-") is redirected to the prefix with 307.
func mountPrefix(prefix string, subtree, fallback http.Handler) http.Handler {
	prefix = normalizeMountPrefixOrPanic(prefix)
	base := strings.TrimSuffix(prefix, "/")

	if subtree == nil {
		panic("livetune: mountPrefix: nil subtree handler")
	}
	if fallback == nil {
		panic("livetune: mountPrefix: nil fallback handler")
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == base {
			target := prefix
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, target, http.StatusTemporaryRedirect)
			return
		}
		if !strings.HasPrefix(path, prefix) {
			fallback.ServeHTTP(w, r)
			return
		}
		// Keep a leading "/" so the subtree mux does not redirect.
		r2 := new(http.Request)
		*r2 = *r
		u2 := *r.URL
		r2.URL = &u2
		r2.URL.Path = "/" + strings.TrimPrefix(path, prefix)
		r2.URL.RawPath = ""
		subtree.ServeHTTP(w, r2)
	})
}

func normalizeMountPrefixOrPanic(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		panic("livetune: mountPrefix: empty prefix")
	}
	if !strings.HasPrefix(prefix, "/") {
		panic("livetune: mountPrefix: invalid prefix (must start with '/'): " + prefix)
	}
	if strings.ContainsAny(prefix, " \t\r\n?#") {
		panic("livetune: mountPrefix: invalid prefix (contains whitespace or ?#): " + prefix)
	}
	if strings.Contains(prefix, "//") {
		panic("livetune: mountPrefix: invalid prefix (contains //): " + prefix)
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}
