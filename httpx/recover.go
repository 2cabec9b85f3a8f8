package httpx

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recover returns a middleware that recovers panics from downstream handlers
// and logs them at Error with the stack. l may be nil (slog.Default()).
//
// http.ErrAbortHandler is re-panicked to keep net/http semantics. A 500 is
// written only if the response has not started.
func Recover(l *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			panic("httpx: nil next handler")
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{w: w}
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}
				logger(l).Error("httpx: panic",
					"method", r.Method,
					"url", r.URL.String(),
					"value", p,
					"stack", string(debug.Stack()))
				if !sw.started {
					http.Error(sw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(sw, r)
		})
	}
}

func logger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
