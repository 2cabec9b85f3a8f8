package httpx

import "net/http"

// Middleware wraps the next handler and returns a new handler.
type Middleware func(http.Handler) http.Handler

// Middlewares is a middleware chain. Chain(a, b, c).Handler(h) returns a(b(c(h))).
type Middlewares []Middleware

// Chain creates a chain from mws, dropping nil entries.
func Chain(mws ...Middleware) Middlewares {
	return appendNonNil(nil, mws)
}

// With returns a new chain with more appended. The receiver is not mutated.
func (mws Middlewares) With(more ...Middleware) Middlewares {
	out := make(Middlewares, 0, len(mws)+len(more))
	out = appendNonNil(out, mws)
	return appendNonNil(out, more)
}

// Handler builds the chain around h.
//
// It panics if h is nil.
func (mws Middlewares) Handler(h http.Handler) http.Handler {
	if h == nil {
		panic("httpx: nil endpoint handler")
	}
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Wrap applies mws to h.
func Wrap(h http.Handler, mws ...Middleware) http.Handler {
	return Chain(mws...).Handler(h)
}

func appendNonNil(dst, src Middlewares) Middlewares {
	for _, mw := range src {
		if mw != nil {
			dst = append(dst, mw)
		}
	}
	return dst
}
