// Package httpx holds the net/http middleware used by livetune's asset and
// ops server.
//
// A middleware is a plain func(http.Handler) http.Handler; Chain(a, b, c)
// applied to h yields a(b(c(h))). Nil middlewares are ignored and a nil
// endpoint panics, since it can only be an assembly error.
//
//	h := httpx.Chain(
//		httpx.Recover(logger),
//		httpx.AccessLog(logger),
//	).Handler(mux)
//
// Both middlewares forward http.Hijacker, so they can wrap WebSocket
// endpoints.
package httpx
