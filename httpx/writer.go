package httpx

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
)

// statusWriter records the response status and whether the response started.
type statusWriter struct {
	w       http.ResponseWriter
	status  int
	bytes   int64
	started bool
}

func (w *statusWriter) Header() http.Header { return w.w.Header() }

func (w *statusWriter) WriteHeader(code int) {
	if !w.started {
		w.started = true
		w.status = code
	}
	w.w.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if !w.started {
		w.started = true
		w.status = http.StatusOK
	}
	n, err := w.w.Write(p)
	w.bytes += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter { return w.w }

func (w *statusWriter) Flush() {
	if f, ok := w.w.(http.Flusher); ok {
		w.started = true
		f.Flush()
	}
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.w.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("httpx: underlying ResponseWriter does not support hijacking")
	}
	c, rw, err := h.Hijack()
	if err == nil {
		w.started = true
		w.status = http.StatusSwitchingProtocols
	}
	return c, rw, err
}
