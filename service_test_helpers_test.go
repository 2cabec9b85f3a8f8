package livetune

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// newTestService binds both servers on loopback ephemeral ports with signal
// handling off.
func newTestService(spec ServiceSpec) *Service {
	if spec.Logger == nil {
		spec.Logger = discard
	}
	if spec.HTTPAddr == "" {
		spec.HTTPAddr = "127.0.0.1:0"
	}
	if spec.ControlAddr == "" {
		spec.ControlAddr = "127.0.0.1:0"
	}
	spec.Signals.Disable = spec.Signals.Disable || len(spec.Signals.Signals) == 0
	return NewService(spec)
}

func waitForBoundAddr(t *testing.T, s *Service, srv *http.Server) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if addr := s.boundAddr(srv); addr != "" {
			return addr
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for server listener to bind")
	return ""
}

func httpGetBody(t *testing.T, url string) (code int, body string) {
	t.Helper()
	c := &http.Client{Timeout: 2 * time.Second}
	resp, err := c.Get(url)
	if err != nil {
		t.Fatalf("GET %q err=%v", url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}
