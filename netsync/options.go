package netsync

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultWriteTimeout = 5 * time.Second
	defaultReadLimit    = 1 << 20
)

type config struct {
	logger       *slog.Logger
	checkOrigin  func(*http.Request) bool
	writeTimeout time.Duration
	readLimit    int64
}

// Option configures a Handler.
type Option func(*config)

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithCheckOrigin sets the WebSocket origin check.
//
// Default accepts every origin: the browser UI is served from a different
// port than the control channel, and the control channel binds loopback.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(c *config) { c.checkOrigin = fn }
}

// WithWriteTimeout bounds every frame write. Default is 5s.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

// WithReadLimit sets the maximum size of an inbound frame. Default is 1 MiB.
func WithReadLimit(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.readLimit = n
		}
	}
}

func buildConfig(opts []Option) config {
	c := config{
		writeTimeout: defaultWriteTimeout,
		readLimit:    defaultReadLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.checkOrigin == nil {
		c.checkOrigin = func(*http.Request) bool { return true }
	}
	return c
}
