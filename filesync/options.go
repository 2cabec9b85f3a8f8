package filesync

import (
	"log/slog"
	"time"
)

const (
	defaultPeriod      = 100 * time.Millisecond
	defaultJoinTimeout = 5 * time.Second
)

type config struct {
	period      time.Duration
	joinTimeout time.Duration
	logger      *slog.Logger
}

// Option configures a Watcher.
type Option func(*config)

// WithPeriod sets the debounce period: events are coalesced and the file is
// re-applied d after the first event of a burst.
//
// Default is 100ms. Non-positive values are ignored.
func WithPeriod(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.period = d
		}
	}
}

// WithJoinTimeout bounds how long Close waits for the worker goroutine.
//
// Default is 5s. Non-positive values are ignored.
func WithJoinTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.joinTimeout = d
		}
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

func buildConfig(opts []Option) config {
	c := config{
		period:      defaultPeriod,
		joinTimeout: defaultJoinTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}
