package safego

import "log/slog"

type config struct {
	name   string
	attrs  []slog.Attr
	logger *slog.Logger

	finally []func()

	onError             ErrorHandler
	reportContextCancel bool

	onPanic     PanicHandler
	panicPolicy PanicPolicy
}

// Option configures a single Go/GoErr/Run/RunErr call.
type Option func(*config)

func defaultConfig() config {
	return config{panicPolicy: RecoverAndReport}
}

func (c *config) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// WithName names the goroutine in reports.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithAttrs appends attributes to every report (preserving order).
func WithAttrs(attrs ...slog.Attr) Option {
	return func(c *config) { c.attrs = append(c.attrs, attrs...) }
}

// WithLogger sets the logger used when no handler is configured.
//
// Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithFinally registers a function to be called when execution finishes.
// Finalizers run in LIFO order.
func WithFinally(fn func()) Option {
	return func(c *config) {
		if fn == nil {
			return
		}
		c.finally = append(c.finally, fn)
	}
}

// WithErrorHandler sets the error handler. Panics in the handler are
// recovered and logged.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *config) { c.onError = h }
}

// WithReportContextCancel controls whether context cancellation errors are reported.
func WithReportContextCancel(report bool) Option {
	return func(c *config) { c.reportContextCancel = report }
}

// WithPanicHandler sets the panic handler. Panics in the handler are
// recovered and logged.
func WithPanicHandler(h PanicHandler) Option {
	return func(c *config) { c.onPanic = h }
}

// WithPanicPolicy sets the panic handling policy.
func WithPanicPolicy(p PanicPolicy) Option {
	return func(c *config) { c.panicPolicy = p }
}
