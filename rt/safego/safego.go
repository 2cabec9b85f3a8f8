package safego

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Go starts fn in a new goroutine. See RunErr.
func Go(ctx context.Context, fn func(context.Context), opts ...Option) {
	GoErr(ctx, func(ctx context.Context) error {
		fn(ctx)
		return nil
	}, opts...)
}

// GoErr starts fn in a new goroutine. See RunErr.
func GoErr(ctx context.Context, fn func(context.Context) error, opts ...Option) {
	go RunErr(ctx, fn, opts...)
}

// Run executes fn synchronously. See RunErr.
func Run(ctx context.Context, fn func(context.Context), opts ...Option) {
	RunErr(ctx, func(ctx context.Context) error {
		fn(ctx)
		return nil
	}, opts...)
}

// RunErr executes fn synchronously, recovering panics and reporting the
// returned error. Nothing is returned to the caller.
func RunErr(ctx context.Context, fn func(context.Context) error, opts ...Option) {
	if ctx == nil {
		ctx = context.Background()
	}

	c := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}

	defer runFinalizers(ctx, &c)

	defer func() {
		p := recover()
		if p == nil || c.panicPolicy == RecoverOnly {
			return
		}
		reportPanic(ctx, &c, PanicInfo{
			Name:  c.name,
			Attrs: cloneAttrs(c.attrs),
			Value: p,
			Stack: debug.Stack(),
		})
		if c.panicPolicy == RepanicAfterReport {
			panic(p)
		}
	}()

	err := fn(ctx)
	if err == nil {
		return
	}
	if !c.reportContextCancel && isContextCancel(err) {
		return
	}
	reportError(ctx, &c, ErrorInfo{
		Name:  c.name,
		Attrs: cloneAttrs(c.attrs),
		Err:   err,
	})
}

func runFinalizers(ctx context.Context, c *config) {
	for i := len(c.finally) - 1; i >= 0; i-- {
		fn := c.finally[i]
		func() {
			defer func() {
				if p := recover(); p != nil {
					reportPanic(ctx, c, PanicInfo{
						Name:  c.name,
						Attrs: cloneAttrs(c.attrs),
						Value: fmt.Sprintf("safego: finalizer panicked: %v", p),
						Stack: debug.Stack(),
					})
				}
			}()
			fn()
		}()
	}
}

func reportError(ctx context.Context, c *config, info ErrorInfo) {
	if c.onError == nil {
		logError(ctx, c.log(), info)
		return
	}
	defer func() {
		if p := recover(); p != nil {
			logPanic(ctx, c.log(), PanicInfo{
				Name:  info.Name,
				Attrs: info.Attrs,
				Value: fmt.Sprintf("safego: error handler panicked: %v", p),
				Stack: debug.Stack(),
			})
		}
	}()
	c.onError(ctx, info)
}

func reportPanic(ctx context.Context, c *config, info PanicInfo) {
	if c.onPanic == nil {
		logPanic(ctx, c.log(), info)
		return
	}
	defer func() {
		if p := recover(); p != nil {
			logPanic(ctx, c.log(), PanicInfo{
				Name:  info.Name,
				Attrs: info.Attrs,
				Value: fmt.Sprintf("safego: panic handler panicked: %v", p),
				Stack: debug.Stack(),
			})
		}
	}()
	c.onPanic(ctx, info)
}

func logError(ctx context.Context, l *slog.Logger, info ErrorInfo) {
	attrs := append([]slog.Attr{slog.String("name", info.Name), slog.Any("err", info.Err)}, info.Attrs...)
	l.LogAttrs(ctx, slog.LevelError, "safego: error", attrs...)
}

func logPanic(ctx context.Context, l *slog.Logger, info PanicInfo) {
	attrs := append([]slog.Attr{
		slog.String("name", info.Name),
		slog.Any("value", info.Value),
		slog.String("stack", string(info.Stack)),
	}, info.Attrs...)
	l.LogAttrs(ctx, slog.LevelError, "safego: panic", attrs...)
}

func cloneAttrs(attrs []slog.Attr) []slog.Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]slog.Attr, len(attrs))
	copy(out, attrs)
	return out
}

func isContextCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
