package filesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/fsnotify/fsnotify"

	"github.com/evan-idocoding/livetune/rt/safego"
	"github.com/evan-idocoding/livetune/rt/tuning"
)

// ErrJoinTimeout is returned by Close when the worker did not exit within the
// join timeout.
var ErrJoinTimeout = errors.New("filesync: worker join timed out")

// Watcher re-applies a file to a Registry whenever it changes.
//
// It must be closed with Close.
type Watcher struct {
	r    *tuning.Registry
	path string
	cfg  config

	fsw *fsnotify.Watcher

	done   chan struct{}
	exited chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// Open applies path to r synchronously and starts watching it.
//
// Read and parse errors of the initial load are returned and no watcher is
// started. Errors on later reloads are logged and leave r untouched.
func Open(r *tuning.Registry, path string, opts ...Option) (*Watcher, error) {
	if r == nil {
		panic("filesync: nil Registry")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("filesync: %w", err)
	}
	cfg := buildConfig(opts)

	doc, err := ReadFile(abs)
	if err != nil {
		return nil, err
	}
	applyDocument(r, doc, cfg.logger)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("filesync: watch: %w", err)
	}
	// Watch the directory: editors that save by rename replace the inode.
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("filesync: watch: %w", err)
	}

	w := &Watcher{
		r:      r,
		path:   abs,
		cfg:    cfg,
		fsw:    fsw,
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	safego.GoErr(context.Background(), w.run,
		safego.WithName("filesync"),
		safego.WithLogger(cfg.logger),
		safego.WithAttrs(slog.String("path", abs)),
		safego.WithFinally(func() { close(w.exited) }),
	)
	cfg.logger.Debug("filesync: watching", "path", abs, "period", cfg.period)
	return w, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string { return w.path }

// Close stops the worker and waits for it, up to the join timeout. The
// underlying fsnotify watcher is released exactly once.
//
// Close is idempotent; later calls return the first call's result.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		t := time.NewTimer(w.cfg.joinTimeout)
		defer t.Stop()
		select {
		case <-w.exited:
			w.cfg.logger.Debug("filesync: stopped", "path", w.path)
		case <-t.C:
			w.closeErr = fmt.Errorf("%w after %s", ErrJoinTimeout, w.cfg.joinTimeout)
		}
		if err := w.fsw.Close(); err != nil {
			w.closeErr = errors.Join(w.closeErr, fmt.Errorf("filesync: close: %w", err))
		}
	})
	return w.closeErr
}

func (w *Watcher) run(context.Context) error {
	pending := queue.New()
	var debounce *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			pending.Add(ev)
			if fire == nil {
				debounce = time.NewTimer(w.cfg.period)
				fire = debounce.C
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.cfg.logger.Error("filesync: watch error", "path", w.path, "err", err)
		case <-fire:
			fire = nil
			b := drain(pending)
			w.cfg.logger.Debug("filesync: change", "path", w.path, "events", b.events, "ops", b.ops.String())
			if b.gone {
				w.cfg.logger.Warn("filesync: file removed; keeping current values", "path", w.path)
				continue
			}
			w.reload()
		}
	}
}

// burst summarizes the events queued during one debounce period.
type burst struct {
	events int
	ops    fsnotify.Op
	// gone is set when the file was removed or renamed away and not
	// recreated later in the same burst.
	gone bool
}

// drain empties q, folding its events in arrival order.
func drain(q *queue.Queue) burst {
	var b burst
	for q.Length() > 0 {
		ev := q.Remove().(fsnotify.Event)
		b.events++
		b.ops |= ev.Op
		switch {
		case ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create):
			b.gone = false
		case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
			b.gone = true
		}
	}
	return b
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
		ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

func (w *Watcher) reload() {
	doc, err := ReadFile(w.path)
	if err != nil {
		w.cfg.logger.Error("filesync: reload failed", "path", w.path, "err", err)
		return
	}
	res := applyDocument(w.r, doc, w.cfg.logger)
	w.cfg.logger.Debug("filesync: applied", "path", w.path,
		"applied", len(res.Applied), "rejected", len(res.Rejected))
}
