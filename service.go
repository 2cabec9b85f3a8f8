package livetune

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evan-idocoding/livetune/filesync"
	"github.com/evan-idocoding/livetune/httpx"
	"github.com/evan-idocoding/livetune/netsync"
	"github.com/evan-idocoding/livetune/ops"
	"github.com/evan-idocoding/livetune/rt/tuning"
	"github.com/evan-idocoding/livetune/webui"
)

var (
	// ErrAlreadyStarted indicates Start/Run was called more than once.
	ErrAlreadyStarted = errors.New("livetune: service already started")
	// ErrNotStarted indicates Wait was called before Start.
	ErrNotStarted = errors.New("livetune: service not started")
	// ErrReusePortUnsupported is returned by Start when ServiceSpec.ReusePort
	// is set on a platform without SO_REUSEPORT.
	ErrReusePortUnsupported = errors.New("livetune: SO_REUSEPORT not supported on this platform")
)

// DefaultBasePort is the asset server port used when ServiceSpec.BasePort is
// zero. The control channel listens on DefaultBasePort+1.
const DefaultBasePort = 4450

// Service hosts a Registry: the asset server (browser UI plus the optional
// admin subtree), the control channel and the optional file watcher.
type Service struct {
	// Assembly outputs.
	Registry      *tuning.Registry
	HTTPServer    *http.Server
	ControlServer *http.Server
	Control       *netsync.Handler

	// --- internals ---

	logger          *slog.Logger
	hooks           ServiceHooks
	signals         SignalSpec
	shutdownTimeout time.Duration
	reusePort       bool

	file     string
	fileOpts []filesync.Option

	servers []managedServer

	mu        sync.Mutex
	started   bool
	startCtx  context.Context
	startStop context.CancelFunc
	stopping  bool
	watcher   *filesync.Watcher

	// listeners holds the bound listener of every server that got past
	// Listen. Shutdown only touches those.
	listeners map[*http.Server]net.Listener

	primaryErr error

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
	shutdownErr  error

	doneCh  chan struct{}
	waitErr error
}

type managedServer struct {
	name string
	srv  *http.Server
}

// ServiceSpec configures NewService.
type ServiceSpec struct {
	// Registry is the registry to host. nil => a new Registry using Logger.
	Registry *tuning.Registry

	// Logger is used by every component the Service assembles.
	// nil => slog.Default().
	Logger *slog.Logger

	// BasePort picks both default addresses: the asset server on
	// ":BasePort" and the control channel on "127.0.0.1:BasePort+1".
	// <= 0 means DefaultBasePort.
	BasePort int

	// HTTPAddr overrides the asset server address.
	HTTPAddr string

	// ControlAddr overrides the control channel address.
	ControlAddr string

	// ReusePort binds both servers with SO_REUSEPORT, so a new process can
	// start on the same addresses while the old one drains. Start fails with
	// ErrReusePortUnsupported where the platform lacks it.
	ReusePort bool

	// File is a TOML file applied on Start and watched for changes.
	// Empty => no file channel.
	File        string
	FileOptions []filesync.Option

	// ControlOptions configure the control channel handler. The Service
	// logger is applied first, so a WithLogger here wins.
	ControlOptions []netsync.Option

	// Admin mounts the admin subtree on the asset server under AdminPrefix.
	// nil => no admin.
	Admin *AdminSpec

	// AdminPrefix is the admin mount point. Empty => "/-/".
	AdminPrefix string

	// Signals controls whether Run() listens for OS signals and triggers shutdown.
	//
	// If Disable is false and Signals is nil/empty, a small default set is used:
	//   - Unix: SIGINT + SIGTERM
	//   - Non-Unix: os.Interrupt
	Signals SignalSpec

	// ShutdownTimeout bounds the whole shutdown. <= 0 means 30s.
	ShutdownTimeout time.Duration

	Hooks ServiceHooks
}

type SignalSpec struct {
	// Disable disables signal handling in Run().
	Disable bool

	// Signals declares which signals Run() listens to. nil/empty means using defaults.
	Signals []os.Signal
}

type ServiceHooks struct {
	// OnStart runs before the service starts serving requests.
	// Hooks are executed sequentially. Any error fails Start/Run.
	OnStart []func(context.Context) error

	// OnShutdown runs during shutdown, after servers and the file watcher
	// are closed. Hooks are executed sequentially; errors are aggregated.
	OnShutdown []func(context.Context) error

	// OnServeError is called when a server exits unexpectedly. The service
	// shuts down right after.
	OnServeError func(name string, err error)
}

const defaultShutdownTimeout = 30 * time.Second

// NewService assembles a runnable Service.
//
// Assembly errors are fail-fast and will panic.
// Runtime errors are returned from Start/Wait/Run/Shutdown.
func NewService(spec ServiceSpec) *Service {
	logger := spec.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := spec.Registry
	if reg == nil {
		reg = tuning.New(tuning.WithLogger(logger))
	}

	base := spec.BasePort
	if base <= 0 {
		base = DefaultBasePort
	}
	if base >= 65535 {
		panic("livetune: NewService: BasePort out of range: " + strconv.Itoa(base))
	}
	httpAddr := strings.TrimSpace(spec.HTTPAddr)
	if httpAddr == "" {
		httpAddr = ":" + strconv.Itoa(base)
	}
	controlAddr := strings.TrimSpace(spec.ControlAddr)
	if controlAddr == "" {
		controlAddr = net.JoinHostPort("127.0.0.1", strconv.Itoa(base+1))
	}

	s := &Service{
		Registry:        reg,
		logger:          logger,
		hooks:           spec.Hooks,
		signals:         spec.Signals,
		shutdownTimeout: resolveDuration(spec.ShutdownTimeout, defaultShutdownTimeout),
		reusePort:       spec.ReusePort,
		file:            spec.File,
		fileOpts:        append([]filesync.Option{filesync.WithLogger(logger)}, spec.FileOptions...),
		listeners:       make(map[*http.Server]net.Listener),
		shutdownCh:      make(chan struct{}),
		doneCh:          make(chan struct{}),
	}

	controlOpts := append([]netsync.Option{netsync.WithLogger(logger)}, spec.ControlOptions...)
	s.Control = netsync.NewHandler(reg, controlOpts...)

	var assets http.Handler = webui.Handler()
	if spec.Admin != nil {
		adminSpec := *spec.Admin
		adminSpec.ReadyChecks = append(s.readyChecks(), adminSpec.ReadyChecks...)
		prefix := spec.AdminPrefix
		if prefix == "" {
			prefix = "/-/"
		}
		assets = mountPrefix(prefix, NewAdmin(reg, adminSpec), assets)
	}
	assets = httpx.Chain(httpx.Recover(logger), httpx.AccessLog(logger)).Handler(assets)

	s.HTTPServer = newHTTPServerWithDefaults(httpAddr, assets)
	s.ControlServer = newHTTPServerWithDefaults(controlAddr, httpx.Wrap(s.Control, httpx.Recover(logger)))
	s.servers = []managedServer{
		{name: "http", srv: s.HTTPServer},
		{name: "control", srv: s.ControlServer},
	}
	return s
}

// readyChecks are the built-in /readyz checks: both servers bound and, when
// configured, the file watcher open.
func (s *Service) readyChecks() []ops.ReadyCheck {
	checks := []ops.ReadyCheck{{
		Name: "listeners",
		Func: func(context.Context) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.stopping {
				return errors.New("shutting down")
			}
			if len(s.listeners) != len(s.servers) {
				return errors.New("not listening")
			}
			return nil
		},
	}}
	if s.file != "" {
		checks = append(checks, ops.ReadyCheck{
			Name: "filesync",
			Func: func(context.Context) error {
				s.mu.Lock()
				defer s.mu.Unlock()
				if s.watcher == nil {
					return errors.New("file watcher not open")
				}
				return nil
			},
		})
	}
	return checks
}

// HTTPAddr returns the bound asset server address, or "" before Start.
func (s *Service) HTTPAddr() string { return s.boundAddr(s.HTTPServer) }

// ControlAddr returns the bound control channel address, or "" before Start.
func (s *Service) ControlAddr() string { return s.boundAddr(s.ControlServer) }

func (s *Service) boundAddr(srv *http.Server) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ln, ok := s.listeners[srv]
	if !ok {
		return ""
	}
	return ln.Addr().String()
}

// Run starts the service and blocks until ctx is done, a signal arrives or a
// server fails. It returns the same error as Wait.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.Start(ctx); err != nil {
		return err
	}

	sigCh, stopSignals := s.runSignalWatcher()
	defer stopSignals()

	select {
	case <-s.doneCh:
		return s.Wait()
	case <-ctx.Done():
		s.recordPrimary(ctx.Err())
		_ = s.Shutdown(context.Background())
		return s.Wait()
	case sig := <-sigCh:
		s.logger.Info("livetune: signal received, shutting down", "signal", sig.String())
		_ = s.Shutdown(context.Background())
		return s.Wait()
	}
}

// Start runs OnStart hooks, applies and starts watching File, then binds both
// servers. It does not block.
//
// On failure the service shuts down what it already started; Wait returns
// the failure.
func (s *Service) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.startCtx, s.startStop = context.WithCancel(ctx)
	s.mu.Unlock()

	// 1) OnStart hooks.
	for i, h := range s.hooks.OnStart {
		if h == nil {
			continue
		}
		if err := safeCallHook(s.startCtx, h); err != nil {
			err = fmt.Errorf("livetune: OnStart[%d]: %w", i, err)
			s.recordPrimary(err)
			s.initiateShutdown()
			return err
		}
	}

	// 2) file channel
	if s.file != "" {
		w, err := filesync.Open(s.Registry, s.file, s.fileOpts...)
		if err != nil {
			err = fmt.Errorf("livetune: file %q: %w", s.file, err)
			s.recordPrimary(err)
			s.initiateShutdown()
			return err
		}
		s.mu.Lock()
		s.watcher = w
		s.mu.Unlock()
	}

	// 3) servers
	for _, ms := range s.servers {
		if err := s.startOneServer(ms); err != nil {
			s.recordPrimary(err)
			s.initiateShutdown()
			return err
		}
	}
	s.logger.Info("livetune: serving", "http", s.HTTPAddr(), "control", s.ControlAddr())
	return nil
}

// Wait blocks until the service is fully shut down and returns the first
// runtime failure joined with any shutdown errors.
func (s *Service) Wait() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	ch := s.doneCh
	s.mu.Unlock()

	<-ch

	s.mu.Lock()
	err := s.waitErr
	s.mu.Unlock()
	return err
}

// Shutdown stops the service and waits for it, bounded by ctx. Calling it
// before Start is a no-op; calling it again returns the same result.
func (s *Service) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	shutdownCh := s.shutdownCh
	s.mu.Unlock()

	s.initiateShutdown()

	select {
	case <-shutdownCh:
		s.mu.Lock()
		err := s.shutdownErr
		s.mu.Unlock()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) startOneServer(ms managedServer) error {
	lc, err := listenConfig(s.reusePort)
	if err != nil {
		return err
	}
	ln, err := lc.Listen(s.startCtx, "tcp", ms.srv.Addr)
	if err != nil {
		return fmt.Errorf("livetune: server %q listen %q: %w", ms.name, ms.srv.Addr, err)
	}

	// Record the listener before Serve so a racing shutdown can still close it.
	s.mu.Lock()
	s.listeners[ms.srv] = ln
	s.mu.Unlock()

	go func() {
		err := ms.srv.Serve(ln)
		s.onServeExit(ms, err)
	}()
	return nil
}

func (s *Service) onServeExit(ms managedServer, err error) {
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return
	}
	s.mu.Lock()
	stopping := s.stopping
	s.mu.Unlock()
	if stopping {
		return
	}
	s.logger.Error("livetune: server exited", "server", ms.name, "err", err)
	s.recordPrimary(fmt.Errorf("livetune: server %q: %w", ms.name, err))
	if s.hooks.OnServeError != nil {
		s.hooks.OnServeError(ms.name, err)
	}
	s.initiateShutdown()
}

func (s *Service) recordPrimary(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	if s.primaryErr == nil {
		s.primaryErr = err
	}
	s.mu.Unlock()
}

func (s *Service) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		go s.doShutdown()
	})
}

func (s *Service) doShutdown() {
	s.mu.Lock()
	stop := s.startStop
	s.stopping = true
	listeners := make(map[*http.Server]net.Listener, len(s.listeners))
	for srv, ln := range s.listeners {
		listeners[srv] = ln
	}
	watcher := s.watcher
	s.mu.Unlock()
	if stop != nil {
		stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	var (
		mu   sync.Mutex
		errs []error
	)
	addErr := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	// 1) control sessions: http.Server.Shutdown does not track hijacked
	// connections, so close them first.
	if err := s.Control.Close(); err != nil {
		addErr(fmt.Errorf("control sessions close: %w", err))
	}

	// 2) servers in parallel.
	var g errgroup.Group
	for _, ms := range s.servers {
		ms := ms // per-iteration copy for the goroutine below (go 1.21 loop semantics)
		ln, ok := listeners[ms.srv]
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := ms.srv.Shutdown(ctx); err != nil {
				_ = ms.srv.Close()
				addErr(fmt.Errorf("server %q shutdown: %w", ms.name, err))
			}
			_ = ln.Close()
			return nil
		})
	}
	_ = g.Wait()

	// 3) file watcher
	if watcher != nil {
		if err := watcher.Close(); err != nil {
			addErr(fmt.Errorf("file watcher close: %w", err))
		}
	}

	// 4) OnShutdown hooks (sequential; best-effort run all)
	for i, h := range s.hooks.OnShutdown {
		if h == nil {
			continue
		}
		if err := safeCallHook(ctx, h); err != nil {
			addErr(fmt.Errorf("OnShutdown[%d]: %w", i, err))
		}
	}

	shutdownErr := errors.Join(errs...)

	s.mu.Lock()
	s.shutdownErr = shutdownErr
	s.waitErr = errors.Join(s.primaryErr, shutdownErr)
	s.mu.Unlock()

	s.logger.Info("livetune: stopped")
	close(s.shutdownCh)
	close(s.doneCh)
}

func (s *Service) runSignalWatcher() (<-chan os.Signal, func()) {
	if s.signals.Disable {
		return nil, func() {}
	}
	sigs := s.signals.Signals
	if len(sigs) == 0 {
		sigs = defaultSignals()
	}
	if len(sigs) == 0 {
		return nil, func() {}
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	return ch, func() { signal.Stop(ch) }
}

// --- helpers ---

func resolveDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func safeCallHook(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn(ctx)
}
