package netsync

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/evan-idocoding/livetune/rt/safego"
	"github.com/evan-idocoding/livetune/rt/tuning"
)

// Handler is the server side of the control channel. Mount it on any path;
// every request is upgraded to a WebSocket and served as one session.
type Handler struct {
	r        *tuning.Registry
	cfg      config
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[*session]struct{}
	closed   bool
}

var _ http.Handler = (*Handler)(nil)

// NewHandler creates a control channel handler for r.
//
// It panics if r is nil.
func NewHandler(r *tuning.Registry, opts ...Option) *Handler {
	if r == nil {
		panic("netsync: nil Registry")
	}
	cfg := buildConfig(opts)
	return &Handler{
		r:        r,
		cfg:      cfg,
		upgrader: websocket.Upgrader{CheckOrigin: cfg.checkOrigin},
		sessions: make(map[*session]struct{}),
	}
}

// ServeHTTP upgrades the request and runs the session until the peer leaves,
// violates the protocol, or the Handler is closed.
func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		h.cfg.logger.Debug("netsync: upgrade failed", "remote", req.RemoteAddr, "err", err)
		return
	}
	conn.SetReadLimit(h.cfg.readLimit)

	s := &session{h: h, conn: conn, remote: req.RemoteAddr}
	if !h.track(s) {
		s.closeWith(websocket.CloseGoingAway, "shutting down")
		return
	}
	defer h.untrack(s)

	h.cfg.logger.Debug("netsync: session open", "remote", s.remote)
	safego.Run(req.Context(), s.run,
		safego.WithName("netsync session"),
		safego.WithLogger(h.cfg.logger),
		safego.WithFinally(func() { _ = conn.Close() }),
	)
	h.cfg.logger.Debug("netsync: session closed", "remote", s.remote)
}

// Close ends every live session with a going-away close frame. Sessions
// accepted afterwards are closed immediately.
func (h *Handler) Close() error {
	h.mu.Lock()
	h.closed = true
	live := make([]*session, 0, len(h.sessions))
	for s := range h.sessions {
		live = append(live, s)
	}
	h.mu.Unlock()

	for _, s := range live {
		s.closeWith(websocket.CloseGoingAway, "shutting down")
	}
	return nil
}

// Sessions returns the number of live sessions.
func (h *Handler) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Handler) track(s *session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.sessions[s] = struct{}{}
	return true
}

func (h *Handler) untrack(s *session) {
	h.mu.Lock()
	delete(h.sessions, s)
	h.mu.Unlock()
}

type session struct {
	h      *Handler
	conn   *websocket.Conn
	remote string
}

func (s *session) run(context.Context) {
	log := s.h.cfg.logger
	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) &&
				!errors.Is(err, net.ErrClosed) {
				log.Debug("netsync: read ended", "remote", s.remote, "err", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			log.Warn("netsync: ignoring binary frame", "remote", s.remote, "bytes", len(data))
			continue
		}

		msg, err := Decode(data)
		if err != nil {
			log.Error("netsync: bad frame", "remote", s.remote, "err", err)
			continue
		}

		switch m := msg.(type) {
		case ListAll:
			if !s.send(Tuneables{State: s.h.r.Snapshot()}) {
				return
			}
		case Delta:
			if !s.h.r.Apply(m.Category, m.Name, m.Value) {
				log.Warn("netsync: delta not applied", "remote", s.remote,
					"key", m.Category+"/"+m.Name, "kind", m.Value.Kind())
			}
			if !s.send(Ok{Category: m.Category, Name: m.Name}) {
				return
			}
		default:
			log.Error("netsync: protocol violation", "remote", s.remote, "variant", msg.tag())
			s.closeWith(websocket.CloseProtocolError, "unexpected "+msg.tag())
			return
		}
	}
}

func (s *session) send(m Message) bool {
	b, err := Encode(m)
	switch {
	case errors.Is(err, ErrSkipped):
		s.h.cfg.logger.Warn("netsync: snapshot incomplete", "remote", s.remote, "err", err)
	case err != nil:
		s.h.cfg.logger.Error("netsync: encode failed", "remote", s.remote, "err", err)
		return true
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.h.cfg.writeTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		s.h.cfg.logger.Debug("netsync: write failed", "remote", s.remote, "err", err)
		return false
	}
	return true
}

// closeWith sends a close frame and releases the connection. It is safe to
// call from any goroutine.
func (s *session) closeWith(code int, reason string) {
	deadline := time.Now().Add(s.h.cfg.writeTimeout)
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	_ = s.conn.Close()
}
