package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/atomic"

	"github.com/vango-dev/breadcrumbs/internal/errors"
	"github.com/vango-dev/breadcrumbs/pkg/breadcrumbs"
	"github.com/vango-dev/breadcrumbs/pkg/middleware"
	"github.com/vango-dev/breadcrumbs/pkg/router"
)

// Frame types.
const (
	FrameNavigate = "navigate"
	FramePing     = "ping"
	FramePong     = "pong"
	FrameSnapshot = "snapshot"
	FrameError    = "error"
)

// ClientFrame is a frame sent by the client.
type ClientFrame struct {
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
}

// SnapshotFrame carries the trail after a change.
type SnapshotFrame struct {
	Type string `json:"type"`
	View
}

// ErrorFrame reports a failed navigation or fetch.
type ErrorFrame struct {
	Type  string             `json:"type"`
	Error *errors.CrumbError `json:"error"`
}

// session is one live WebSocket connection.
type session struct {
	id     string
	srv    *Server
	conn   *websocket.Conn
	logger *slog.Logger

	tracker *breadcrumbs.Tracker[any]

	// ctx is handed to data sources and canceled on close
	ctx    context.Context
	cancel context.CancelFunc

	dispatchCh chan func()
	done       chan struct{}
	exited     chan struct{}
	closeOnce  sync.Once

	writeMu sync.Mutex
	closed  bool

	// Loop-owned state
	path        string
	matches     []breadcrumbs.Match[any]
	params      router.Params
	pushed      int
	navigations atomic.Int64
}

// HandleWebSocket upgrades the request and serves a live session until
// the connection closes.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", errors.New("B060").Wrap(err))
		middleware.RecordWebSocketError("upgrade")
		return
	}

	sess := s.newSession(conn)
	s.register(sess)
	middleware.RecordSessionOpen()
	sess.logger.Info("session opened", "remote", r.RemoteAddr)

	go sess.loop()
	sess.readLoop()
}

func (s *Server) newSession(conn *websocket.Conn) *session {
	id := s.nextSessionID()
	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		id:         id,
		srv:        s,
		conn:       conn,
		logger:     s.logger.With("session", id),
		ctx:        ctx,
		cancel:     cancel,
		dispatchCh: make(chan func(), 64),
		done:       make(chan struct{}),
		exited:     make(chan struct{}),
	}

	opts := append(s.trackerOptions(sess.logger),
		breadcrumbs.WithDispatcher(sess.Dispatch),
		breadcrumbs.OnError(sess.pushError),
	)
	sess.tracker = breadcrumbs.New[any](opts...)
	sess.tracker.Subscribe(sess.pushSnapshot)
	return sess
}

// Dispatch runs fn on the session loop. Once the loop has exited fn runs
// on the caller's goroutine.
func (s *session) Dispatch(fn func()) {
	select {
	case s.dispatchCh <- fn:
	case <-s.exited:
		fn()
	}
}

// readLoop reads client frames until the connection fails.
func (s *session) readLoop() {
	defer s.Close()

	cfg := s.srv.config
	s.conn.SetReadLimit(cfg.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
				middleware.RecordWebSocketError("read")
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		middleware.RecordFrame("in")

		var frame ClientFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			s.Dispatch(func() { s.pushError(errors.New("B061").Wrap(err)) })
			continue
		}

		switch frame.Type {
		case FrameNavigate:
			path := frame.Path
			s.Dispatch(func() { s.navigate(path) })
		case FramePing:
			s.Dispatch(func() { s.write(ClientFrame{Type: FramePong}) })
		default:
			s.Dispatch(func() {
				s.pushError(errors.New("B061").WithDetailf("unknown frame type %q", frame.Type))
			})
		}
	}
}

// loop runs dispatched functions and pings the client.
func (s *session) loop() {
	defer close(s.exited)

	ticker := time.NewTicker(s.srv.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case fn := <-s.dispatchCh:
			fn()
		case <-ticker.C:
			s.ping()
		case <-s.done:
			s.drain()
			return
		}
	}
}

// drain keeps running dispatched functions until every pass of the closed
// tracker has settled or the shutdown timeout expires.
func (s *session) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), s.srv.config.ShutdownTimeout)
	defer cancel()

	idle := make(chan struct{})
	go func() {
		_ = s.tracker.Wait(ctx)
		close(idle)
	}()

	for {
		select {
		case fn := <-s.dispatchCh:
			fn()
		case <-idle:
			return
		}
	}
}

// navigate matches path and feeds the tracker. It runs on the loop.
func (s *session) navigate(path string) {
	clean, err := router.CleanPath(path)
	if err != nil {
		s.pushError(err)
		return
	}

	matches, params := s.matches, s.params
	if clean != s.path || s.navigations.Load() == 0 {
		res, err := s.srv.table.Match(clean)
		switch {
		case errors.HasCode(err, "B022"):
			s.pushError(err)
			matches, params = nil, nil
		case err != nil:
			s.pushError(err)
			return
		default:
			matches, params = res.Matches, res.Params
		}
	}

	s.path, s.matches, s.params = clean, matches, params
	s.navigations.Inc()

	before := s.pushed
	s.tracker.Update(s.ctx, matches, params)
	if s.pushed == before {
		s.pushSnapshot(s.tracker.Snapshot())
	}
}

func (s *session) pushSnapshot(snap breadcrumbs.Snapshot[any]) {
	s.pushed++
	s.write(SnapshotFrame{Type: FrameSnapshot, View: NewView(s.path, snap, nil)})
}

func (s *session) pushError(err error) {
	s.write(ErrorFrame{Type: FrameError, Error: errors.FromError(err, "B001")})
}

func (s *session) write(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("frame encode error", "error", err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return
	}
	s.conn.SetWriteDeadline(time.Now().Add(s.srv.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Error("write error", "error", err)
		middleware.RecordWebSocketError("write")
		return
	}
	middleware.RecordFrame("out")
}

func (s *session) ping() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return
	}
	deadline := time.Now().Add(s.srv.config.WriteTimeout)
	if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
		s.logger.Error("ping error", "error", err)
		middleware.RecordWebSocketError("ping")
	}
}

// Close stops the tracker and closes the connection.
func (s *session) Close() {
	s.closeOnce.Do(func() {
		s.tracker.Close()
		s.cancel()
		close(s.done)

		s.writeMu.Lock()
		s.closed = true
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.conn.Close()
		s.writeMu.Unlock()

		s.srv.unregister(s.id)
		middleware.RecordSessionClose()
		s.logger.Info("session closed", "navigations", s.navigations.Load())
	})
}
