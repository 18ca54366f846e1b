package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/atomic"

	"github.com/vango-dev/breadcrumbs/internal/errors"
	"github.com/vango-dev/breadcrumbs/pkg/breadcrumbs"
	"github.com/vango-dev/breadcrumbs/pkg/middleware"
	"github.com/vango-dev/breadcrumbs/pkg/router"
)

// Server serves a route table over HTTP and WebSocket.
type Server struct {
	table  *router.Table[any]
	config *Config
	logger *slog.Logger

	// observer is attached to every tracker the server creates
	observer breadcrumbs.Observer
	registry *prometheus.Registry

	upgrader websocket.Upgrader
	handler  http.Handler

	httpServer *http.Server

	sessionIDs *atomic.Uint64
	mu         sync.Mutex
	sessions   map[string]*session
}

// New creates a Server for table.
func New(table *router.Table[any], config *Config) *Server {
	cfg := config.withDefaults()
	logger := cfg.Logger.With("component", "server")

	s := &Server{
		table:  table,
		config: cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     cfg.CheckOrigin,
		},
		sessionIDs: atomic.NewUint64(0),
		sessions:   make(map[string]*session),
	}

	var observers []breadcrumbs.Observer
	if cfg.Metrics {
		s.registry = cfg.Registry
		if s.registry == nil {
			s.registry = prometheus.NewRegistry()
		}
		observers = append(observers, middleware.Prometheus(middleware.WithRegistry(s.registry)))
	}
	if cfg.Tracing {
		observers = append(observers, middleware.OpenTelemetry())
	}
	if cfg.Observer != nil {
		observers = append(observers, cfg.Observer)
	}
	s.observer = middleware.Chain(observers...)

	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.logRequests)

	r.Get("/crumbs", s.handleCrumbs)
	r.Get("/routes", s.handleRoutes)
	r.Get(s.config.WebSocketPath, s.HandleWebSocket)
	if s.registry != nil {
		r.Method(http.MethodGet, s.config.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return r
}

// logRequests logs every request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

// trackerOptions returns the options every server tracker is built with.
func (s *Server) trackerOptions(logger *slog.Logger) []breadcrumbs.Option {
	opts := []breadcrumbs.Option{
		breadcrumbs.WithLogger(logger),
		breadcrumbs.WithObserver(s.observer),
	}
	if s.config.StrictLoading {
		opts = append(opts, breadcrumbs.WithStrictLoading())
	}
	return opts
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) register(sess *session) {
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
}

func (s *Server) unregister(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Server) nextSessionID() string {
	return "s" + strconv.FormatUint(s.sessionIDs.Inc(), 10)
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run starts the server and blocks until shutdown.
func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Set up graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return errors.New("B081").Wrap(err)
		}
		return nil

	case <-shutdown:
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every live session and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.Close()
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Config returns the server configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}
