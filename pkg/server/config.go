package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/breadcrumbs/pkg/breadcrumbs"
)

// Config configures the Server.
type Config struct {
	// Address is the listen address (default ":4000").
	Address string

	// SettleTimeout bounds how long GET /crumbs waits for fetches.
	SettleTimeout time.Duration

	// WebSocketPath is the live session endpoint (default "/ws").
	WebSocketPath string

	// Metrics enables the Prometheus observer and endpoint.
	Metrics bool

	// MetricsPath is the metrics endpoint (default "/metrics").
	MetricsPath string

	// Registry receives the metrics. Default: a new registry.
	Registry *prometheus.Registry

	// Tracing enables the OpenTelemetry observer.
	Tracing bool

	// Observer is added to every tracker.
	Observer breadcrumbs.Observer

	// StrictLoading makes the loading flag follow only the latest pass.
	StrictLoading bool

	// ReadBufferSize and WriteBufferSize size the WebSocket buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates the Origin of WebSocket requests.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// MaxMessageSize limits the size of client frames.
	MaxMessageSize int64

	// PingInterval is how often live sessions are pinged.
	PingInterval time.Duration

	// ReadTimeout closes a live session that sends nothing, not even a
	// pong, for this long.
	ReadTimeout time.Duration

	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// Logger is the server logger. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Address:         ":4000",
		SettleTimeout:   5 * time.Second,
		WebSocketPath:   "/ws",
		MetricsPath:     "/metrics",
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     SameOriginCheck,
		MaxMessageSize:  16 * 1024,
		PingInterval:    30 * time.Second,
		ReadTimeout:     90 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// withDefaults returns a copy of c with unset fields filled in.
func (c *Config) withDefaults() *Config {
	defaults := DefaultConfig()
	if c == nil {
		return defaults
	}
	cfg := *c
	if cfg.Address == "" {
		cfg.Address = defaults.Address
	}
	if cfg.SettleTimeout == 0 {
		cfg.SettleTimeout = defaults.SettleTimeout
	}
	if cfg.WebSocketPath == "" {
		cfg.WebSocketPath = defaults.WebSocketPath
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = defaults.MetricsPath
	}
	if cfg.ReadBufferSize == 0 {
		cfg.ReadBufferSize = defaults.ReadBufferSize
	}
	if cfg.WriteBufferSize == 0 {
		cfg.WriteBufferSize = defaults.WriteBufferSize
	}
	if cfg.CheckOrigin == nil {
		cfg.CheckOrigin = defaults.CheckOrigin
	}
	if cfg.MaxMessageSize == 0 {
		cfg.MaxMessageSize = defaults.MaxMessageSize
	}
	if cfg.PingInterval == 0 {
		cfg.PingInterval = defaults.PingInterval
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &cfg
}

// SameOriginCheck validates that the WebSocket request origin matches the
// host. Requests without an Origin header are accepted.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := r.Host
	if host == "" {
		return false
	}

	return originURL.Host == host
}
