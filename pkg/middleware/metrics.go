package middleware

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/breadcrumbs/pkg/breadcrumbs"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "crumbs").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "crumbs",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus metrics for breadcrumbs.
type metrics struct {
	passesTotal    *prometheus.CounterVec
	passDuration   *prometheus.HistogramVec
	reusedTotal    prometheus.Counter
	computedTotal  prometheus.Counter
	fetchedTotal   prometheus.Counter
	evictedTotal   prometheus.Counter
	fetchErrors    prometheus.Counter
	inflightPasses prometheus.Gauge
	activeSessions prometheus.Gauge
	framesTotal    *prometheus.CounterVec
	wsErrors       *prometheus.CounterVec
}

// globalMetrics is the singleton metrics instance.
// Created on first call to Prometheus().
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &metrics{
		passesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passes_total",
			Help:        "Total number of reconciliation passes by mode",
			ConstLabels: config.ConstLabels,
		}, []string{"mode"}),

		passDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Time from pass start to settlement in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"outcome"}),

		reusedTotal:    counter("reused_total", "Crumbs carried over from prior state"),
		computedTotal:  counter("computed_total", "Crumbs built during a pass"),
		fetchedTotal:   counter("fetched_total", "Crumbs whose data was fetched asynchronously"),
		evictedTotal:   counter("evicted_total", "Crumbs removed because their match went away"),
		fetchErrors:    counter("fetch_errors_total", "Passes whose fetched data rejected"),
		inflightPasses: gauge("inflight_passes", "Passes waiting for fetched data"),
		activeSessions: gauge("active_sessions", "Number of live WebSocket sessions"),

		framesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_total",
			Help:        "Live session frames by direction",
			ConstLabels: config.ConstLabels,
		}, []string{"direction"}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

type promObserver struct {
	m *metrics
}

// Prometheus creates an Observer that records pass metrics. The metrics
// are registered once; later calls share them.
func Prometheus(opts ...MetricsOption) breadcrumbs.Observer {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return promObserver{m: m}
}

func (p promObserver) PassStarted(ctx context.Context, _ uint64, _ int) context.Context {
	return ctx
}

func (p promObserver) PassBuilt(_ context.Context, ev breadcrumbs.PassEvent) {
	mode := "sync"
	if ev.Async() {
		mode = "async"
		p.m.inflightPasses.Inc()
	}
	p.m.passesTotal.WithLabelValues(mode).Inc()
	p.m.reusedTotal.Add(float64(ev.Reused))
	p.m.computedTotal.Add(float64(ev.Computed))
	p.m.fetchedTotal.Add(float64(ev.Awaiting))
	p.m.evictedTotal.Add(float64(ev.Evicted))
}

func (p promObserver) PassSettled(_ context.Context, ev breadcrumbs.SettleEvent) {
	if ev.Async {
		p.m.inflightPasses.Dec()
	}
	outcome := "committed"
	switch {
	case ev.Err != nil:
		outcome = "error"
		p.m.fetchErrors.Inc()
	case ev.Superseded:
		outcome = "superseded"
	}
	p.m.passDuration.WithLabelValues(outcome).Observe(ev.Duration.Seconds())
}

// =============================================================================
// Session Recording Functions
// =============================================================================

// RecordSessionOpen records a new live session.
func RecordSessionOpen() {
	if m := current(); m != nil {
		m.activeSessions.Inc()
	}
}

// RecordSessionClose records the end of a live session.
func RecordSessionClose() {
	if m := current(); m != nil {
		m.activeSessions.Dec()
	}
}

// RecordFrame records a live session frame. direction is "in" or "out".
func RecordFrame(direction string) {
	if m := current(); m != nil {
		m.framesTotal.WithLabelValues(direction).Inc()
	}
}

// RecordWebSocketError records a WebSocket error.
func RecordWebSocketError(errorType string) {
	if m := current(); m != nil {
		m.wsErrors.WithLabelValues(errorType).Inc()
	}
}

func current() *metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	return globalMetrics
}
