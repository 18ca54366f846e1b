package breadcrumbs

import (
	"context"
	"log/slog"
	"time"
)

// Dispatcher runs fn on the host's update loop. It must eventually run
// every fn it is given.
type Dispatcher func(fn func())

// PassEvent describes a pass after its delta has been built.
type PassEvent struct {
	Pass       uint64
	Matches    int
	Considered int
	Reused     int
	Computed   int
	Awaiting   int
	Evicted    int
	Pending    bool
}

// Async reports whether the pass has to wait for fetched data.
func (e PassEvent) Async() bool { return e.Awaiting > 0 }

// SettleEvent describes the end of a pass. Async is set when the pass
// waited for fetched data.
type SettleEvent struct {
	Pass       uint64
	Crumbs     int
	Duration   time.Duration
	Err        error
	Superseded bool
	Async      bool
}

// Observer receives pass lifecycle events. PassStarted may return a
// derived context; it is the context handed to data sources.
type Observer interface {
	PassStarted(ctx context.Context, pass uint64, matches int) context.Context
	PassBuilt(ctx context.Context, ev PassEvent)
	PassSettled(ctx context.Context, ev SettleEvent)
}

type nopObserver struct{}

func (nopObserver) PassStarted(ctx context.Context, _ uint64, _ int) context.Context { return ctx }
func (nopObserver) PassBuilt(context.Context, PassEvent)                            {}
func (nopObserver) PassSettled(context.Context, SettleEvent)                        {}

type options struct {
	logger        *slog.Logger
	dispatch      Dispatcher
	observer      Observer
	onError       func(error)
	strictLoading bool
}

func defaultOptions() options {
	return options{
		logger:   slog.Default(),
		dispatch: func(fn func()) { fn() },
		observer: nopObserver{},
	}
}

// Option configures a Tracker.
type Option func(*options)

// WithLogger sets the logger used for pass diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDispatcher routes asynchronous commits through the host's loop.
// By default commits run on the goroutine that observed the settlement.
func WithDispatcher(d Dispatcher) Option {
	return func(o *options) {
		if d != nil {
			o.dispatch = d
		}
	}
}

// WithObserver attaches an Observer for metrics or tracing.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// OnError registers a callback for rejected data fetches. The tracker does
// not retry; a new pass is the only way to fetch again.
func OnError(fn func(error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// WithStrictLoading makes the loading flag follow only the latest pass.
// Without it, a superseded pass clears loading when it settles even if a
// newer pass is still waiting, and synchronous passes leave the flag as is.
func WithStrictLoading() Option {
	return func(o *options) {
		o.strictLoading = true
	}
}
