package breadcrumbs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/vango-dev/breadcrumbs/internal/errors"
)

// Snapshot is the tracker output at one point in time.
type Snapshot[V any] struct {
	Crumbs     []*CrumbData[V] `json:"crumbs"`
	Loading    bool            `json:"loading"`
	ActivePath *string         `json:"activePath,omitempty"`
}

// Tracker owns the crumb state of one routed view and reconciles it with
// the active match list on every pass.
//
// State is replaced as a whole on every change, so a Snapshot taken at any
// time never observes a partial update. Each pass takes a generation
// number; an asynchronous result is only committed when no newer pass has
// started since.
type Tracker[V any] struct {
	opts options

	// generation is the number of the latest pass.
	generation *atomic.Uint64

	mu       sync.Mutex
	state    CrumbState[V]
	loading  bool
	err      error
	closed   bool
	mounted  bool
	last     []Match[V]
	inflight int
	idle     chan struct{}
	subs     map[uint64]func(Snapshot[V])
	nextSub  uint64
}

// New creates an empty Tracker.
func New[V any](opts ...Option) *Tracker[V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Tracker[V]{
		opts:       o,
		generation: atomic.NewUint64(0),
		state:      CrumbState[V]{},
		subs:       make(map[uint64]func(Snapshot[V])),
	}
}

// Update runs a pass only when matches is not the same list as the one
// seen last time (same backing array and length). It reports whether a
// pass ran. The first call always runs.
func (t *Tracker[V]) Update(ctx context.Context, matches []Match[V], routeContext any) bool {
	t.mu.Lock()
	same := t.mounted && sameMatches(t.last, matches)
	t.mu.Unlock()
	if same {
		return false
	}
	t.Recompute(ctx, matches, routeContext)
	return true
}

func sameMatches[V any](a, b []Match[V]) bool {
	if len(a) != len(b) || (a == nil) != (b == nil) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

// Recompute runs a pass for matches. Crumbs that can be built synchronously
// are committed before Recompute returns, as are evictions. Fetched crumbs
// are committed when all of them have settled.
func (t *Tracker[V]) Recompute(ctx context.Context, matches []Match[V], routeContext any) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.mounted = true
	t.last = matches
	prior := t.state
	pass := t.generation.Inc()
	t.mu.Unlock()

	start := time.Now()
	obs := t.opts.observer
	ctx = obs.PassStarted(ctx, pass, len(matches))

	delta := BuildDelta(ctx, matches, prior, routeContext)
	evicted := 0
	for key := range delta.InvalidKeys {
		if _, ok := prior[key]; ok {
			evicted++
		}
	}
	obs.PassBuilt(ctx, PassEvent{
		Pass:       pass,
		Matches:    len(matches),
		Considered: delta.Considered,
		Reused:     delta.Reused,
		Computed:   delta.Computed,
		Awaiting:   delta.Awaiting,
		Evicted:    evicted,
		Pending:    delta.HasPending,
	})
	t.opts.logger.Debug("breadcrumbs pass",
		"pass", pass,
		"matches", len(matches),
		"considered", delta.Considered,
		"reused", delta.Reused,
		"computed", delta.Computed,
		"awaiting", delta.Awaiting,
		"evicted", delta.InvalidKeys.Sorted(),
	)

	if !delta.Data.IsAwaitable() {
		crumbs := delta.Data.Value()
		t.apply(func() {
			t.state = WithOverrides(t.state, crumbs)
			t.state = WithoutKeys(t.state, delta.InvalidKeys)
			if t.opts.strictLoading {
				t.loading = false
			}
		})
		obs.PassSettled(ctx, SettleEvent{Pass: pass, Crumbs: len(crumbs), Duration: time.Since(start)})
		return
	}

	t.mu.Lock()
	if t.inflight == 0 {
		t.idle = make(chan struct{})
	}
	t.inflight++
	t.mu.Unlock()

	t.apply(func() {
		t.loading = delta.HasPending
		t.state = WithoutKeys(t.state, delta.InvalidKeys)
	})

	go t.settle(ctx, pass, start, delta.Data.Future())
}

// settle waits for the aggregate of a pass and hands the commit to the
// dispatcher.
func (t *Tracker[V]) settle(ctx context.Context, pass uint64, start time.Time, f *Future[[]*CrumbData[V]]) {
	crumbs, err := f.Await(context.WithoutCancel(ctx))

	t.opts.dispatch(func() {
		var superseded bool
		t.apply(func() {
			superseded = t.closed || pass != t.generation.Load()
			if err == nil && !superseded {
				t.state = WithOverrides(t.state, crumbs)
			}
			if !t.opts.strictLoading || !superseded {
				t.loading = false
			}
			if err != nil {
				t.err = errors.FromError(err, "B001").WithDetailf("pass %d", pass)
			}
		})

		switch {
		case err != nil:
			t.opts.logger.Warn("breadcrumbs fetch failed", "pass", pass, "error", err)
			if t.opts.onError != nil {
				t.opts.onError(t.Err())
			}
		case superseded:
			t.opts.logger.Debug("breadcrumbs pass superseded", "pass", pass, "latest", t.generation.Load())
		}
		t.opts.observer.PassSettled(ctx, SettleEvent{
			Pass:       pass,
			Crumbs:     len(crumbs),
			Duration:   time.Since(start),
			Err:        err,
			Superseded: superseded,
			Async:      true,
		})

		t.mu.Lock()
		t.inflight--
		if t.inflight == 0 {
			close(t.idle)
		}
		t.mu.Unlock()
	})
}

// apply runs fn under the state lock and notifies subscribers when the
// visible output changed.
func (t *Tracker[V]) apply(fn func()) {
	t.mu.Lock()
	prevState, prevLoading := t.state, t.loading
	fn()
	changed := !sameState(prevState, t.state) || prevLoading != t.loading
	var snap Snapshot[V]
	var subs []func(Snapshot[V])
	if changed && len(t.subs) > 0 {
		snap = t.snapshotLocked()
		subs = make([]func(Snapshot[V]), 0, len(t.subs))
		for _, fn := range t.subs {
			subs = append(subs, fn)
		}
	}
	t.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// sameState reports whether a and b are the same published mapping.
func sameState[V any](a, b CrumbState[V]) bool {
	if len(a) != len(b) {
		return false
	}
	for key, crumb := range a {
		if b[key] != crumb {
			return false
		}
	}
	return true
}

func (t *Tracker[V]) snapshotLocked() Snapshot[V] {
	crumbs := Sorted(t.state)
	snap := Snapshot[V]{Crumbs: crumbs, Loading: t.loading}
	if path, ok := ResolveActivePath(crumbs); ok {
		snap.ActivePath = &path
	}
	return snap
}

// Snapshot returns the current crumbs, loading flag and active path.
func (t *Tracker[V]) Snapshot() Snapshot[V] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Crumbs returns the stored crumbs ordered by ID.
func (t *Tracker[V]) Crumbs() []*CrumbData[V] {
	t.mu.Lock()
	state := t.state
	t.mu.Unlock()
	return Sorted(state)
}

// State returns the current published mapping. Callers must not modify it.
func (t *Tracker[V]) State() CrumbState[V] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Loading reports whether a pass is waiting for fetched crumbs.
func (t *Tracker[V]) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

// ActivePath returns the path surfaced by the last crumb that sets one.
func (t *Tracker[V]) ActivePath() (string, bool) {
	return ResolveActivePath(t.Crumbs())
}

// Err returns the error of the last rejected fetch, if any.
func (t *Tracker[V]) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Subscribe registers fn to be called with a fresh Snapshot after every
// visible change. The returned function unsubscribes.
func (t *Tracker[V]) Subscribe(fn func(Snapshot[V])) (unsubscribe func()) {
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
		})
	}
}

// Wait blocks until every started pass has settled or ctx is done.
func (t *Tracker[V]) Wait(ctx context.Context) error {
	t.mu.Lock()
	if t.inflight == 0 {
		t.mu.Unlock()
		return nil
	}
	idle := t.idle
	t.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the tracker. Passes still in flight settle without touching
// state and later calls to Recompute are ignored.
func (t *Tracker[V]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	t.generation.Inc()
	t.subs = make(map[uint64]func(Snapshot[V]))
	t.opts.logger.Debug("breadcrumbs tracker closed", slog.Uint64("generation", t.generation.Load()))
}
