package breadcrumbs

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Awaitable is a value that settles at some later point, either with a
// result or with an error.
type Awaitable[T any] interface {
	Await(ctx context.Context) (T, error)
}

// settler is the non-generic view of an Awaitable used by IsAwaitable.
type settler interface {
	Done() <-chan struct{}
}

// Future is a goroutine-backed Awaitable. A Future settles exactly once;
// every Await after that returns the same result.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go starts fn on its own goroutine and returns a Future for its result.
// A panic inside fn rejects the Future instead of crashing the process.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("breadcrumbs: data source panicked: %v", r)
			}
		}()
		f.value, f.err = fn(ctx)
	}()
	return f
}

// Resolved returns a Future already settled with v.
func Resolved[T any](v T) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), value: v}
	close(f.done)
	return f
}

// Rejected returns a Future already settled with err.
func Rejected[T any](err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}

// Done is closed once the Future has settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the Future has a result yet.
func (f *Future[T]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the Future settles or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then maps the fulfilled value of f through fn. Rejections pass through
// untouched.
func Then[T, U any](f *Future[T], fn func(T) U) *Future[U] {
	out := &Future[U]{done: make(chan struct{})}
	go func() {
		defer close(out.done)
		<-f.done
		if f.err != nil {
			out.err = f.err
			return
		}
		out.value = fn(f.value)
	}()
	return out
}

// All waits for every Future concurrently and fulfills with their values in
// input order. The first rejection rejects the aggregate.
func All[T any](ctx context.Context, futures []*Future[T]) *Future[[]T] {
	return Go(ctx, func(ctx context.Context) ([]T, error) {
		out := make([]T, len(futures))
		g, gctx := errgroup.WithContext(ctx)
		for i, f := range futures {
			g.Go(func() error {
				v, err := f.Await(gctx)
				if err != nil {
					return err
				}
				out[i] = v
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// Promisable holds a value that is either available now or produced later
// by a Future.
type Promisable[T any] struct {
	value  T
	future *Future[T]
}

// Now wraps a value that is already available.
func Now[T any](v T) Promisable[T] {
	return Promisable[T]{value: v}
}

// Later wraps a value that a Future will produce.
func Later[T any](f *Future[T]) Promisable[T] {
	return Promisable[T]{future: f}
}

// IsAwaitable reports whether the value is still to be produced.
func (p Promisable[T]) IsAwaitable() bool {
	return p.future != nil
}

// Value returns the synchronous value. It is the zero value when the
// Promisable is awaitable.
func (p Promisable[T]) Value() T {
	return p.value
}

// Future returns the underlying Future, or a resolved one for synchronous
// values.
func (p Promisable[T]) Future() *Future[T] {
	if p.future != nil {
		return p.future
	}
	return Resolved(p.value)
}
