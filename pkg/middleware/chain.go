package middleware

import (
	"context"

	"github.com/vango-dev/breadcrumbs/pkg/breadcrumbs"
)

type chain []breadcrumbs.Observer

// Chain returns an Observer that forwards every event to obs in order.
// The context returned by one observer's PassStarted is passed to the
// next. Nil observers are skipped.
func Chain(obs ...breadcrumbs.Observer) breadcrumbs.Observer {
	c := make(chain, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			c = append(c, o)
		}
	}
	return c
}

func (c chain) PassStarted(ctx context.Context, pass uint64, matches int) context.Context {
	for _, o := range c {
		ctx = o.PassStarted(ctx, pass, matches)
	}
	return ctx
}

func (c chain) PassBuilt(ctx context.Context, ev breadcrumbs.PassEvent) {
	for _, o := range c {
		o.PassBuilt(ctx, ev)
	}
}

func (c chain) PassSettled(ctx context.Context, ev breadcrumbs.SettleEvent) {
	for _, o := range c {
		o.PassSettled(ctx, ev)
	}
}
