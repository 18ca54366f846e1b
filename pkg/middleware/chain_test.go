package middleware

import (
	"context"
	"testing"

	"github.com/vango-dev/breadcrumbs/pkg/breadcrumbs"
)

type ctxKey string

type tagObserver struct {
	tag    string
	events *[]string
}

func (o tagObserver) PassStarted(ctx context.Context, _ uint64, _ int) context.Context {
	prev, _ := ctx.Value(ctxKey("tags")).(string)
	*o.events = append(*o.events, o.tag+":started")
	return context.WithValue(ctx, ctxKey("tags"), prev+o.tag)
}

func (o tagObserver) PassBuilt(ctx context.Context, _ breadcrumbs.PassEvent) {
	tags, _ := ctx.Value(ctxKey("tags")).(string)
	*o.events = append(*o.events, o.tag+":built:"+tags)
}

func (o tagObserver) PassSettled(context.Context, breadcrumbs.SettleEvent) {
	*o.events = append(*o.events, o.tag+":settled")
}

func TestChain(t *testing.T) {
	var events []string
	obs := Chain(tagObserver{"a", &events}, nil, tagObserver{"b", &events})

	tr := breadcrumbs.New[string](breadcrumbs.WithObserver(obs))
	tr.Recompute(context.Background(), []breadcrumbs.Match[string]{
		{ID: "0", Pathname: "/", Handle: breadcrumbs.Title("Home")},
	}, nil)

	want := []string{
		"a:started", "b:started",
		"a:built:ab", "b:built:ab",
		"a:settled", "b:settled",
	}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}
