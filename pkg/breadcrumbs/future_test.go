package breadcrumbs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIsRecord(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"map", map[string]any{"a": 1}, true},
		{"empty map", map[string]any{}, true},
		{"nil map", map[string]any(nil), false},
		{"nil", nil, false},
		{"slice", []any{1}, false},
		{"string", "Home", false},
		{"typed map", map[string]string{"a": "b"}, false},
		{"struct", struct{}{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRecord(tt.v); got != tt.want {
				t.Errorf("IsRecord(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestIsAwaitable(t *testing.T) {
	if !IsAwaitable(Resolved(1)) {
		t.Error("Future should be awaitable")
	}
	if !IsAwaitable(Later(Resolved("x"))) {
		t.Error("Later should be awaitable")
	}
	if IsAwaitable(Now("x")) {
		t.Error("Now should not be awaitable")
	}
	if IsAwaitable(nil) || IsAwaitable("x") || IsAwaitable(map[string]any{}) {
		t.Error("plain values should not be awaitable")
	}
}

func TestFuture_Go(t *testing.T) {
	f := Go(context.Background(), func(context.Context) (string, error) {
		return "done", nil
	})
	v, err := f.Await(context.Background())
	if err != nil || v != "done" {
		t.Fatalf("Await() = %q, %v", v, err)
	}
	if !f.Settled() {
		t.Error("Settled() should be true after Await")
	}
}

func TestFuture_Panic(t *testing.T) {
	f := Go(context.Background(), func(context.Context) (int, error) {
		panic("boom")
	})
	_, err := f.Await(context.Background())
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected panic to reject, got %v", err)
	}
}

func TestFuture_AwaitContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	f := Go(context.Background(), func(context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := f.Await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Await() error = %v, want deadline exceeded", err)
	}
	if f.Settled() {
		t.Error("future should still be pending")
	}
}

func TestThen(t *testing.T) {
	f := Then(Resolved(2), func(v int) string { return strings.Repeat("x", v) })
	v, err := f.Await(context.Background())
	if err != nil || v != "xx" {
		t.Fatalf("Then() = %q, %v", v, err)
	}

	boom := errors.New("boom")
	called := false
	g := Then(Rejected[int](boom), func(int) string { called = true; return "" })
	if _, err := g.Await(context.Background()); !errors.Is(err, boom) {
		t.Errorf("rejection should pass through, got %v", err)
	}
	if called {
		t.Error("fn must not run for a rejected future")
	}
}

func TestAll_PreservesOrder(t *testing.T) {
	slow := make(chan struct{})
	futures := []*Future[string]{
		Go(context.Background(), func(context.Context) (string, error) {
			<-slow
			return "first", nil
		}),
		Resolved("second"),
		Go(context.Background(), func(context.Context) (string, error) {
			return "third", nil
		}),
	}

	all := All(context.Background(), futures)
	if all.Settled() {
		t.Fatal("aggregate settled before its slowest input")
	}
	close(slow)

	got, err := all.Await(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"first", "second", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("All()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestAll_Rejects(t *testing.T) {
	boom := errors.New("boom")
	block := make(chan struct{})
	defer close(block)

	all := All(context.Background(), []*Future[int]{
		Go(context.Background(), func(context.Context) (int, error) {
			<-block
			return 1, nil
		}),
		Rejected[int](boom),
	})
	if _, err := all.Await(context.Background()); !errors.Is(err, boom) {
		t.Errorf("All() error = %v, want %v", err, boom)
	}
}

func TestAll_Empty(t *testing.T) {
	got, err := All[int](context.Background(), nil).Await(context.Background())
	if err != nil || len(got) != 0 {
		t.Errorf("All(nil) = %v, %v", got, err)
	}
}

func TestPromisable(t *testing.T) {
	now := Now(3)
	if now.IsAwaitable() || now.Value() != 3 {
		t.Errorf("Now(3) = %+v", now)
	}
	if v, _ := now.Future().Await(context.Background()); v != 3 {
		t.Errorf("Now(3).Future() = %d", v)
	}

	later := Later(Resolved(4))
	if !later.IsAwaitable() || later.Value() != 0 {
		t.Errorf("Later(4) = %+v", later)
	}
}
