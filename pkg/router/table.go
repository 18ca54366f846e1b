package router

import (
	"net/url"
	"strings"
	"sync"

	"github.com/vango-dev/breadcrumbs/internal/errors"
	"github.com/vango-dev/breadcrumbs/pkg/breadcrumbs"
)

// Route describes one registered pattern.
type Route struct {
	Pattern string `json:"pattern"`
	ID      string `json:"id"`
}

// Result is the outcome of matching a path.
type Result[V any] struct {
	// Path is the cleaned request path.
	Path string

	// Matches lists every registered route on the path, root first.
	Matches []breadcrumbs.Match[V]

	// Params holds the captured parameter values.
	Params Params
}

// Table is a route table. It is safe for concurrent use; routes are
// usually added once at startup.
type Table[V any] struct {
	mu   sync.RWMutex
	root *RouteNode[V]
}

// NewTable creates an empty route table.
func NewTable[V any]() *Table[V] {
	return &Table[V]{root: newRouteNode[V]("", "0")}
}

// Add registers handle under pattern. A nil handle registers a route that
// matches but contributes no crumb.
func (t *Table[V]) Add(pattern string, handle breadcrumbs.Handle[V]) error {
	segments, err := parsePattern(pattern)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	node, conflict := t.root.insertRoute(segments)
	if node == nil {
		return errors.New("B023").WithDetailf("segment %q in %q conflicts with an existing parameter", conflict, pattern)
	}
	if node.registered {
		return errors.New("B021").WithDetailf("pattern %q is already registered as %q", pattern, node.pattern)
	}
	node.registered = true
	node.pattern = pattern
	node.handle = handle
	return nil
}

// MustAdd is like Add but panics on error.
func (t *Table[V]) MustAdd(pattern string, handle breadcrumbs.Handle[V]) {
	if err := t.Add(pattern, handle); err != nil {
		panic(err)
	}
}

// Match returns the matches for path. The path is cleaned first; see
// CleanPath. It fails with B022 when no route matches.
func (t *Table[V]) Match(path string) (Result[V], error) {
	clean, err := CleanPath(path)
	if err != nil {
		return Result[V]{}, err
	}
	segments := splitPath(clean)
	params := make(Params)

	t.mu.RLock()
	chain, ok := t.root.match(segments, params, nil)
	var matches []breadcrumbs.Match[V]
	if ok {
		matches = make([]breadcrumbs.Match[V], 0, len(chain))
		for depth, node := range chain {
			if !node.registered {
				continue
			}
			pathname := clean
			if !node.isCatchAll {
				pathname = "/" + strings.Join(segments[:depth], "/")
			}
			matches = append(matches, breadcrumbs.Match[V]{
				ID:       node.id,
				Pathname: pathname,
				Handle:   node.handle,
			})
		}
	}
	t.mu.RUnlock()

	if !ok {
		return Result[V]{}, errors.New("B022").WithDetailf("no route for %q", clean)
	}

	for k, v := range params {
		decoded, err := url.PathUnescape(v)
		if err != nil {
			return Result[V]{}, invalidPath(path, "invalid percent escape")
		}
		params[k] = decoded
	}

	return Result[V]{Path: clean, Matches: matches, Params: params}, nil
}

// Routes lists the registered patterns in tree order.
func (t *Table[V]) Routes() []Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var routes []Route
	t.root.walk(func(n *RouteNode[V]) {
		routes = append(routes, Route{Pattern: n.pattern, ID: n.id})
	})
	return routes
}

// parsePattern validates pattern and splits it into segments.
func parsePattern(pattern string) ([]string, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, badPattern(pattern, "must start with '/'")
	}
	segments := splitPath(pattern)
	for i, seg := range segments {
		switch {
		case seg == "":
			return nil, badPattern(pattern, "empty segment")
		case seg == ":" || seg == "*":
			return nil, badPattern(pattern, "parameter without a name")
		case strings.HasPrefix(seg, "*") && i != len(segments)-1:
			return nil, badPattern(pattern, "catch-all must be the last segment")
		case strings.ContainsAny(seg, "?#"):
			return nil, badPattern(pattern, "query or fragment in pattern")
		}
	}
	return segments, nil
}

func badPattern(pattern, reason string) error {
	return errors.New("B020").WithDetailf("%s: %q", reason, pattern)
}
