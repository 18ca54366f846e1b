package router

import (
	"strconv"
	"strings"

	"github.com/vango-dev/breadcrumbs/pkg/breadcrumbs"
)

// RouteNode is a node in the radix tree.
type RouteNode[V any] struct {
	// segment is the path segment this node matches
	segment string

	// id is the node's position in the tree ("0", "0-1", ...)
	id string

	// isParam indicates this is a parameter segment (:id)
	isParam bool

	// isCatchAll indicates this is a catch-all segment (*slug)
	isCatchAll bool

	// paramName is the parameter name (without : or *)
	paramName string

	// pattern is the registered pattern, empty for interior nodes
	pattern string

	registered bool
	handle     breadcrumbs.Handle[V]

	// nextChild numbers children in creation order
	nextChild int

	// children are static segment children
	children []*RouteNode[V]

	// paramChild is the dynamic parameter child (:id)
	paramChild *RouteNode[V]

	// catchAllChild is the catch-all child (*slug)
	catchAllChild *RouteNode[V]
}

func newRouteNode[V any](segment, id string) *RouteNode[V] {
	return &RouteNode[V]{segment: segment, id: id}
}

func (n *RouteNode[V]) childID() string {
	id := n.id + "-" + strconv.Itoa(n.nextChild)
	n.nextChild++
	return id
}

// findChild finds a child node with an exact segment match.
func (n *RouteNode[V]) findChild(segment string) *RouteNode[V] {
	for _, child := range n.children {
		if child.segment == segment {
			return child
		}
	}
	return nil
}

// addChild adds or retrieves a child node for the given segment.
func (n *RouteNode[V]) addChild(segment string) *RouteNode[V] {
	if child := n.findChild(segment); child != nil {
		return child
	}
	child := newRouteNode[V](segment, n.childID())
	n.children = append(n.children, child)
	return child
}

// addParamChild returns the parameter child, creating it if needed. ok is
// false when a parameter with a different name occupies the position.
func (n *RouteNode[V]) addParamChild(name string) (child *RouteNode[V], ok bool) {
	if n.paramChild != nil {
		return n.paramChild, n.paramChild.paramName == name
	}
	child = newRouteNode[V](":"+name, n.childID())
	child.isParam = true
	child.paramName = name
	n.paramChild = child
	return child, true
}

// addCatchAllChild returns the catch-all child, creating it if needed.
func (n *RouteNode[V]) addCatchAllChild(name string) (child *RouteNode[V], ok bool) {
	if n.catchAllChild != nil {
		return n.catchAllChild, n.catchAllChild.paramName == name
	}
	child = newRouteNode[V]("*"+name, n.childID())
	child.isCatchAll = true
	child.paramName = name
	n.catchAllChild = child
	return child, true
}

// insertRoute returns the node for segments, creating interior nodes as
// needed. conflict is the first segment whose parameter name clashes with
// an existing one.
func (n *RouteNode[V]) insertRoute(segments []string) (node *RouteNode[V], conflict string) {
	current := n
	for _, seg := range segments {
		var ok bool
		switch {
		case strings.HasPrefix(seg, "*"):
			current, ok = current.addCatchAllChild(seg[1:])
		case strings.HasPrefix(seg, ":"):
			current, ok = current.addParamChild(seg[1:])
		default:
			current, ok = current.addChild(seg), true
		}
		if !ok {
			return nil, seg
		}
	}
	return current, ""
}

// match walks segments and returns the nodes visited, root first. Only a
// walk that ends on a registered node matches.
func (n *RouteNode[V]) match(segments []string, params Params, chain []*RouteNode[V]) ([]*RouteNode[V], bool) {
	chain = append(chain, n)

	if len(segments) == 0 {
		return chain, n.registered
	}

	segment := segments[0]
	remaining := segments[1:]

	// Try exact match first
	if child := n.findChild(segment); child != nil {
		if c, ok := child.match(remaining, params, chain); ok {
			return c, true
		}
	}

	// Try parameter match
	if n.paramChild != nil {
		params[n.paramChild.paramName] = segment
		if c, ok := n.paramChild.match(remaining, params, chain); ok {
			return c, true
		}
		// Backtrack on failure
		delete(params, n.paramChild.paramName)
	}

	// Catch-all consumes the rest of the path
	if n.catchAllChild != nil && n.catchAllChild.registered {
		params[n.catchAllChild.paramName] = strings.Join(segments, "/")
		return append(chain, n.catchAllChild), true
	}

	return nil, false
}

// walk visits registered nodes depth first: static children in creation
// order, then the parameter child, then the catch-all.
func (n *RouteNode[V]) walk(fn func(*RouteNode[V])) {
	if n.registered {
		fn(n)
	}
	for _, child := range n.children {
		child.walk(fn)
	}
	if n.paramChild != nil {
		n.paramChild.walk(fn)
	}
	if n.catchAllChild != nil {
		n.catchAllChild.walk(fn)
	}
}

// splitPath splits a path into segments.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
