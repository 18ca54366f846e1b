package breadcrumbs

import (
	"maps"
	"slices"
	"strings"
)

// CrumbState maps a pathname to its stored crumb. A CrumbState is never
// modified after it has been published; updates build a new mapping.
type CrumbState[V any] map[string]*CrumbData[V]

// KeySet is a set of pathnames.
type KeySet map[string]struct{}

// Has reports whether key is in the set.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Sorted returns the keys in ascending order.
func (s KeySet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// WithOverrides returns a copy of state with crumbs stored under their
// pathnames. Entries not overridden keep their identity. state itself is
// returned when there is nothing to apply.
func WithOverrides[V any](state CrumbState[V], crumbs []*CrumbData[V]) CrumbState[V] {
	if len(crumbs) == 0 {
		return state
	}
	next := make(CrumbState[V], len(state)+len(crumbs))
	maps.Copy(next, state)
	for _, crumb := range crumbs {
		if crumb == nil {
			continue
		}
		next[crumb.Pathname] = crumb
	}
	return next
}

// WithoutKeys returns a copy of state without the given pathnames. state
// itself is returned when no key is present.
func WithoutKeys[V any](state CrumbState[V], keys KeySet) CrumbState[V] {
	hit := false
	for key := range keys {
		if _, ok := state[key]; ok {
			hit = true
			break
		}
	}
	if !hit {
		return state
	}
	next := make(CrumbState[V], len(state))
	for key, crumb := range state {
		if !keys.Has(key) {
			next[key] = crumb
		}
	}
	return next
}

// Sorted returns the stored crumbs ordered by ascending ID.
func Sorted[V any](state CrumbState[V]) []*CrumbData[V] {
	crumbs := slices.Collect(maps.Values(state))
	slices.SortStableFunc(crumbs, func(a, b *CrumbData[V]) int {
		if c := strings.Compare(a.ID, b.ID); c != 0 {
			return c
		}
		return strings.Compare(a.Pathname, b.Pathname)
	})
	return crumbs
}

// ResolveActivePath scans crumbs from the end and returns the first active
// path that is not unset. A null active path resolves to "". ok is false
// when no crumb sets one.
func ResolveActivePath[V any](crumbs []*CrumbData[V]) (path string, ok bool) {
	for i := len(crumbs) - 1; i >= 0; i-- {
		ap := crumbs[i].ActivePath
		if ap.IsZero() {
			continue
		}
		p, _ := ap.Get()
		return p, true
	}
	return "", false
}
