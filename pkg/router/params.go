package router

import "slices"

// Params holds the values captured by :param and *catchall segments. It is
// the route context handed to handles.
type Params map[string]string

// Get returns the value for key, or "" when it was not captured.
func (p Params) Get(key string) string {
	return p[key]
}

// Lookup returns the value for key and whether it was captured.
func (p Params) Lookup(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

// Keys returns the captured parameter names in ascending order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
