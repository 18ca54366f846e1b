package breadcrumbs

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// CrumbContent is one renderable breadcrumb unit.
type CrumbContent[V any] struct {
	URL   string `json:"url,omitempty"`
	Title V      `json:"title"`
}

// Content is the content of a crumb: absent, a single unit, or an ordered
// list of units. A list lets one route contribute several trailing crumbs.
type Content[V any] struct {
	units []CrumbContent[V]
	list  bool
}

// Single returns content made of exactly one unit.
func Single[V any](unit CrumbContent[V]) Content[V] {
	return Content[V]{units: []CrumbContent[V]{unit}}
}

// List returns list content. An empty list is still present content.
func List[V any](units ...CrumbContent[V]) Content[V] {
	cp := make([]CrumbContent[V], len(units))
	copy(cp, units)
	return Content[V]{units: cp, list: true}
}

// IsZero reports whether the content is absent.
func (c Content[V]) IsZero() bool {
	return !c.list && len(c.units) == 0
}

// IsList reports whether the content was given as a list.
func (c Content[V]) IsList() bool {
	return c.list
}

// Units returns the content units in order.
func (c Content[V]) Units() []CrumbContent[V] {
	return c.units
}

// Last returns the final unit, if any.
func (c Content[V]) Last() (CrumbContent[V], bool) {
	if len(c.units) == 0 {
		var zero CrumbContent[V]
		return zero, false
	}
	return c.units[len(c.units)-1], true
}

// MarshalJSON encodes single content as an object and list content as an
// array.
func (c Content[V]) MarshalJSON() ([]byte, error) {
	switch {
	case c.list:
		if c.units == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(c.units)
	case len(c.units) == 0:
		return []byte("null"), nil
	default:
		return json.Marshal(c.units[0])
	}
}

// UnmarshalJSON accepts an object, an array of objects, or null.
func (c *Content[V]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = Content[V]{}
		return nil
	case len(data) > 0 && data[0] == '[':
		var units []CrumbContent[V]
		if err := json.Unmarshal(data, &units); err != nil {
			return err
		}
		*c = List(units...)
		return nil
	default:
		var unit CrumbContent[V]
		if err := json.Unmarshal(data, &unit); err != nil {
			return err
		}
		*c = Single(unit)
		return nil
	}
}

type activeState uint8

const (
	activeUnset activeState = iota
	activeNull
	activeSet
)

// ActivePath is the auxiliary "current location" a crumb may surface. The
// zero value is unset and does not influence the resolved active path; a
// null ActivePath explicitly clears it.
type ActivePath struct {
	path  string
	state activeState
}

// ActivePathTo returns an ActivePath set to path.
func ActivePathTo(path string) ActivePath {
	return ActivePath{path: path, state: activeSet}
}

// NullActivePath returns an ActivePath that explicitly has no value.
func NullActivePath() ActivePath {
	return ActivePath{state: activeNull}
}

// IsZero reports whether the ActivePath is unset.
func (a ActivePath) IsZero() bool { return a.state == activeUnset }

// IsNull reports whether the ActivePath was explicitly cleared.
func (a ActivePath) IsNull() bool { return a.state == activeNull }

// Get returns the path and whether one is set. A null ActivePath returns
// ("", false).
func (a ActivePath) Get() (string, bool) {
	return a.path, a.state == activeSet
}

func (a ActivePath) MarshalJSON() ([]byte, error) {
	if a.state != activeSet {
		return []byte("null"), nil
	}
	return json.Marshal(a.path)
}

func (a *ActivePath) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = NullActivePath()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*a = ActivePathTo(s)
	return nil
}

// CrumbPath is what a data source returns to fully control how its crumb is
// shaped. A non-empty Pathname overrides the match's pathname.
type CrumbPath[V any] struct {
	Pathname   string     `json:"pathname,omitempty"`
	ActivePath ActivePath `json:"activePath,omitzero"`
	Content    Content[V] `json:"content,omitzero"`
}

// CrumbData is the stored unit of crumb state.
type CrumbData[V any] struct {
	ID         string     `json:"id"`
	Pathname   string     `json:"pathname"`
	ActivePath ActivePath `json:"activePath,omitzero"`
	Content    Content[V] `json:"content,omitzero"`
}

// Data is what a handle yields: either a raw title value or a shaped
// CrumbPath.
type Data[V any] struct {
	raw  V
	path *CrumbPath[V]
}

// Raw wraps a plain title value.
func Raw[V any](v V) Data[V] {
	return Data[V]{raw: v}
}

// Shaped wraps a CrumbPath.
func Shaped[V any](p CrumbPath[V]) Data[V] {
	return Data[V]{path: &p}
}

// Path returns the CrumbPath when the data is shaped.
func (d Data[V]) Path() (CrumbPath[V], bool) {
	if d.path == nil {
		var zero CrumbPath[V]
		return zero, false
	}
	return *d.path, true
}

// Raw returns the raw title value. It is the zero value for shaped data.
func (d Data[V]) Raw() V {
	return d.raw
}

// DataOf classifies an untagged value. A value is shaped exactly when it is
// a record with a "content" key; anything else becomes a raw title.
func DataOf(v any) Data[any] {
	m, ok := v.(map[string]any)
	if !ok || !IsRecord(v) {
		return Raw(v)
	}
	content, ok := m["content"]
	if !ok {
		return Raw(v)
	}

	var p CrumbPath[any]
	if s, ok := m["pathname"].(string); ok {
		p.Pathname = s
	}
	if ap, ok := m["activePath"]; ok {
		switch x := ap.(type) {
		case nil:
			p.ActivePath = NullActivePath()
		case string:
			p.ActivePath = ActivePathTo(x)
		}
	}
	switch x := content.(type) {
	case nil:
	case []any:
		units := make([]CrumbContent[any], 0, len(x))
		for _, item := range x {
			units = append(units, unitOf(item))
		}
		p.Content = List(units...)
	default:
		p.Content = Single(unitOf(x))
	}
	return Shaped(p)
}

func unitOf(v any) CrumbContent[any] {
	m, ok := v.(map[string]any)
	if !ok {
		return CrumbContent[any]{Title: v}
	}
	unit := CrumbContent[any]{Title: m["title"]}
	if url, ok := m["url"].(string); ok {
		unit.URL = url
	}
	return unit
}

// BuildCrumb turns resolved data into the crumb stored for match. Shaped
// data controls the crumb entirely; raw data becomes a single unit titled
// with the value and linking to the match's pathname.
func BuildCrumb[V any](match Match[V], data Data[V]) *CrumbData[V] {
	crumb := &CrumbData[V]{ID: match.ID, Pathname: match.Pathname}
	if p, ok := data.Path(); ok {
		if p.Pathname != "" {
			crumb.Pathname = p.Pathname
		}
		crumb.ActivePath = p.ActivePath
		crumb.Content = p.Content
		return crumb
	}
	crumb.Content = Single(CrumbContent[V]{Title: data.Raw(), URL: match.Pathname})
	return crumb
}

// LastCrumbTitle returns the title of the final unit of the final crumb.
// ok is false when crumbs is empty or the final crumb has no content units.
func LastCrumbTitle[V any](crumbs []*CrumbData[V]) (title V, ok bool) {
	if len(crumbs) == 0 || crumbs[len(crumbs)-1] == nil {
		return title, false
	}
	unit, ok := crumbs[len(crumbs)-1].Content.Last()
	if !ok {
		return title, false
	}
	return unit.Title, true
}

// ForEachFlatCrumb calls fn for every content unit in crumbs, flattening
// list content. isLast is true only for the final unit of the final crumb.
// key is a stable identifier for the unit: the crumb's pathname for single
// content and "pathname-index" for list content.
func ForEachFlatCrumb[V any](crumbs []*CrumbData[V], fn func(unit CrumbContent[V], isLast bool, key string)) {
	for i, crumb := range crumbs {
		if crumb == nil || crumb.Content.IsZero() {
			continue
		}
		lastCrumb := i >= len(crumbs)-1
		if !crumb.Content.IsList() {
			fn(crumb.Content.units[0], lastCrumb, crumb.Pathname)
			continue
		}
		units := crumb.Content.units
		for j, unit := range units {
			fn(unit, lastCrumb && j >= len(units)-1, crumb.Pathname+"-"+strconv.Itoa(j))
		}
	}
}
