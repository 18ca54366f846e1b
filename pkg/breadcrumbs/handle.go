package breadcrumbs

import "context"

// Match is one entry of the active route path. Matches are supplied by the
// caller on every pass and never modified.
type Match[V any] struct {
	// ID identifies the match within one match list. Crumbs are presented
	// in ascending ID order.
	ID string

	// Pathname keys the crumb in the tracker state.
	Pathname string

	// Handle declares the crumb's data source. A nil Handle contributes
	// no crumb.
	Handle Handle[V]
}

// Handle is a match's declared data source.
type Handle[V any] interface {
	Resolve(match Match[V], routeContext any) Descriptor[V]
}

// HandleFunc computes a Descriptor from the match and the caller's route
// context on every pass.
type HandleFunc[V any] func(match Match[V], routeContext any) Descriptor[V]

// Resolve calls f.
func (f HandleFunc[V]) Resolve(match Match[V], routeContext any) Descriptor[V] {
	if f == nil {
		return nil
	}
	return f(match, routeContext)
}

// Descriptor is the resolved form of a handle: a Value holding realised
// data, or a *Request that fetches it. A nil Descriptor contributes no
// crumb.
type Descriptor[V any] interface {
	descriptor()
}

// Value is realised crumb data. It is usable both as a static Handle and
// as a Descriptor.
type Value[V any] struct {
	Data Data[V]
}

func (Value[V]) descriptor() {}

// Resolve returns v unchanged.
func (v Value[V]) Resolve(Match[V], any) Descriptor[V] { return v }

// Title returns a static handle whose crumb is titled t.
func Title[V any](t V) Value[V] {
	return Value[V]{Data: Raw(t)}
}

// Path returns a static handle with fully shaped crumb data.
func Path[V any](p CrumbPath[V]) Value[V] {
	return Value[V]{Data: Shaped(p)}
}

// Request describes data that must be computed or fetched. Unless
// ShouldRevalidate is set, an already stored crumb is reused instead of
// calling GetData again.
type Request[V any] struct {
	ShouldRevalidate bool
	GetData          func(ctx context.Context) Promisable[Data[V]]
}

func (*Request[V]) descriptor() {}

// Resolve returns r unchanged.
func (r *Request[V]) Resolve(Match[V], any) Descriptor[V] { return r }

// Fetch returns a Request whose data is produced asynchronously by fn.
func Fetch[V any](fn func(ctx context.Context) (Data[V], error)) *Request[V] {
	return &Request[V]{
		GetData: func(ctx context.Context) Promisable[Data[V]] {
			return Later(Go(ctx, fn))
		},
	}
}

// Compute returns a Request whose data is produced synchronously by fn.
func Compute[V any](fn func() Data[V]) *Request[V] {
	return &Request[V]{
		GetData: func(context.Context) Promisable[Data[V]] {
			return Now(fn())
		},
	}
}

// Revalidate marks the request to be recomputed on every pass.
func (r *Request[V]) Revalidate() *Request[V] {
	r.ShouldRevalidate = true
	return r
}

// ResolveHandle derives the match's Descriptor. It returns nil when the
// match has no handle.
func ResolveHandle[V any](match Match[V], routeContext any) Descriptor[V] {
	if match.Handle == nil {
		return nil
	}
	return match.Handle.Resolve(match, routeContext)
}

// ShouldRevalidate reports whether desc is a Request asking to be
// recomputed even when cached.
func ShouldRevalidate[V any](desc Descriptor[V]) bool {
	r, ok := desc.(*Request[V])
	return ok && r != nil && r.ShouldRevalidate
}

// ExtractData realises the data behind desc. Requests are asked for their
// data; a Value is already realised and returned as is.
func ExtractData[V any](ctx context.Context, desc Descriptor[V]) Promisable[Data[V]] {
	switch d := desc.(type) {
	case *Request[V]:
		if d == nil || d.GetData == nil {
			return Now(Data[V]{})
		}
		return d.GetData(ctx)
	case Value[V]:
		return Now(d.Data)
	default:
		return Now(Data[V]{})
	}
}
