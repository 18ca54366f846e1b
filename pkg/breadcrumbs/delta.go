package breadcrumbs

import "context"

// Delta is the outcome of comparing a match list against prior state.
type Delta[V any] struct {
	// Data holds the crumbs computed this pass. It is awaitable as a
	// whole when any of them had to be fetched asynchronously.
	Data Promisable[[]*CrumbData[V]]

	// HasPending is set when some crumb is new or recomputed rather than
	// reused as is.
	HasPending bool

	// InvalidKeys are prior pathnames not carried over by this pass.
	InvalidKeys KeySet

	Considered int // matches that resolved a descriptor
	Reused     int // prior crumbs kept or revalidated
	Computed   int // crumbs queued in Data
	Awaiting   int // queued crumbs that are asynchronous
}

// BuildDelta decides, for each match in order, whether its crumb can be
// reused from prior, must be computed, or is gone. ctx is handed to data
// sources; routeContext is passed through to handles.
func BuildDelta[V any](ctx context.Context, matches []Match[V], prior CrumbState[V], routeContext any) Delta[V] {
	invalid := make(KeySet, len(prior))
	for key := range prior {
		invalid[key] = struct{}{}
	}
	oldCount := len(invalid)

	d := Delta[V]{InvalidKeys: invalid}
	queue := make([]Promisable[*CrumbData[V]], 0, len(matches))

	for _, match := range matches {
		desc := ResolveHandle(match, routeContext)
		if isAbsent(desc) {
			continue
		}
		d.Considered++

		revalidate := ShouldRevalidate(desc)
		existed := invalid.Has(match.Pathname)
		if revalidate || existed {
			delete(invalid, match.Pathname)
		}
		if !revalidate && existed {
			continue
		}

		data := ExtractData(ctx, desc)
		if data.IsAwaitable() {
			d.Awaiting++
			queue = append(queue, Later(Then(data.Future(), func(v Data[V]) *CrumbData[V] {
				return BuildCrumb(match, v)
			})))
		} else {
			queue = append(queue, Now(BuildCrumb(match, data.Value())))
		}
	}

	d.Reused = oldCount - len(invalid)
	d.Computed = len(queue)
	d.HasPending = d.Considered > d.Reused

	if d.Awaiting == 0 {
		crumbs := make([]*CrumbData[V], len(queue))
		for i, p := range queue {
			crumbs[i] = p.Value()
		}
		d.Data = Now(crumbs)
		return d
	}

	futures := make([]*Future[*CrumbData[V]], len(queue))
	for i, p := range queue {
		futures[i] = p.Future()
	}
	d.Data = Later(All(ctx, futures))
	return d
}

func isAbsent[V any](desc Descriptor[V]) bool {
	if desc == nil {
		return true
	}
	r, ok := desc.(*Request[V])
	return ok && r == nil
}
