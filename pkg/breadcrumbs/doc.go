// Package breadcrumbs incrementally computes the breadcrumb trail of a tree
// of routed views.
//
// Every route match on the active path may declare a Handle. A handle is a
// static value, or a function of the match and the caller's route context
// that returns a Descriptor: either realised data, or a Request that
// computes or fetches it.
//
// A Tracker keeps the crumbs of one view keyed by pathname. On every pass
// it reuses crumbs it already knows, recomputes crumbs whose request asks
// for revalidation, fetches crumbs it has never seen, and evicts crumbs
// whose match is gone. Fetched crumbs are committed together once all of
// them have settled; until then the tracker reports Loading.
//
// Basic Usage:
//
//	tracker := breadcrumbs.New[string]()
//
//	tracker.Update(ctx, []breadcrumbs.Match[string]{
//	    {ID: "0", Pathname: "/", Handle: breadcrumbs.Title("Home")},
//	    {ID: "0-1", Pathname: "/users/42", Handle: breadcrumbs.Fetch(
//	        func(ctx context.Context) (breadcrumbs.Data[string], error) {
//	            u, err := users.Find(ctx, 42)
//	            if err != nil {
//	                return breadcrumbs.Data[string]{}, err
//	            }
//	            return breadcrumbs.Raw(u.Name), nil
//	        })},
//	}, nil)
//
//	snap := tracker.Snapshot()
//	breadcrumbs.ForEachFlatCrumb(snap.Crumbs, func(c breadcrumbs.CrumbContent[string], last bool, key string) {
//	    // render c
//	})
package breadcrumbs
