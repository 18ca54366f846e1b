// Package router maps request paths to the ordered match lists consumed by
// breadcrumbs trackers.
//
// Routes are registered by pattern on a radix tree. Patterns may contain
// static segments, parameters (:id) and a trailing catch-all (*rest):
//
//	t := router.NewTable[string]()
//	t.Add("/", breadcrumbs.Title("Home"))
//	t.Add("/users", breadcrumbs.Title("Users"))
//	t.Add("/users/:id", userCrumb)
//
//	res, err := t.Match("/users/42")
//	// res.Matches: "/" (ID "0"), "/users" (ID "0-0"), "/users/42" (ID "0-0-0")
//	// res.Params:  {"id": "42"}
//
// Every registered route along the matched path contributes a match, root
// first. Match IDs encode the node position in the tree, so sorting crumbs
// by ID yields trail order.
package router
