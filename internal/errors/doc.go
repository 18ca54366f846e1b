// Package errors provides coded, actionable errors for the breadcrumbs
// module.
//
// Every error carries a code (e.g. "B001") that maps to a registered
// template:
//   - a category (runtime, routing, config, transport, cli)
//   - a short message describing the error
//   - a longer explanation
//
// # Usage
//
//	err := errors.New("B021").
//	    WithDetail(`pattern "/users/:id" registered twice`).
//	    WithSuggestion("Remove the duplicate route from crumbs.json")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR B021: Duplicate route
//	//
//	//   pattern "/users/:id" registered twice
//	//
//	//   Hint: Remove the duplicate route from crumbs.json
package errors
