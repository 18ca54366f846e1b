// Package server exposes a route table of breadcrumbs handles over HTTP.
//
// Two surfaces are provided:
//
//   - GET /crumbs?path=/users/42 resolves one trail. The request waits for
//     fetched crumbs up to the configured settle timeout and returns the
//     current crumbs, the loading flag, the active path and a flattened
//     trail.
//   - GET /ws upgrades to a live session. The client sends navigate frames
//     and receives a snapshot frame every time the trail changes.
//
// # Live Sessions
//
// Each session owns one tracker and one loop goroutine. Navigation,
// asynchronous commits and all writes to the connection run on the loop,
// so the tracker never commits concurrently with a navigation:
//
//	-> {"type":"navigate","path":"/users/42"}
//	<- {"type":"snapshot","path":"/users/42","crumbs":[...],"loading":true}
//	<- {"type":"snapshot","path":"/users/42","crumbs":[...],"loading":false}
//
// Navigating to the path already shown does not start a pass.
//
// # Example Usage
//
//	table := router.NewTable[any]()
//	table.MustAdd("/", breadcrumbs.Title[any]("Home"))
//
//	srv := server.New(table, &server.Config{Address: ":4000"})
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
