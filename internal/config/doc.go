// Package config loads the crumbs server configuration.
//
// The configuration is stored in crumbs.json or crumbs.toml at the project
// root. It holds the server settings and the route table whose handles
// produce breadcrumbs.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "localhost",
//	    "port": 4000,
//	    "settleTimeout": "5s",
//	    "websocket": "/ws",
//	    "metrics": true
//	  },
//	  "log": {"level": "info", "format": "text"},
//	  "routes": [
//	    {"path": "/", "title": "Home"},
//	    {"path": "/users/:id", "title": "User {id}", "delay": "200ms"},
//	    {"path": "/users/:id/edit", "title": "Edit", "activePath": "/users/{id}"},
//	    {"path": "/docs/*page", "data": {"content": [{"title": "Docs", "url": "/docs"}, {"title": "{page}"}]}}
//	  ]
//	}
//
// The same structure in TOML:
//
//	[server]
//	port = 4000
//	settleTimeout = "5s"
//
//	[[routes]]
//	path = "/"
//	title = "Home"
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	table, err := cfg.BuildTable()
package config
