// Package middleware provides breadcrumbs observers for production use.
//
// This package includes:
//   - OpenTelemetry tracing of reconciliation passes
//   - Prometheus metrics for passes, crumbs and live sessions
//   - Chain, which fans events out to several observers
//
// # OpenTelemetry
//
// The OpenTelemetry observer opens a span when a pass starts and ends it
// when the pass settles. The span context is handed to data sources, so
// fetches started by a handle become children of the pass span.
//
//	tracker := breadcrumbs.New[string](
//	    breadcrumbs.WithObserver(middleware.OpenTelemetry(
//	        middleware.WithTracerName("my-app"),
//	    )),
//	)
//
// # Prometheus Metrics
//
// The Prometheus observer records:
//   - crumbs_passes_total: Passes by mode (sync, async)
//   - crumbs_pass_duration_seconds: Time from pass start to settlement by outcome
//   - crumbs_reused_total, crumbs_computed_total, crumbs_fetched_total: Crumb work per pass
//   - crumbs_evicted_total: Crumbs removed because their match went away
//   - crumbs_inflight_passes: Passes waiting for fetched data
//   - crumbs_active_sessions: Live sessions (when session hooks are used)
//
//	obs := middleware.Prometheus(middleware.WithRegistry(reg))
//	tracker := breadcrumbs.New[string](breadcrumbs.WithObserver(obs))
//
// Then expose the registry:
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package middleware
