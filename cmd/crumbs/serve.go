package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/breadcrumbs/pkg/server"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port    int
		host    string
		metrics bool
		tracing bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve trails over HTTP and WebSocket",
		Long: `Start the breadcrumbs server.

Endpoints:
  GET /crumbs?path=/users/42   resolve one trail
  GET /routes                  list the route table
  GET /ws                      live session (navigate frames in, snapshots out)
  GET /metrics                 Prometheus metrics (with --metrics)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, table, logger, err := flags.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("metrics") {
				cfg.Server.Metrics = metrics
			}

			srv := server.New(table, &server.Config{
				Address:       cfg.Address(),
				SettleTimeout: cfg.Server.SettleTimeout.Std(),
				WebSocketPath: cfg.Server.WebSocket,
				Metrics:       cfg.Server.Metrics,
				MetricsPath:   cfg.Server.MetricsPath,
				Tracing:       tracing,
				StrictLoading: cfg.StrictLoading,
				Logger:        logger,
			})

			out := cmd.OutOrStdout()
			success(out, "Serving %d routes on %s", len(table.Routes()), cfg.URL())
			info(out, "Live sessions at %s", cfg.Server.WebSocket)
			if cfg.Server.Metrics {
				info(out, "Metrics at %s", cfg.Server.MetricsPath)
			}
			return srv.Run()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides config)")
	cmd.Flags().StringVar(&host, "host", "", "Host to bind to (overrides config)")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Expose Prometheus metrics")
	cmd.Flags().BoolVar(&tracing, "tracing", false, "Trace passes with the global OpenTelemetry provider")

	return cmd
}
