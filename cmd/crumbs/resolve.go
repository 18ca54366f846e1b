package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/breadcrumbs/internal/errors"
	"github.com/vango-dev/breadcrumbs/pkg/breadcrumbs"
	"github.com/vango-dev/breadcrumbs/pkg/server"
)

func resolveCmd(flags *globalFlags) *cobra.Command {
	var (
		timeout time.Duration
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Print the trail of a path",
		Long: `Match a path against the route table, run one pass and print the
flattened trail. The last unit is marked with '>'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, table, logger, err := flags.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("timeout") {
				timeout = cfg.Server.SettleTimeout.Std()
			}

			res, err := table.Match(args[0])
			if err != nil {
				return err
			}

			opts := []breadcrumbs.Option{breadcrumbs.WithLogger(logger)}
			if cfg.StrictLoading {
				opts = append(opts, breadcrumbs.WithStrictLoading())
			}
			tracker := breadcrumbs.New[any](opts...)
			defer tracker.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			tracker.Recompute(ctx, res.Matches, res.Params)
			if err := tracker.Wait(ctx); err != nil {
				logger.Warn("trail not settled", "error", errors.New("B062").WithDetail("path "+res.Path))
			}

			view := server.NewView(res.Path, tracker.Snapshot(), tracker.Err())
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(view); err != nil {
					return err
				}
			} else {
				printTrail(out, view)
			}
			if view.Error != nil {
				return view.Error
			}
			return nil
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "How long to wait for fetched crumbs (default: server.settleTimeout)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the trail as JSON")

	return cmd
}

// printTrail writes one line per content unit.
func printTrail(w io.Writer, view server.View) {
	fmt.Fprintln(w, view.Path)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, item := range view.Trail {
		marker := " "
		if item.Last {
			marker = ">"
		}
		fmt.Fprintf(tw, "%s %v\t%s\n", marker, item.Title, item.URL)
	}
	tw.Flush()

	if len(view.Trail) == 0 {
		fmt.Fprintln(w, "  (no crumbs)")
	}
	if view.ActivePath != nil {
		fmt.Fprintf(w, "active path: %s\n", *view.ActivePath)
	}
	if view.Loading {
		fmt.Fprintln(w, "loading: fetched crumbs did not settle")
	}
}
