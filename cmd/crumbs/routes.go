package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func routesCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the route table",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, table, _, err := flags.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			routes := table.Routes()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(routes)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPATTERN")
			for _, r := range routes {
				fmt.Fprintf(tw, "%s\t%s\n", r.ID, r.Pattern)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print routes as JSON")

	return cmd
}
