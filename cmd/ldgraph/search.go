package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd(flags *globalFlags) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Full-text search over indexed resource types",
		Long: `Search resources of the types listed in search.index_config.

By default results carry the configured @context and comma-joined values.
Use --raw for the id/type projection with multi-valued fields as lists.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			engine, err := a.openEngine(cmd)
			if err != nil {
				return err
			}
			defer engine.Close()

			query := strings.Join(args, " ")
			var results []map[string]any
			if raw {
				results, err = engine.Search(cmd.Context(), query)
			} else {
				results, err = engine.Resources(cmd.Context(), query)
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the id/type projection")
	return cmd
}
