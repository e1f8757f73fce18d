package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/choropleth/internal/join"
)

var matchCmd = &cobra.Command{
	Use:   "match [topology]",
	Short: "Report how many dataset points join to a topology",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env := newEnv(cfg)

		path := env.defaultMap()
		if len(args) == 1 {
			path = args[0]
		}

		datasets, err := env.loadDatasets(ctx)
		if err != nil {
			return err
		}
		topo, err := env.Topologies.Load(ctx, path)
		if err != nil {
			return err
		}

		idx := join.NewIndex(topo.Features)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%d regions)\n", path, idx.Len())
		for i := range datasets {
			m := idx.ComputeMatch(&datasets[i])
			fmt.Fprintf(out, "  %-20s matched %d of %d, unmatched %d\n",
				m.Dataset, m.Matched, m.Total, m.Unmatched())
		}
		for _, d := range topo.Diagnostics {
			fmt.Fprintf(out, "  warning: %s\n", d)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
}
