package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/choropleth/internal/model"
	"github.com/sells-group/choropleth/internal/topology"
)

var countriesProbe bool

var countriesCmd = &cobra.Command{
	Use:   "countries [topology]",
	Short: "List the drill-down regions of a topology",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env := newEnv(cfg)

		path := env.defaultMap()
		if len(args) == 1 {
			path = args[0]
		}

		topo, err := env.Topologies.Load(ctx, path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, r := range topology.Regions(topo) {
			line := fmt.Sprintf("%-12s %-36s %-4s %-4s", r.Key, r.Label(), r.ISOA2, r.ISOA3)
			if countriesProbe {
				p, err := drillDownPath(cmd, env, r)
				if err != nil {
					return err
				}
				line += " " + p
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

// drillDownPath returns the country map the region drills down into, or "-".
func drillDownPath(cmd *cobra.Command, env *appEnv, r model.Region) (string, error) {
	p, err := env.Collection.Probe(cmd.Context(), env.Fetcher, r)
	if err != nil {
		return "", err
	}
	if p == "" {
		return "-", nil
	}
	return p, nil
}

func init() {
	countriesCmd.Flags().BoolVar(&countriesProbe, "probe", false, "show the country map each region drills down into")
	rootCmd.AddCommand(countriesCmd)
}
