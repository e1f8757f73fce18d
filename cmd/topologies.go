package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var topologiesCmd = &cobra.Command{
	Use:   "topologies",
	Short: "List the maps offered in the topology picker",
	RunE: func(cmd *cobra.Command, args []string) error {
		env := newEnv(cfg)
		paths, err := env.Topologies.List(cmd.Context(), cfg.Map.TopoList)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, p := range paths {
			fmt.Fprintf(out, "%-40s %s\n", env.Collection.Label(p), p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(topologiesCmd)
}
