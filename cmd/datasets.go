package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/choropleth/internal/join"
	"github.com/sells-group/choropleth/internal/render"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Load the dataset catalog and summarize each dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		env := newEnv(cfg)
		datasets, err := env.loadDatasets(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for i := range datasets {
			ds := &datasets[i]
			r := join.ColorRange(ds)
			maxText := "-"
			if r.HasMax {
				maxText = render.FormatNumber(r.Max)
			}
			fmt.Fprintf(out, "%-20s %-30s %s  points=%d min=%s max=%s\n",
				ds.Key, ds.Name, ds.Color, len(ds.Data), render.FormatNumber(r.Min), maxText)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
}
