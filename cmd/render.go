package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/selection"
)

var (
	renderDatasets []string
	renderMap      string
	renderCountry  string
	renderOut      string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a choropleth chart as a stream of chart events",
	Long: "Loads the datasets, renders the default map, then applies the dataset " +
		"selection, topology and country drill-down given by flags. Chart events " +
		"are written as JSON lines.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("render"); err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if renderOut != "" {
			f, err := os.Create(renderOut)
			if err != nil {
				return eris.Wrapf(err, "render: create %s", renderOut)
			}
			defer f.Close() //nolint:errcheck
			w = f
		}

		env := newEnv(cfg)
		datasets, err := env.loadDatasets(ctx)
		if err != nil {
			return err
		}

		sel, renderer := env.newSelection(datasets, w)
		defer renderer.Close() //nolint:errcheck

		st, err := sel.Start(ctx)
		if err != nil {
			return eris.Wrap(err, "render: default map")
		}
		if len(renderDatasets) > 0 {
			if st, err = sel.SetDatasets(ctx, renderDatasets); err != nil {
				return eris.Wrap(err, "render: select datasets")
			}
		}
		if renderMap != "" {
			if st, err = sel.SelectTopology(ctx, renderMap); err != nil {
				return eris.Wrap(err, "render: select topology")
			}
		}
		if renderCountry != "" {
			path, err := sel.SelectCountryByKey(ctx, renderCountry)
			if err != nil {
				return eris.Wrap(err, "render: select country")
			}
			if path == "" {
				zap.L().Info("no country map, focused region", zap.String("region", renderCountry))
			}
			st = sel.State()
		}

		printState(cmd.ErrOrStderr(), st, sel.Legend())
		return nil
	},
}

func printState(w io.Writer, st selection.State, legend []selection.LegendEntry) {
	fmt.Fprintf(w, "map:   %s\n", st.ActiveTopologyPath)
	fmt.Fprintf(w, "phase: %s\n", st.Phase)
	fmt.Fprintf(w, "chart: %s\n", st.ActiveChart)
	for _, e := range legend {
		fmt.Fprintf(w, "  %-20s %-30s %s\n", e.Key, e.Name, e.Color)
	}
}

func init() {
	renderCmd.Flags().StringSliceVar(&renderDatasets, "datasets", nil, "dataset keys to select, in order")
	renderCmd.Flags().StringVar(&renderMap, "map", "", "topology path to select")
	renderCmd.Flags().StringVar(&renderCountry, "country", "", "region key to drill down into")
	renderCmd.Flags().StringVar(&renderOut, "out", "", "write chart events to file instead of stdout")
	rootCmd.AddCommand(renderCmd)
}
