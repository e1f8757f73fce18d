package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "choropleth",
	Short: "Serve and render choropleth maps of regional datasets",
	Long:  "Loads regional datasets, joins them to map topologies by region key, and serves or renders interactive choropleth charts with country drill-down.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
