package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/tablescout/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tablescout",
	Short: "Geo-anchored dining candidate search and ranking",
	Long:  "Turns a structured dining-preference query into a bounded, reproducibly ordered list of venues via expanding-radius search, constraint evaluation, and weighted ranking.",
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
