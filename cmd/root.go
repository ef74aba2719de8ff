package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crosscheck-health/labrecon/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "labrecon",
	Short: "Lab report reconciliation pipeline",
	Long:  "Extracts structured lab results from report documents via multiple Claude models, reconciles the extractions into a single confidence-scored record set, and normalizes names, units and dates.",
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
