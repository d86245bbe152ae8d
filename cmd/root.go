package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reka-labs/salesbot/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "salesbot",
	Short: "Automated lead discovery and enrichment",
	Long:  "Generates search queries from each account's ideal-customer profile, discovers candidate companies, enriches them with structured summaries, and emails new leads to account owners.",
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
