package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"littlebird/internal/config"
)

var (
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "littlebird",
	Short: "Keep a local copy of state legislative data in sync",
	Long: `littlebird mirrors bills, legislators and sponsorships from the
Open States API into PostgreSQL and serves them over an authenticated
HTTP API alongside per-user tracking, clients and notes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger = setupLogger(cfg.LogLevel, cfg.Log)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
}
