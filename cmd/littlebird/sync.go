package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"littlebird/internal/domain"
)

var syncQuery domain.SyncQuery

var syncCmd = &cobra.Command{
	Use:   "sync [legislators|bills|sponsors|full]",
	Short: "Run one sync and print the result",
	Long: `Run a single reconcile pass against the upstream API and print the
counts as JSON.

Examples:
  littlebird sync full
  littlebird sync bills --session 2025`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"legislators", "bills", "sponsors", "full"},
	RunE: func(cmd *cobra.Command, args []string) error {
		action, err := domain.ParseSyncAction(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		result, runErr := a.sync.Run(cmd.Context(), action, syncQuery)
		if result != nil {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
		}
		return runErr
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncQuery.Jurisdiction, "jurisdiction", "", "override the configured jurisdiction")
	syncCmd.Flags().StringVar(&syncQuery.Session, "session", "", "limit bills to a legislative session")
	syncCmd.Flags().StringVar(&syncQuery.Query, "query", "", "full-text filter passed upstream")
	rootCmd.AddCommand(syncCmd)
}
