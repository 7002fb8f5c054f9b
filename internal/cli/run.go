package cli

import (
	"github.com/spf13/cobra"

	"fxwatch/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, record and alert once for the configured pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Run(cmd.Context())
	},
}

var (
	fetchBase  string
	fetchQuote string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Print the latest quote without recording or alerting",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Fetch(cmd.Context(), app.FetchOptions{Base: fetchBase, Quote: fetchQuote})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations for the postgres recorder backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Migrate(cmd.Context())
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchBase, "base", "", "Base currency code (defaults to config)")
	fetchCmd.Flags().StringVar(&fetchQuote, "quote", "", "Quote currency code (defaults to config)")
}
