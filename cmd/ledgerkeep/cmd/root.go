// Package cmd provides CLI commands for ledgerkeep.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ledgerkeep/ledgerkeep/pkg/userdata"
)

var (
	dataDir string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledgerkeep",
	Short: "Keep personal financial records in a local store",
	Long: `ledgerkeep keeps accounts and imported statement documents in a
local SQLite database plus a content-addressed document store on disk.

It supports:
- A hierarchical chart of accounts with rename/close lifecycle
- Importing statement documents, deduplicated by content hash
- Forward-only, idempotent schema migrations

Example:
  ledgerkeep init
  ledgerkeep account add --name checking --currency USD
  ledgerkeep statement add january.pdf --account <id> --institution Chase \
    --period-start 2026-01-01 --period-end 2026-01-31 --currency USD`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logging
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default resolved from LEDGERKEEP_DATA_DIR, XDG_DATA_HOME, HOME)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(deleteDBCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(statementCmd)
}

// newManager resolves the data directory from the --data-dir flag or the
// environment.
func newManager() (*userdata.Manager, error) {
	if dataDir != "" {
		return userdata.FromDataDir(dataDir), nil
	}
	return userdata.FromEnvironment()
}
