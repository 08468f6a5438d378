package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// initCmd represents the init command.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the data directory and database",
	Long: `Initialize the ledgerkeep data directory: create the directory
layout, the statements store, and a fully migrated SQLite database.

Running init on an already initialized directory is a no-op; pending
schema migrations are applied either way.

Example:
  ledgerkeep init`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	manager, err := newManager()
	if err != nil {
		return err
	}

	slog.Debug("Initializing data directory", "path", manager.DataDir())
	if err := manager.Init(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Printf("initialized database at %s\n", manager.DBPath())
	return nil
}

// deleteDBCmd represents the delete-db command.
var deleteDBCmd = &cobra.Command{
	Use:   "delete-db",
	Short: "Delete the database file",
	Long: `Delete the SQLite database file. Stored statement documents are
left in place. A missing database is not an error.

Example:
  ledgerkeep delete-db`,
	RunE: runDeleteDB,
}

func runDeleteDB(cmd *cobra.Command, args []string) error {
	manager, err := newManager()
	if err != nil {
		return err
	}

	deleted, err := manager.DeleteDB()
	if err != nil {
		return err
	}

	if deleted {
		fmt.Printf("deleted database at %s\n", manager.DBPath())
	} else {
		fmt.Printf("database not found at %s\n", manager.DBPath())
	}
	return nil
}
