package cmd

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ledgerkeep/ledgerkeep/pkg/db"
)

var (
	accountName     string
	accountCurrency string
	accountParent   string
	accountNote     string
	accountID       string
)

// accountCmd groups the account subcommands.
var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage the chart of accounts",
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all accounts",
	RunE:  runAccountList,
}

var accountAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account",
	Long: `Create an account. The id is generated unless --id is given;
--parent nests the account under an existing one.

Example:
  ledgerkeep account add --name checking --currency USD
  ledgerkeep account add --name groceries --currency USD --parent <id>`,
	RunE: runAccountAdd,
}

var accountRenameCmd = &cobra.Command{
	Use:   "rename <id> <new-name>",
	Short: "Rename an account",
	Args:  cobra.ExactArgs(2),
	RunE:  runAccountRename,
}

var accountCloseCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close an account",
	Long:  `Mark an account closed. Closing is one-way; the row is kept.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountClose,
}

func init() {
	accountAddCmd.Flags().StringVar(&accountName, "name", "", "Account name (required)")
	accountAddCmd.Flags().StringVar(&accountCurrency, "currency", "", "Account currency, e.g. USD (required)")
	accountAddCmd.Flags().StringVar(&accountParent, "parent", "", "Parent account id")
	accountAddCmd.Flags().StringVar(&accountNote, "note", "", "Free-text note")
	accountAddCmd.Flags().StringVar(&accountID, "id", "", "Account id (generated if omitted)")

	accountAddCmd.MarkFlagRequired("name")
	accountAddCmd.MarkFlagRequired("currency")

	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountAddCmd)
	accountCmd.AddCommand(accountRenameCmd)
	accountCmd.AddCommand(accountCloseCmd)
}

func runAccountList(cmd *cobra.Command, args []string) error {
	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	accounts, err := database.ListAccounts()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	for _, account := range accounts {
		printAccount(account)
	}
	return nil
}

func runAccountAdd(cmd *cobra.Command, args []string) error {
	id := uuid.New()
	if accountID != "" {
		parsed, err := uuid.Parse(accountID)
		if err != nil {
			return fmt.Errorf("invalid account id %q: %w", accountID, err)
		}
		id = parsed
	}

	var parentID *uuid.UUID
	if accountParent != "" {
		parsed, err := uuid.Parse(accountParent)
		if err != nil {
			return fmt.Errorf("invalid parent id %q: %w", accountParent, err)
		}
		parentID = &parsed
	}

	var note *string
	if accountNote != "" {
		note = &accountNote
	}

	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	account, err := database.CreateAccount(id, parentID, accountName, accountCurrency, note)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("Account created", "id", account.ID, "name", account.Name)
	printAccount(account)
	return nil
}

func runAccountRename(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid account id %q: %w", args[0], err)
	}

	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	account, err := database.RenameAccount(id, args[1])
	if err != nil {
		return fmt.Errorf("failed to rename account: %w", err)
	}

	printAccount(account)
	return nil
}

func runAccountClose(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid account id %q: %w", args[0], err)
	}

	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	account, err := database.CloseAccount(id)
	if err != nil {
		return fmt.Errorf("failed to close account: %w", err)
	}

	printAccount(account)
	return nil
}

func openDatabase() (*db.DB, error) {
	manager, err := newManager()
	if err != nil {
		return nil, err
	}
	slog.Debug("Opening database", "path", manager.DBPath())
	return manager.OpenDB()
}

func printAccount(account db.Account) {
	parent := "-"
	if account.ParentID != nil {
		parent = account.ParentID.String()
	}
	status := "open"
	if account.IsClosed {
		status = "closed"
	}
	fmt.Printf("%s  %-20s %-4s %-6s parent=%s", account.ID, account.Name, account.Currency, status, parent)
	if account.Note != nil {
		fmt.Printf("  # %s", *account.Note)
	}
	fmt.Println()
}
