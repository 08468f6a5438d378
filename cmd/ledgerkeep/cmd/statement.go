package cmd

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ledgerkeep/ledgerkeep/pkg/db"
	"github.com/ledgerkeep/ledgerkeep/pkg/userdata"
)

var (
	statementAccount     string
	statementInstitution string
	statementPeriodStart string
	statementPeriodEnd   string
	statementCurrency    string
	statementReplaces    string
)

// statementCmd groups the statement subcommands.
var statementCmd = &cobra.Command{
	Use:   "statement",
	Short: "Manage imported statement documents",
}

var statementListCmd = &cobra.Command{
	Use:   "list",
	Short: "List imported statements",
	RunE:  runStatementList,
}

var statementAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Import a statement document",
	Long: `Import a statement document into the managed store.

The file is copied into the statements directory under its SHA-256 digest
and recorded against the database. Importing the same bytes twice fails
with a duplicate-content error.

Example:
  ledgerkeep statement add january.pdf --account <id> --institution Chase \
    --period-start 2026-01-01 --period-end 2026-01-31 --currency USD`,
	Args: cobra.ExactArgs(1),
	RunE: runStatementAdd,
}

var statementPathCmd = &cobra.Command{
	Use:   "path <hash>",
	Short: "Print the stored file path for a content hash",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatementPath,
}

func init() {
	statementAddCmd.Flags().StringVar(&statementAccount, "account", "", "Account id the statement belongs to (required)")
	statementAddCmd.Flags().StringVar(&statementInstitution, "institution", "", "Issuing institution (required)")
	statementAddCmd.Flags().StringVar(&statementPeriodStart, "period-start", "", "Period start date, YYYY-MM-DD (required)")
	statementAddCmd.Flags().StringVar(&statementPeriodEnd, "period-end", "", "Period end date, YYYY-MM-DD (required)")
	statementAddCmd.Flags().StringVar(&statementCurrency, "currency", "", "Statement currency, e.g. USD (required)")
	statementAddCmd.Flags().StringVar(&statementReplaces, "replaces", "", "Id of the statement this import supersedes")

	statementAddCmd.MarkFlagRequired("account")
	statementAddCmd.MarkFlagRequired("institution")
	statementAddCmd.MarkFlagRequired("period-start")
	statementAddCmd.MarkFlagRequired("period-end")
	statementAddCmd.MarkFlagRequired("currency")

	statementCmd.AddCommand(statementListCmd)
	statementCmd.AddCommand(statementAddCmd)
	statementCmd.AddCommand(statementPathCmd)
}

func runStatementList(cmd *cobra.Command, args []string) error {
	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	statements, err := database.ListStatements()
	if err != nil {
		return fmt.Errorf("failed to list statements: %w", err)
	}

	for _, statement := range statements {
		printStatement(statement)
	}
	return nil
}

func runStatementAdd(cmd *cobra.Command, args []string) error {
	accountID, err := uuid.Parse(statementAccount)
	if err != nil {
		return fmt.Errorf("invalid account id %q: %w", statementAccount, err)
	}

	var replacedBy *uuid.UUID
	if statementReplaces != "" {
		parsed, err := uuid.Parse(statementReplaces)
		if err != nil {
			return fmt.Errorf("invalid replaced statement id %q: %w", statementReplaces, err)
		}
		replacedBy = &parsed
	}

	manager, err := newManager()
	if err != nil {
		return err
	}

	slog.Info("Importing statement", "source", args[0], "account", accountID)
	statement, err := manager.AddStatement(args[0], userdata.AddStatementInput{
		Institution: statementInstitution,
		AccountID:   accountID,
		PeriodStart: statementPeriodStart,
		PeriodEnd:   statementPeriodEnd,
		Currency:    statementCurrency,
		ReplacedBy:  replacedBy,
	})
	if err != nil {
		return err
	}

	fmt.Printf("imported statement %s (%d bytes) as %s\n",
		statement.ID, statement.FileSize, manager.StatementFilePath(statement.FileHash))
	return nil
}

func runStatementPath(cmd *cobra.Command, args []string) error {
	manager, err := newManager()
	if err != nil {
		return err
	}

	fmt.Println(manager.StatementFilePath(args[0]))
	return nil
}

func printStatement(statement db.Statement) {
	replaced := ""
	if statement.ReplacedBy != nil {
		replaced = fmt.Sprintf("  replaced-by=%s", statement.ReplacedBy)
	}
	fmt.Printf("%s  %-12s %s..%s %-4s %8d bytes  %s%s\n",
		statement.ID, statement.Institution, statement.PeriodStart, statement.PeriodEnd,
		statement.Currency, statement.FileSize, statement.FileHash, replaced)
}
