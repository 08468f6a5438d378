package migrate

import (
	"database/sql"
	"errors"
	"fmt"
)

// The ledger table is created once and never altered afterwards.
const ledgerTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// Runner error kinds.
var (
	ErrMigrationContent = errors.New("failed to load migration content")
	ErrMigrationExec    = errors.New("failed to execute migration sql")
)

// Runner applies a discovered migration catalog against one database
// connection, recording applied versions in the schema_migrations ledger so
// re-running the same catalog is a no-op.
type Runner struct {
	db *sql.DB
}

// NewRunner returns a Runner bound to db.
func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db}
}

// Run ensures the ledger table exists, then applies every migration whose
// version is not yet recorded, in catalog order. Content for an already
// applied version is never re-read. A failure halts the run; migrations
// applied before the failure stay recorded.
func (r *Runner) Run(source Source, migrations []Migration) error {
	if _, err := r.db.Exec(ledgerTableSQL); err != nil {
		return fmt.Errorf("%w: create schema_migrations: %w", ErrMigrationExec, err)
	}

	for _, migration := range migrations {
		var applied bool
		err := r.db.QueryRow(
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)",
			migration.Version,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("%w: check version %d: %w", ErrMigrationExec, migration.Version, err)
		}
		if applied {
			continue
		}

		sqlText, err := source.ReadFile(migration.FileName)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrMigrationContent, migration.FileName, err)
		}
		if _, err := r.db.Exec(sqlText); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrMigrationExec, migration.FileName, err)
		}
		if _, err := r.db.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version, migration.Name,
		); err != nil {
			return fmt.Errorf("%w: record version %d: %w", ErrMigrationExec, migration.Version, err)
		}
	}

	return nil
}
