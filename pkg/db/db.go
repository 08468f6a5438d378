// Package db provides the SQLite-backed store for accounts and statements.
// Opening a database always runs the bundled migration catalog first, so a
// handle never points at an un-migrated schema.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ledgerkeep/ledgerkeep/pkg/migrate"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// CRUD error kinds. Decoding failures are distinguished per field so a
// corrupted row names exactly what is wrong with it.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidParentID   = errors.New("invalid parent id")
	ErrInvalidAccountID  = errors.New("invalid account id")
	ErrInvalidReplacedBy = errors.New("invalid replaced-by id")
)

// DB wraps one SQLite connection with a fully migrated schema.
//
// A DB is not safe for concurrent use without external synchronization; the
// underlying engine serializes writers but this layer adds no locking.
type DB struct {
	db     *sql.DB
	dbPath string
}

// Open opens a SQLite database at dbPath, creating the file and its parent
// directory if needed, and applies any pending bundled migrations. Foreign
// keys and WAL mode are enabled in the connection string.
func Open(dbPath string) (*DB, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", dbPath)
	return open(connStr, dbPath)
}

// OpenInMemory opens a private in-memory database, migrated the same way a
// file database is. Intended for tests.
func OpenInMemory() (*DB, error) {
	return open("file::memory:?_foreign_keys=on", ":memory:")
}

func open(connStr, dbPath string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps the single-writer model and keeps an in-memory
	// database from vanishing between pooled connections.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	source := migrate.Embedded()
	migrations, err := migrate.Discover(source)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to discover bundled migrations: %w", err)
	}
	if err := migrate.NewRunner(sqlDB).Run(source, migrations); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run bundled migrations: %w", err)
	}

	return &DB{db: sqlDB, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// GetDB returns the underlying *sql.DB instance.
// Use this for custom queries not covered by the CRUD surface.
func (d *DB) GetDB() *sql.DB {
	return d.db
}

// GetPath returns the database file path.
func (d *DB) GetPath() string {
	return d.dbPath
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
