package migrate

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func appliedCount(t *testing.T, db *sql.DB) int {
	t.Helper()
	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	return count
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var exists bool
	require.NoError(t, db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type='table' AND name=?)", name,
	).Scan(&exists))
	return exists
}

func TestRunCreatesLedgerTableAndIsIdempotentWhenEmpty(t *testing.T) {
	db := openTestDB(t)
	runner := NewRunner(db)
	source := Dir(t.TempDir())

	require.NoError(t, runner.Run(source, nil))
	require.NoError(t, runner.Run(source, nil))

	assert.True(t, tableExists(t, db, "schema_migrations"))
	assert.Equal(t, 0, appliedCount(t, db))
}

func TestRunAppliesNewMigrationsAndRecordsThem(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	writeMigration(t, dir, "0001_create_accounts.sql",
		"CREATE TABLE accounts(id TEXT PRIMARY KEY);")
	writeMigration(t, dir, "0002_create_transactions.sql",
		"CREATE TABLE transactions(id TEXT PRIMARY KEY, account_id TEXT NOT NULL);")

	source := Dir(dir)
	migrations, err := Discover(source)
	require.NoError(t, err)
	require.NoError(t, NewRunner(db).Run(source, migrations))

	assert.Equal(t, 2, appliedCount(t, db))
	assert.True(t, tableExists(t, db, "accounts"))
	assert.True(t, tableExists(t, db, "transactions"))
}

func TestRunIsIdempotentForAppliedMigrations(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	writeMigration(t, dir, "0001_create_accounts.sql",
		"CREATE TABLE accounts(id TEXT PRIMARY KEY);")

	source := Dir(dir)
	migrations, err := Discover(source)
	require.NoError(t, err)

	runner := NewRunner(db)
	require.NoError(t, runner.Run(source, migrations))
	require.NoError(t, runner.Run(source, migrations))
	require.NoError(t, runner.Run(source, migrations))

	assert.Equal(t, 1, appliedCount(t, db))
}

func TestRunRecordsAppliedAtTimestamp(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	writeMigration(t, dir, "0001_create_accounts.sql",
		"CREATE TABLE accounts(id TEXT PRIMARY KEY);")

	source := Dir(dir)
	migrations, err := Discover(source)
	require.NoError(t, err)
	require.NoError(t, NewRunner(db).Run(source, migrations))

	var name, appliedAt string
	require.NoError(t, db.QueryRow(
		"SELECT name, applied_at FROM schema_migrations WHERE version = 1",
	).Scan(&name, &appliedAt))
	assert.Equal(t, "create_accounts", name)
	assert.NotEmpty(t, appliedAt)
}

func TestRunHaltsOnExecutionFailure(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	writeMigration(t, dir, "0001_good.sql", "CREATE TABLE good(id TEXT PRIMARY KEY);")
	writeMigration(t, dir, "0002_bad.sql", "THIS IS NOT SQL;")
	writeMigration(t, dir, "0003_never.sql", "CREATE TABLE never(id TEXT PRIMARY KEY);")

	source := Dir(dir)
	migrations, err := Discover(source)
	require.NoError(t, err)

	err = NewRunner(db).Run(source, migrations)
	require.ErrorIs(t, err, ErrMigrationExec)

	// The ledger reflects exactly the migrations that succeeded.
	assert.Equal(t, 1, appliedCount(t, db))
	assert.True(t, tableExists(t, db, "good"))
	assert.False(t, tableExists(t, db, "never"))
}

func TestRunReportsContentReadFailureDistinctly(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()

	// Discovered from a listing, then deleted before the runner reads it.
	writeMigration(t, dir, "0001_gone.sql", "SELECT 1;")
	source := Dir(dir)
	migrations, err := Discover(source)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "0001_gone.sql")))

	err = NewRunner(db).Run(source, migrations)
	require.ErrorIs(t, err, ErrMigrationContent)
	assert.NotErrorIs(t, err, ErrMigrationExec)
	assert.Equal(t, 0, appliedCount(t, db))
}

func TestRunAppliesEmbeddedCatalog(t *testing.T) {
	db := openTestDB(t)
	source := Embedded()
	migrations, err := Discover(source)
	require.NoError(t, err)

	require.NoError(t, NewRunner(db).Run(source, migrations))

	assert.Equal(t, 3, appliedCount(t, db))
	assert.True(t, tableExists(t, db, "accounts"))
	assert.True(t, tableExists(t, db, "statements"))
}
