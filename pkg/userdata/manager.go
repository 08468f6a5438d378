// Package userdata manages the on-disk data directory: the SQLite database
// and the content-addressed statements store next to it.
package userdata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledgerkeep/ledgerkeep/pkg/config"
	"github.com/ledgerkeep/ledgerkeep/pkg/db"
)

const (
	dbFileName        = "ledgerkeep.db"
	statementsDirName = "statements"
)

// Manager owns the layout of one data directory.
type Manager struct {
	dataDir string
	dbPath  string
}

// FromDataDir returns a Manager rooted at dataDir.
func FromDataDir(dataDir string) *Manager {
	return &Manager{
		dataDir: dataDir,
		dbPath:  filepath.Join(dataDir, dbFileName),
	}
}

// FromEnvironment resolves the data directory from the environment
// (LEDGERKEEP_DATA_DIR, XDG_DATA_HOME, HOME, in that order).
func FromEnvironment() (*Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return FromDataDir(cfg.DataDir), nil
}

// Init creates the data directory layout and a migrated database.
// It is safe to call on an already initialized directory.
func (m *Manager) Init() error {
	database, err := m.OpenDB()
	if err != nil {
		return err
	}
	return database.Close()
}

// OpenDB ensures the data and statements directories exist, then opens the
// database, running any pending migrations.
func (m *Manager) OpenDB() (*db.DB, error) {
	if err := os.MkdirAll(m.dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(m.StatementsDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create statements directory: %w", err)
	}
	return db.Open(m.dbPath)
}

// DeleteDB removes the database file. It reports whether a file was
// actually deleted; a missing file is not an error. Stored statement
// documents are left in place.
func (m *Manager) DeleteDB() (bool, error) {
	err := os.Remove(m.dbPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete database: %w", err)
	}
	return true, nil
}

// DataDir returns the data directory path.
func (m *Manager) DataDir() string {
	return m.dataDir
}

// DBPath returns the database file path.
func (m *Manager) DBPath() string {
	return m.dbPath
}

// StatementsDir returns the managed statement document directory.
func (m *Manager) StatementsDir() string {
	return filepath.Join(m.dataDir, statementsDirName)
}

// StatementFilePath locates the stored file for a content hash, regardless
// of which extension it was stored with, without touching the database.
// When no file matches it returns the extensionless candidate path.
func (m *Manager) StatementFilePath(fileHash string) string {
	if path, ok := m.findStatementFile(fileHash); ok {
		return path
	}
	return filepath.Join(m.StatementsDir(), fileHash)
}

// findStatementFile scans the statements directory for a file whose name or
// stem equals fileHash. The filesystem is the index: a file placed in the
// directory by hand still counts as present content.
func (m *Manager) findStatementFile(fileHash string) (string, bool) {
	exact := filepath.Join(m.StatementsDir(), fileHash)
	if info, err := os.Stat(exact); err == nil && info.Mode().IsRegular() {
		return exact, true
	}

	entries, err := os.ReadDir(m.StatementsDir())
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if strings.TrimSuffix(name, filepath.Ext(name)) == fileHash {
			return filepath.Join(m.StatementsDir(), name), true
		}
	}
	return "", false
}

// statementFilePathForSource is the final path a new document is placed at:
// the content hash, keeping the source file's extension when it has one.
func (m *Manager) statementFilePathForSource(fileHash, sourcePath string) string {
	if ext := filepath.Ext(sourcePath); ext != "" && ext != "." {
		return filepath.Join(m.StatementsDir(), fileHash+ext)
	}
	return filepath.Join(m.StatementsDir(), fileHash)
}
