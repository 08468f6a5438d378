// Package migrate discovers and applies versioned SQL schema migrations.
// Migrations are forward-only: each file is applied at most once, tracked
// in a schema_migrations ledger table.
package migrate

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

//go:embed migrations/*.sql
var embeddedFS embed.FS

const embeddedDir = "migrations"

// Discovery and content error kinds.
var (
	ErrListSource      = errors.New("failed to list migration files")
	ErrNonTextFileName = errors.New("migration file name is not valid utf-8")
	ErrReadContent     = errors.New("failed to read migration sql content")
	ErrNonTextContent  = errors.New("migration sql content is not valid utf-8")
)

// A Source is a place migration files live: the assets bundled into the
// binary, or a directory on disk.
type Source interface {
	// MigrationFiles lists candidate migration file names, filtered to the
	// .sql suffix (matched case-insensitively).
	MigrationFiles() ([]string, error)
	// ReadFile returns the SQL content of one migration file as text.
	ReadFile(name string) (string, error)
}

// Embedded returns the Source backed by the migration assets compiled into
// the binary. The asset set is fixed at build time and read-only.
func Embedded() Source {
	return embeddedSource{fsys: embeddedFS}
}

// Dir returns a Source reading migration files from a directory on disk.
func Dir(dirPath string) Source {
	return dirSource{dir: dirPath}
}

type embeddedSource struct {
	fsys fs.FS
}

func (s embeddedSource) MigrationFiles() ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, embeddedDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListSource, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !hasSQLSuffix(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}
	return files, nil
}

func (s embeddedSource) ReadFile(name string) (string, error) {
	data, err := fs.ReadFile(s.fsys, path.Join(embeddedDir, name))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrReadContent, name, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s", ErrNonTextContent, name)
	}
	return string(data), nil
}

type dirSource struct {
	dir string
}

func (s dirSource) MigrationFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListSource, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if !utf8.ValidString(name) {
			return nil, fmt.Errorf("%w: %q", ErrNonTextFileName, name)
		}
		if !hasSQLSuffix(name) {
			continue
		}
		files = append(files, name)
	}
	return files, nil
}

func (s dirSource) ReadFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrReadContent, name, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s", ErrNonTextContent, name)
	}
	return string(data), nil
}

func hasSQLSuffix(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".sql")
}
