package migrate

import (
	"cmp"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Migration describes one versioned schema change discovered from a Source.
type Migration struct {
	Version  uint32
	Name     string
	FileName string
}

// Parse error kinds.
var (
	ErrBadSuffix  = errors.New("migration file extension must be .sql")
	ErrBadName    = errors.New("migration file name must be <VERSION>_<NAME>.sql")
	ErrBadVersion = errors.New("invalid migration version")
)

// DuplicateVersionError reports two otherwise-valid migrations sharing the
// same numeric version.
type DuplicateVersionError struct {
	Version uint32
}

func (e *DuplicateVersionError) Error() string {
	return fmt.Sprintf("duplicate migration version found: %d", e.Version)
}

// Parse splits a migration file name into its version and descriptive name.
// Zero-padded versions are accepted: "0001_create_accounts.sql" parses to
// version 1, name "create_accounts".
func Parse(fileName string) (Migration, error) {
	ext := filepath.Ext(fileName)
	if !strings.EqualFold(ext, ".sql") {
		return Migration{}, fmt.Errorf("%w: %q", ErrBadSuffix, fileName)
	}

	stem := strings.TrimSuffix(fileName, ext)
	versionStr, name, found := strings.Cut(stem, "_")
	if !found || versionStr == "" || name == "" {
		return Migration{}, fmt.Errorf("%w: %q", ErrBadName, fileName)
	}

	version, err := strconv.ParseUint(versionStr, 10, 32)
	if err != nil {
		return Migration{}, fmt.Errorf("%w: %q: %w", ErrBadVersion, versionStr, err)
	}

	return Migration{
		Version:  uint32(version),
		Name:     name,
		FileName: fileName,
	}, nil
}

// Discover lists and parses every migration in source, sorted ascending by
// (version, name, file name) so application order is reproducible even when
// the source is an unordered directory listing. The first parse error
// aborts discovery; duplicate versions are rejected.
func Discover(source Source) ([]Migration, error) {
	files, err := source.MigrationFiles()
	if err != nil {
		return nil, err
	}

	migrations := make([]Migration, 0, len(files))
	for _, fileName := range files {
		migration, err := Parse(fileName)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, migration)
	}

	slices.SortFunc(migrations, func(a, b Migration) int {
		if c := cmp.Compare(a.Version, b.Version); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.FileName, b.FileName)
	})

	for i := 1; i < len(migrations); i++ {
		if migrations[i-1].Version == migrations[i].Version {
			return nil, &DuplicateVersionError{Version: migrations[i].Version}
		}
	}

	return migrations, nil
}
