package userdata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ledgerkeep/ledgerkeep/pkg/db"
)

const copyChunkSize = 8192

// Ingestion error kinds, one per pipeline step.
var (
	ErrOpenSource   = errors.New("failed to open source statement file")
	ErrCreateTemp   = errors.New("failed to create temp statement file")
	ErrReadSource   = errors.New("failed while reading source statement file")
	ErrWriteTemp    = errors.New("failed while writing managed statement file")
	ErrTempMetadata = errors.New("failed to read temp statement file metadata")
	ErrRenameFinal  = errors.New("failed to finalize managed statement file")
	ErrPrepare      = errors.New("failed to prepare user data for statement ingest")
	ErrInsert       = errors.New("failed to insert statement row")
)

// DuplicateFileError reports content already present in the statements
// store. Path names the pre-existing file; the new copy was discarded.
type DuplicateFileError struct {
	Hash string
	Path string
}

func (e *DuplicateFileError) Error() string {
	return fmt.Sprintf("statement file with hash '%s' already exists at %s", e.Hash, e.Path)
}

// CleanupFailedError reports a failed statement insert whose compensating
// file delete also failed, leaving an orphaned file at Path for manual
// recovery.
type CleanupFailedError struct {
	InsertErr  error
	CleanupErr error
	Path       string
}

func (e *CleanupFailedError) Error() string {
	return fmt.Sprintf("failed to insert statement row (%v) and failed to remove copied file %s: %v",
		e.InsertErr, e.Path, e.CleanupErr)
}

func (e *CleanupFailedError) Unwrap() error {
	return e.InsertErr
}

// AddStatementInput carries statement metadata for ingestion. The file hash
// and size are computed from the copied bytes, never supplied.
type AddStatementInput struct {
	Institution string
	AccountID   uuid.UUID
	PeriodStart string
	PeriodEnd   string
	Currency    string
	ReplacedBy  *uuid.UUID
}

// AddStatement copies the document at sourcePath into the statements store
// under its SHA-256 digest and records it against the database.
//
// The bytes are streamed into a randomly named temp file while the digest
// is computed, the store is checked for existing content with the same
// hash, and only then is the temp file renamed into its final digest-named
// path. The database row is inserted after the rename; if the insert fails
// the placed file is deleted again. A crash between rename and insert can
// leave an unreferenced file in the store with no automatic cleanup.
func (m *Manager) AddStatement(sourcePath string, input AddStatementInput) (db.Statement, error) {
	database, err := m.OpenDB()
	if err != nil {
		return db.Statement{}, fmt.Errorf("%w: %w", ErrPrepare, err)
	}
	defer database.Close()

	source, err := os.Open(sourcePath)
	if err != nil {
		return db.Statement{}, fmt.Errorf("%w: %w", ErrOpenSource, err)
	}
	defer source.Close()

	// The random token keeps concurrent imports of different content from
	// colliding on the temp name.
	tempPath := filepath.Join(m.StatementsDir(), ".tmp-statement-"+uuid.NewString())
	temp, err := os.Create(tempPath)
	if err != nil {
		return db.Statement{}, fmt.Errorf("%w: %w", ErrCreateTemp, err)
	}

	fileHash, err := copyAndDigest(source, temp)
	if err != nil {
		temp.Close()
		return db.Statement{}, err
	}

	info, err := temp.Stat()
	if err != nil {
		temp.Close()
		return db.Statement{}, fmt.Errorf("%w: %w", ErrTempMetadata, err)
	}
	fileSize := info.Size()
	if err := temp.Close(); err != nil {
		return db.Statement{}, fmt.Errorf("%w: %w", ErrWriteTemp, err)
	}

	finalPath := m.statementFilePathForSource(fileHash, sourcePath)
	if existing, ok := m.findStatementFile(fileHash); ok {
		os.Remove(tempPath)
		return db.Statement{}, &DuplicateFileError{Hash: fileHash, Path: existing}
	}

	// The single moment the document becomes managed and durable.
	if err := os.Rename(tempPath, finalPath); err != nil {
		return db.Statement{}, fmt.Errorf("%w: %w", ErrRenameFinal, err)
	}

	statement, err := database.CreateStatement(db.NewStatement{
		ID:          uuid.New(),
		Institution: input.Institution,
		AccountID:   input.AccountID,
		PeriodStart: input.PeriodStart,
		PeriodEnd:   input.PeriodEnd,
		Currency:    input.Currency,
		FileHash:    fileHash,
		FileSize:    fileSize,
		ReplacedBy:  input.ReplacedBy,
	})
	if err != nil {
		if cleanupErr := os.Remove(finalPath); cleanupErr != nil {
			return db.Statement{}, &CleanupFailedError{
				InsertErr:  err,
				CleanupErr: cleanupErr,
				Path:       finalPath,
			}
		}
		return db.Statement{}, fmt.Errorf("%w: %w", ErrInsert, err)
	}
	return statement, nil
}

// copyAndDigest streams source into temp in fixed-size chunks, updating the
// digest as it goes, and returns the hex digest. Read and write failures
// surface as distinct kinds.
func copyAndDigest(source io.Reader, temp *os.File) (string, error) {
	hasher := sha256.New()
	buf := make([]byte, copyChunkSize)

	for {
		n, readErr := source.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
			if _, writeErr := temp.Write(buf[:n]); writeErr != nil {
				return "", fmt.Errorf("%w: %w", ErrWriteTemp, writeErr)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", fmt.Errorf("%w: %w", ErrReadSource, readErr)
		}
	}

	if err := temp.Sync(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteTemp, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
