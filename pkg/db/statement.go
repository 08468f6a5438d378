package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Statement records one imported statement document. Rows are created once
// and never updated in place; ReplacedBy is set only when a successor row is
// created, marking this one superseded.
type Statement struct {
	ID          uuid.UUID
	Institution string
	AccountID   uuid.UUID
	PeriodStart string
	PeriodEnd   string
	Currency    string
	FileHash    string
	FileSize    int64
	ImportedAt  string
	ReplacedBy  *uuid.UUID
}

// NewStatement describes a statement row to insert. imported_at is assigned
// by the database on insert.
type NewStatement struct {
	ID          uuid.UUID
	Institution string
	AccountID   uuid.UUID
	PeriodStart string
	PeriodEnd   string
	Currency    string
	FileHash    string
	FileSize    int64
	ReplacedBy  *uuid.UUID
}

const listStatementsSQL = `
SELECT
  id,
  institution,
  account_id,
  period_start,
  period_end,
  currency,
  file_hash,
  file_size,
  imported_at,
  replaced_by
FROM statements
ORDER BY imported_at, id
`

const getStatementByIDSQL = `
SELECT
  id,
  institution,
  account_id,
  period_start,
  period_end,
  currency,
  file_hash,
  file_size,
  imported_at,
  replaced_by
FROM statements
WHERE id = ?
`

// ListStatements returns every statement ordered by (imported_at, id).
func (d *DB) ListStatements() ([]Statement, error) {
	rows, err := d.db.Query(listStatementsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	defer rows.Close()

	var statements []Statement
	for rows.Next() {
		statement, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		statements = append(statements, statement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	return statements, nil
}

// CreateStatement inserts a statement row and returns the read-back row
// with its server-assigned imported_at. The referenced account must exist;
// foreign-key enforcement rejects the insert otherwise.
func (d *DB) CreateStatement(input NewStatement) (Statement, error) {
	_, err := d.db.Exec(`
		INSERT INTO statements (
		  id,
		  institution,
		  account_id,
		  period_start,
		  period_end,
		  currency,
		  file_hash,
		  file_size,
		  replaced_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		input.ID.String(),
		input.Institution,
		input.AccountID.String(),
		input.PeriodStart,
		input.PeriodEnd,
		input.Currency,
		input.FileHash,
		input.FileSize,
		uuidString(input.ReplacedBy),
	)
	if err != nil {
		return Statement{}, fmt.Errorf("failed to insert statement: %w", err)
	}
	return d.getStatementByID(input.ID)
}

func (d *DB) getStatementByID(id uuid.UUID) (Statement, error) {
	statement, err := scanStatement(d.db.QueryRow(getStatementByIDSQL, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return Statement{}, fmt.Errorf("statement %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Statement{}, fmt.Errorf("failed to read back statement %s: %w", id, err)
	}
	return statement, nil
}

func scanStatement(row scanner) (Statement, error) {
	var (
		statement     Statement
		idStr         string
		accountIDStr  string
		replacedByStr sql.NullString
	)
	if err := row.Scan(
		&idStr,
		&statement.Institution,
		&accountIDStr,
		&statement.PeriodStart,
		&statement.PeriodEnd,
		&statement.Currency,
		&statement.FileHash,
		&statement.FileSize,
		&statement.ImportedAt,
		&replacedByStr,
	); err != nil {
		return Statement{}, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return Statement{}, fmt.Errorf("%w %q: %w", ErrInvalidID, idStr, err)
	}
	statement.ID = id

	accountID, err := uuid.Parse(accountIDStr)
	if err != nil {
		return Statement{}, fmt.Errorf("%w %q: %w", ErrInvalidAccountID, accountIDStr, err)
	}
	statement.AccountID = accountID

	if replacedByStr.Valid {
		replacedBy, err := uuid.Parse(replacedByStr.String)
		if err != nil {
			return Statement{}, fmt.Errorf("%w %q: %w", ErrInvalidReplacedBy, replacedByStr.String, err)
		}
		statement.ReplacedBy = &replacedBy
	}

	return statement, nil
}
