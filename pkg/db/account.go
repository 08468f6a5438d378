package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Account is one node of the hierarchical chart of accounts. ParentID nil
// marks a root account. Accounts are never deleted; the only mutations are
// rename and the one-way close.
type Account struct {
	ID        uuid.UUID
	ParentID  *uuid.UUID
	Name      string
	Currency  string
	IsClosed  bool
	CreatedAt string
	Note      *string
}

const listAccountsSQL = `
SELECT id, parent_id, name, currency, is_closed, created_at, note
FROM accounts
ORDER BY parent_id, name, id
`

const getAccountByIDSQL = `
SELECT id, parent_id, name, currency, is_closed, created_at, note
FROM accounts
WHERE id = ?
`

// ListAccounts returns every account ordered by (parent, name, id) for
// stable hierarchical display.
func (d *DB) ListAccounts() ([]Account, error) {
	rows, err := d.db.Query(listAccountsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// CreateAccount inserts an open account and returns the read-back row with
// its server-assigned created_at. Insertion fails if the id already exists
// or if (parent_id, name) collides with an existing sibling.
func (d *DB) CreateAccount(id uuid.UUID, parentID *uuid.UUID, name, currency string, note *string) (Account, error) {
	_, err := d.db.Exec(`
		INSERT INTO accounts (id, parent_id, name, currency, is_closed, note)
		VALUES (?, ?, ?, ?, 0, ?)
	`, id.String(), uuidString(parentID), name, currency, noteValue(note))
	if err != nil {
		return Account{}, fmt.Errorf("failed to insert account: %w", err)
	}
	return d.getAccountByID(id)
}

// RenameAccount updates the display name of an account by id.
func (d *DB) RenameAccount(id uuid.UUID, newName string) (Account, error) {
	result, err := d.db.Exec("UPDATE accounts SET name = ? WHERE id = ?", newName, id.String())
	if err != nil {
		return Account{}, fmt.Errorf("failed to rename account: %w", err)
	}
	if err := requireRowAffected(result, "account", id); err != nil {
		return Account{}, err
	}
	return d.getAccountByID(id)
}

// CloseAccount marks an account closed. Closing is one-way; closing an
// already closed account succeeds and changes nothing.
func (d *DB) CloseAccount(id uuid.UUID) (Account, error) {
	result, err := d.db.Exec("UPDATE accounts SET is_closed = 1 WHERE id = ?", id.String())
	if err != nil {
		return Account{}, fmt.Errorf("failed to close account: %w", err)
	}
	if err := requireRowAffected(result, "account", id); err != nil {
		return Account{}, err
	}
	return d.getAccountByID(id)
}

func (d *DB) getAccountByID(id uuid.UUID) (Account, error) {
	account, err := scanAccount(d.db.QueryRow(getAccountByIDSQL, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Account{}, fmt.Errorf("failed to read back account %s: %w", id, err)
	}
	return account, nil
}

func scanAccount(row scanner) (Account, error) {
	var (
		account   Account
		idStr     string
		parentStr sql.NullString
		isClosed  int64
		note      sql.NullString
	)
	if err := row.Scan(&idStr, &parentStr, &account.Name, &account.Currency, &isClosed, &account.CreatedAt, &note); err != nil {
		return Account{}, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return Account{}, fmt.Errorf("%w %q: %w", ErrInvalidID, idStr, err)
	}
	account.ID = id

	if parentStr.Valid {
		parentID, err := uuid.Parse(parentStr.String)
		if err != nil {
			return Account{}, fmt.Errorf("%w %q: %w", ErrInvalidParentID, parentStr.String, err)
		}
		account.ParentID = &parentID
	}

	account.IsClosed = isClosed != 0
	if note.Valid {
		n := note.String
		account.Note = &n
	}
	return account, nil
}

func requireRowAffected(result sql.Result, kind string, id uuid.UUID) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

func uuidString(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func noteValue(note *string) any {
	if note == nil {
		return nil
	}
	return *note
}
