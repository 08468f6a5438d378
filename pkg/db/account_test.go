package db

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertRawAccount(t *testing.T, database *DB, id string, parentID *string, name string) {
	t.Helper()
	var parent any
	if parentID != nil {
		parent = *parentID
	}
	_, err := database.GetDB().Exec(`
		INSERT INTO accounts (id, parent_id, name, currency, is_closed)
		VALUES (?, ?, ?, 'USD', 0)
	`, id, parent, name)
	require.NoError(t, err)
}

func TestCreateAccountReturnsReadBackRow(t *testing.T) {
	database := openTestDB(t)
	id := uuid.MustParse("66666666-6666-6666-6666-666666666666")
	note := "wallet"

	account, err := database.CreateAccount(id, nil, "cash", "USD", &note)
	require.NoError(t, err)

	assert.Equal(t, id, account.ID)
	assert.Nil(t, account.ParentID)
	assert.Equal(t, "cash", account.Name)
	assert.Equal(t, "USD", account.Currency)
	assert.False(t, account.IsClosed)
	require.NotNil(t, account.Note)
	assert.Equal(t, "wallet", *account.Note)
	assert.NotEmpty(t, account.CreatedAt)
}

func TestCreateAccountRejectsDuplicateID(t *testing.T) {
	database := openTestDB(t)
	id := uuid.MustParse("67676767-6767-6767-6767-676767676767")

	_, err := database.CreateAccount(id, nil, "first", "USD", nil)
	require.NoError(t, err)

	_, err = database.CreateAccount(id, nil, "second", "USD", nil)
	require.Error(t, err)
}

func TestCreateAccountRejectsDuplicateSiblingName(t *testing.T) {
	database := openTestDB(t)
	parent, err := database.CreateAccount(uuid.New(), nil, "assets", "USD", nil)
	require.NoError(t, err)

	_, err = database.CreateAccount(uuid.New(), &parent.ID, "checking", "USD", nil)
	require.NoError(t, err)

	_, err = database.CreateAccount(uuid.New(), &parent.ID, "checking", "USD", nil)
	require.Error(t, err)
}

func TestCreateAccountRejectsDuplicateRootName(t *testing.T) {
	database := openTestDB(t)

	_, err := database.CreateAccount(uuid.New(), nil, "assets", "USD", nil)
	require.NoError(t, err)

	_, err = database.CreateAccount(uuid.New(), nil, "assets", "EUR", nil)
	require.Error(t, err)
}

func TestListAccountsOrdersByParentThenName(t *testing.T) {
	database := openTestDB(t)

	rootA, err := database.CreateAccount(uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaa1"), nil, "a-root", "USD", nil)
	require.NoError(t, err)
	_, err = database.CreateAccount(uuid.MustParse("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbb1"), nil, "b-root", "USD", nil)
	require.NoError(t, err)
	_, err = database.CreateAccount(uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaa3"), &rootA.ID, "z-child", "USD", nil)
	require.NoError(t, err)
	_, err = database.CreateAccount(uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaa2"), &rootA.ID, "a-child", "USD", nil)
	require.NoError(t, err)

	accounts, err := database.ListAccounts()
	require.NoError(t, err)

	names := make([]string, 0, len(accounts))
	for _, account := range accounts {
		names = append(names, account.Name)
	}
	assert.Equal(t, []string{"a-root", "b-root", "a-child", "z-child"}, names)
}

func TestListAccountsMapsNullParentAndNote(t *testing.T) {
	database := openTestDB(t)
	_, err := database.CreateAccount(uuid.New(), nil, "root", "USD", nil)
	require.NoError(t, err)

	accounts, err := database.ListAccounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Nil(t, accounts[0].ParentID)
	assert.Nil(t, accounts[0].Note)
}

func TestListAccountsErrorsOnInvalidIDText(t *testing.T) {
	database := openTestDB(t)
	insertRawAccount(t, database, "not-a-uuid", nil, "broken")

	_, err := database.ListAccounts()
	require.ErrorIs(t, err, ErrInvalidID)
}

func TestListAccountsErrorsOnInvalidParentIDText(t *testing.T) {
	database := openTestDB(t)
	_, err := database.GetDB().Exec("PRAGMA foreign_keys=OFF")
	require.NoError(t, err)

	badParent := "not-a-uuid"
	insertRawAccount(t, database, "55555555-5555-5555-5555-555555555555", &badParent, "broken-child")

	_, err = database.ListAccounts()
	require.ErrorIs(t, err, ErrInvalidParentID)
	assert.NotErrorIs(t, err, ErrInvalidID)
}

func TestRenameAccountUpdatesName(t *testing.T) {
	database := openTestDB(t)
	id := uuid.MustParse("77777777-7777-7777-7777-777777777777")
	_, err := database.CreateAccount(id, nil, "old-name", "USD", nil)
	require.NoError(t, err)

	renamed, err := database.RenameAccount(id, "new-name")
	require.NoError(t, err)
	assert.Equal(t, "new-name", renamed.Name)
	assert.Equal(t, id, renamed.ID)
}

func TestRenameAccountReportsNotFound(t *testing.T) {
	database := openTestDB(t)
	missing := uuid.MustParse("88888888-8888-8888-8888-888888888888")

	_, err := database.RenameAccount(missing, "new-name")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCloseAccountSetsIsClosed(t *testing.T) {
	database := openTestDB(t)
	id := uuid.MustParse("99999999-9999-9999-9999-999999999999")
	_, err := database.CreateAccount(id, nil, "card", "USD", nil)
	require.NoError(t, err)

	closed, err := database.CloseAccount(id)
	require.NoError(t, err)
	assert.True(t, closed.IsClosed)
	assert.Equal(t, id, closed.ID)
}

func TestCloseAccountReportsNotFoundAndMutatesNothing(t *testing.T) {
	database := openTestDB(t)
	missing := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000000")

	_, err := database.CloseAccount(missing)
	require.ErrorIs(t, err, ErrNotFound)

	accounts, err := database.ListAccounts()
	require.NoError(t, err)
	assert.Empty(t, accounts)
}
