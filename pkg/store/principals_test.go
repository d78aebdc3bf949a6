package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PrincipalStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPrincipalStore(db), mock
}

func principalRow(id int64, account, name, hash string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "account", "name", "password_hash", "creator_id", "created_at", "updater_id", "updated_at"}).
		AddRow(id, account, name, hash, nil, now, nil, now)
}

func TestAuthenticateSuccess(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, account, name, password_hash").
		WithArgs("amelia").
		WillReturnRows(principalRow(7, "amelia", "Amelia", HashPassword("secret")))
	mock.ExpectQuery("SELECT r.value").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("admin").AddRow("editor"))
	mock.ExpectQuery("SELECT DISTINCT p.value").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("menu:add").AddRow("menu:remove"))

	p, err := s.Authenticate(context.Background(), "amelia", "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "amelia", p.Account)
	assert.Equal(t, []string{"admin", "editor"}, p.Roles)
	assert.Equal(t, []string{"menu:add", "menu:remove"}, p.Perms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticateWrongPassword(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, account, name, password_hash").
		WithArgs("amelia").
		WillReturnRows(principalRow(7, "amelia", "Amelia", HashPassword("secret")))

	p, err := s.Authenticate(context.Background(), "amelia", "wrong")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestAuthenticateUnknownAccount(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, account, name, password_hash").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account", "name", "password_hash", "creator_id", "created_at", "updater_id", "updated_at"}))

	p, err := s.Authenticate(context.Background(), "ghost", "whatever")
	assert.Nil(t, p)
	// Unknown accounts and wrong passwords are indistinguishable.
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestGet(t *testing.T) {
	s, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery("SELECT id, account, name, creator_id").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account", "name", "creator_id", "created_at", "updater_id", "updated_at"}).
			AddRow(3, "bo", "Bo", nil, now, nil, now))
	mock.ExpectQuery("SELECT r.value").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("viewer"))
	mock.ExpectQuery("SELECT DISTINCT p.value").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	p, err := s.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "bo", p.Account)
	assert.Equal(t, []string{"viewer"}, p.Roles)
	assert.Empty(t, p.Perms)
}

func TestGetNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, account, name, creator_id").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account", "name", "creator_id", "created_at", "updater_id", "updated_at"}))

	_, err := s.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO principals").
		WithArgs("nia", "Nia", HashPassword("hunter2")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	id, err := s.Create(context.Background(), "nia", "Nia", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHashPasswordIsDeterministic(t *testing.T) {
	assert.Equal(t, HashPassword("secret"), HashPassword("secret"))
	assert.NotEqual(t, HashPassword("secret"), HashPassword("Secret"))
	assert.Len(t, HashPassword("secret"), 64)
}
