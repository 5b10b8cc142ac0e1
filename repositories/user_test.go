package repositories

import (
	errs "chat-relay/errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCreateAndGetUser(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(openTestDB(t))

	id, err := repo.CreateUser("bob", "$argon2id$fake-hash")
	req.NoError(err)
	req.NotEmpty(id)

	user, err := repo.GetUserByUsername("bob")
	req.NoError(err)
	req.Equal(id, user.ID)
	req.Equal("bob", user.Username)
	req.Equal("$argon2id$fake-hash", user.PasswordHash)
	req.Equal([]string{"user"}, user.Roles)
	req.False(user.CreatedAt.IsZero())
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(openTestDB(t))

	_, err := repo.CreateUser("bob", "hash-1")
	req.NoError(err)

	_, err = repo.CreateUser("bob", "hash-2")
	req.ErrorIs(err, errs.ErrUserAlreadyExists)

	// First record untouched
	user, err := repo.GetUserByUsername("bob")
	req.NoError(err)
	req.Equal("hash-1", user.PasswordHash)
}

func TestGetUser_Unknown(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(openTestDB(t))

	_, err := repo.GetUserByUsername("nobody")
	req.ErrorIs(err, badger.ErrKeyNotFound)
}
