// ABOUTME: Tests for the credential store
// ABOUTME: Covers registration, password verification without enumeration, and token lookup

package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/2389/todo-board/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestCredentials(t *testing.T) (*Credentials, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	return NewCredentials(s, WithBcryptCost(bcrypt.MinCost)), s
}

func TestCreateUser(t *testing.T) {
	creds, s := newTestCredentials(t)
	ctx := context.Background()

	user, err := creds.CreateUser(ctx, "alice", "s3cret")
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "s3cret", user.PasswordHash, "password must not be stored in plaintext")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")))
	assert.Len(t, user.Token, 64)

	stored, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.Token, stored.Token)
}

func TestCreateUser_TokensAreUnique(t *testing.T) {
	creds, _ := newTestCredentials(t)
	ctx := context.Background()

	a, err := creds.CreateUser(ctx, "alice", "pw")
	require.NoError(t, err)
	b, err := creds.CreateUser(ctx, "bob", "pw")
	require.NoError(t, err)

	assert.NotEqual(t, a.Token, b.Token)
}

func TestCreateUser_Duplicate(t *testing.T) {
	creds, _ := newTestCredentials(t)
	ctx := context.Background()

	_, err := creds.CreateUser(ctx, "alice", "one")
	require.NoError(t, err)

	_, err = creds.CreateUser(ctx, "alice", "two")
	assert.ErrorIs(t, err, store.ErrUsernameExists)
}

func TestCreateUser_EmptyFields(t *testing.T) {
	creds, _ := newTestCredentials(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "", "pw"},
		{"blank username", "   ", "pw"},
		{"empty password", "alice", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := creds.CreateUser(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestGetUserByPassword(t *testing.T) {
	creds, _ := newTestCredentials(t)
	ctx := context.Background()

	created, err := creds.CreateUser(ctx, "alice", "s3cret")
	require.NoError(t, err)

	user, err := creds.GetUserByPassword(ctx, "alice", "s3cret")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, created.ID, user.ID)

	wrongPassword, err := creds.GetUserByPassword(ctx, "alice", "nope")
	assert.NoError(t, err)
	assert.Nil(t, wrongPassword)

	unknownUser, err := creds.GetUserByPassword(ctx, "mallory", "s3cret")
	assert.NoError(t, err)
	assert.Nil(t, unknownUser)
}

func TestGetUserByToken(t *testing.T) {
	creds, _ := newTestCredentials(t)
	ctx := context.Background()

	created, err := creds.CreateUser(ctx, "alice", "pw")
	require.NoError(t, err)

	user, err := creds.GetUserByToken(ctx, created.Token)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)

	for _, token := range []string{"", "unknown"} {
		user, err := creds.GetUserByToken(ctx, token)
		assert.NoError(t, err)
		assert.Nil(t, user)
	}
}

// failingUsers simulates a storage outage
type failingUsers struct{}

var errStorage = errors.New("disk on fire")

func (failingUsers) CreateUser(context.Context, *store.User) error { return errStorage }
func (failingUsers) GetUserByUsername(context.Context, string) (*store.User, error) {
	return nil, errStorage
}
func (failingUsers) GetUserByToken(context.Context, string) (*store.User, error) {
	return nil, errStorage
}

func TestCredentials_StorageErrors(t *testing.T) {
	creds := NewCredentials(failingUsers{}, WithBcryptCost(bcrypt.MinCost))
	ctx := context.Background()

	_, err := creds.CreateUser(ctx, "alice", "pw")
	assert.ErrorIs(t, err, errStorage)

	_, err = creds.GetUserByPassword(ctx, "alice", "pw")
	assert.ErrorIs(t, err, errStorage)

	_, err = creds.GetUserByToken(ctx, "tok")
	assert.ErrorIs(t, err, errStorage)
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
