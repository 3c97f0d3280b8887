// ABOUTME: Credential store for user registration, password login and token lookup
// ABOUTME: Hashes passwords with bcrypt and issues opaque random session tokens

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/2389/todo-board/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a username or password is empty.
var ErrInvalidCredentials = errors.New("username and password are required")

// tokenBytes is the entropy of a session token; the cookie carries it hex encoded.
const tokenBytes = 32

// dummyHash keeps password checks for unknown usernames as slow as real ones
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserStore is the subset of store.Store the credential store needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *store.User) error
	GetUserByUsername(ctx context.Context, username string) (*store.User, error)
	GetUserByToken(ctx context.Context, token string) (*store.User, error)
}

// Credentials creates users and resolves them by password or token.
type Credentials struct {
	users  UserStore
	cost   int
	logger *slog.Logger
}

// Option configures Credentials.
type Option func(*Credentials)

// WithBcryptCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(c *Credentials) {
		c.cost = cost
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Credentials) {
		if logger != nil {
			c.logger = logger.With("component", "auth")
		}
	}
}

// NewCredentials creates a credential store backed by users.
func NewCredentials(users UserStore, opts ...Option) *Credentials {
	c := &Credentials{
		users:  users,
		cost:   bcrypt.DefaultCost,
		logger: slog.Default().With("component", "auth"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateUser registers a new user with a hashed password and a fresh token.
// Returns ErrInvalidCredentials for empty input and store.ErrUsernameExists
// if the username is taken.
func (c *Credentials) CreateUser(ctx context.Context, username, password string) (*store.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	user := &store.User{
		Username:     username,
		PasswordHash: string(hash),
		Token:        token,
	}
	if err := c.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			return nil, err
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return user, nil
}

// GetUserByPassword returns the user matching username and password.
// Unknown usernames and wrong passwords both yield (nil, nil); only storage
// failures are errors.
func (c *Credentials) GetUserByPassword(ctx context.Context, username, password string) (*store.User, error) {
	user, err := c.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		c.logger.Debug("password mismatch", "user_id", user.ID)
		return nil, nil
	}

	return user, nil
}

// GetUserByToken resolves a session token. Empty or unknown tokens yield (nil, nil).
func (c *Credentials) GetUserByToken(ctx context.Context, token string) (*store.User, error) {
	if token == "" {
		return nil, nil
	}

	user, err := c.users.GetUserByToken(ctx, token)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up token: %w", err)
	}

	return user, nil
}

// GenerateToken returns a cryptographically secure random token, hex encoded
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
