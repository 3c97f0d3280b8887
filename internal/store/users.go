// ABOUTME: User persistence for SQLStore
// ABOUTME: Creates accounts and looks them up by id, username or session token

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const userColumns = `id, username, password_hash, token, created_at`

// CreateUser inserts a new user and sets user.ID.
// Returns ErrUsernameExists if the username is taken.
func (s *SQLStore) CreateUser(ctx context.Context, user *User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO users (username, password_hash, token, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, s.rebind(query),
		user.Username,
		user.PasswordHash,
		user.Token,
		formatTime(user.CreatedAt),
	).Scan(&user.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	s.logger.Info("created user", "id", user.ID, "username", user.Username)
	return nil
}

// GetUser retrieves a user by ID.
func (s *SQLStore) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.getUserWhere(ctx, "id = ?", id)
}

// GetUserByUsername retrieves a user by username.
func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUserWhere(ctx, "username = ?", username)
}

// GetUserByToken retrieves the user holding the given session token.
func (s *SQLStore) GetUserByToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}
	return s.getUserWhere(ctx, "token = ?", token)
}

func (s *SQLStore) getUserWhere(ctx context.Context, cond string, arg any) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + cond

	var user User
	var createdAtStr string

	err := s.db.QueryRowContext(ctx, s.rebind(query), arg).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Token,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	user.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &user, nil
}
