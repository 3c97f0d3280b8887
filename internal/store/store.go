// ABOUTME: Store interface and data types for todo-board persistence
// ABOUTME: Defines User, Todo, list filters and the sentinel errors shared by every backend

package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested todo does not exist
var ErrNotFound = errors.New("not found")

// ErrUserNotFound is returned when a user doesn't exist.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameExists is returned when trying to create a user with an existing username.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmptyTitle is returned when a todo title is empty after trimming whitespace.
var ErrEmptyTitle = errors.New("todo title is empty")

// User is a registered account. Token is the opaque session credential
// presented in the token cookie; it never expires or rotates.
type User struct {
	ID           int64
	Username     string
	PasswordHash string // bcrypt hash, never the plaintext
	Token        string
	CreatedAt    time.Time
}

// Todo is a single item on the board. A nil OwnerID means the todo is public.
type Todo struct {
	ID        int64
	Title     string
	Done      bool
	Deadline  string // as submitted; empty means no deadline
	OwnerID   *int64
	CreatedAt time.Time
}

// IsPublic reports whether the todo has no owner.
func (t *Todo) IsPublic() bool {
	return t.OwnerID == nil
}

// OwnedBy reports whether the todo belongs to the given user.
func (t *Todo) OwnedBy(userID int64) bool {
	return t.OwnerID != nil && *t.OwnerID == userID
}

// TodoFilter selects todos for ListTodos.
// Without IncludeAll the result holds the public todos plus those owned by
// OwnerID (if set). Done, when set, narrows the whole result.
type TodoFilter struct {
	IncludeAll bool
	OwnerID    *int64
	Done       *bool
}

// NewTodo is the input for CreateTodo.
type NewTodo struct {
	Title    string
	Deadline string
	OwnerID  *int64
}

// Store defines the persistence operations for users and todos.
type Store interface {
	// Todos
	ListTodos(ctx context.Context, filter TodoFilter) ([]*Todo, error)
	CreateTodo(ctx context.Context, todo NewTodo) (*Todo, error)
	GetTodo(ctx context.Context, id int64) (*Todo, error)
	UpdateTodoTitle(ctx context.Context, id int64, title string) (*Todo, error)
	ToggleTodoDone(ctx context.Context, id int64) (*Todo, error)
	DeleteTodo(ctx context.Context, id int64) error

	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByToken(ctx context.Context, token string) (*User, error)

	Ping(ctx context.Context) error
	Close() error
}

// normalizeTitle trims surrounding whitespace and rejects empty titles.
func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	return title, nil
}

func matchesFilter(t *Todo, f TodoFilter) bool {
	if f.Done != nil && t.Done != *f.Done {
		return false
	}
	if f.IncludeAll || t.IsPublic() {
		return true
	}
	return f.OwnerID != nil && t.OwnedBy(*f.OwnerID)
}
