// ABOUTME: In-memory Store implementation for the memory driver and for tests
// ABOUTME: Keeps users and todos in maps guarded by a RWMutex; nothing survives a restart

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu         sync.RWMutex
	todos      map[int64]*Todo
	users      map[int64]*User
	byUsername map[string]int64 // username -> user ID
	byToken    map[string]int64 // token -> user ID
	nextTodoID int64
	nextUserID int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		todos:      make(map[int64]*Todo),
		users:      make(map[int64]*User),
		byUsername: make(map[string]int64),
		byToken:    make(map[string]int64),
	}
}

// copyTodo returns a deep copy so callers can't modify stored state
func copyTodo(t *Todo) *Todo {
	c := *t
	if t.OwnerID != nil {
		id := *t.OwnerID
		c.OwnerID = &id
	}
	return &c
}

// ListTodos returns the todos selected by filter, ordered by id.
func (m *MemoryStore) ListTodos(ctx context.Context, filter TodoFilter) ([]*Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Todo
	for _, t := range m.todos {
		if matchesFilter(t, filter) {
			result = append(result, copyTodo(t))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// CreateTodo stores a new todo with a trimmed title.
func (m *MemoryStore) CreateTodo(ctx context.Context, in NewTodo) (*Todo, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextTodoID++
	t := copyTodo(&Todo{
		ID:        m.nextTodoID,
		Title:     title,
		Deadline:  strings.TrimSpace(in.Deadline),
		OwnerID:   in.OwnerID,
		CreatedAt: time.Now().UTC(),
	})
	m.todos[t.ID] = t

	return copyTodo(t), nil
}

// GetTodo retrieves a todo by ID.
func (m *MemoryStore) GetTodo(ctx context.Context, id int64) (*Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.todos[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyTodo(t), nil
}

// UpdateTodoTitle replaces the title of a todo.
func (m *MemoryStore) UpdateTodoTitle(ctx context.Context, id int64, title string) (*Todo, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.todos[id]
	if !ok {
		return nil, ErrNotFound
	}
	t.Title = title
	return copyTodo(t), nil
}

// ToggleTodoDone flips the done flag of a todo.
func (m *MemoryStore) ToggleTodoDone(ctx context.Context, id int64) (*Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.todos[id]
	if !ok {
		return nil, ErrNotFound
	}
	t.Done = !t.Done
	return copyTodo(t), nil
}

// DeleteTodo removes a todo.
func (m *MemoryStore) DeleteTodo(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.todos[id]; !ok {
		return ErrNotFound
	}
	delete(m.todos, id)
	return nil
}

// CreateUser stores a new user and sets user.ID.
func (m *MemoryStore) CreateUser(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byUsername[user.Username]; exists {
		return ErrUsernameExists
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	m.nextUserID++
	user.ID = m.nextUserID

	u := *user
	m.users[u.ID] = &u
	m.byUsername[u.Username] = u.ID
	m.byToken[u.Token] = u.ID

	return nil
}

// GetUser retrieves a user by ID.
func (m *MemoryStore) GetUser(ctx context.Context, id int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.userLocked(id, true)
}

// GetUserByUsername retrieves a user by username.
func (m *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byUsername[username]
	return m.userLocked(id, ok)
}

// GetUserByToken retrieves the user holding the given session token.
func (m *MemoryStore) GetUserByToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byToken[token]
	return m.userLocked(id, ok)
}

func (m *MemoryStore) userLocked(id int64, ok bool) (*User, error) {
	if !ok {
		return nil, ErrUserNotFound
	}
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	c := *u
	return &c, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
