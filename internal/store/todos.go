// ABOUTME: Todo persistence for SQLStore
// ABOUTME: List with visibility filters, create, title update, done toggle and delete

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const todoColumns = `id, title, done, deadline, user_id, created_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*Todo, error) {
	var todo Todo
	var deadline sql.NullString
	var ownerID sql.NullInt64
	var createdAtStr string

	if err := row.Scan(
		&todo.ID,
		&todo.Title,
		&todo.Done,
		&deadline,
		&ownerID,
		&createdAtStr,
	); err != nil {
		return nil, err
	}

	if deadline.Valid {
		todo.Deadline = deadline.String
	}
	if ownerID.Valid {
		id := ownerID.Int64
		todo.OwnerID = &id
	}

	var err error
	todo.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &todo, nil
}

// ListTodos returns the todos selected by filter, ordered by id.
func (s *SQLStore) ListTodos(ctx context.Context, filter TodoFilter) ([]*Todo, error) {
	var where []string
	var args []any

	if !filter.IncludeAll {
		if filter.OwnerID != nil {
			where = append(where, "(user_id IS NULL OR user_id = ?)")
			args = append(args, *filter.OwnerID)
		} else {
			where = append(where, "user_id IS NULL")
		}
	}
	if filter.Done != nil {
		where = append(where, "done = ?")
		args = append(args, *filter.Done)
	}

	query := `SELECT ` + todoColumns + ` FROM todos`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying todos: %w", err)
	}
	defer rows.Close()

	var todos []*Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning todo: %w", err)
		}
		todos = append(todos, todo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating todos: %w", err)
	}

	return todos, nil
}

// CreateTodo inserts a new todo with a trimmed title.
// Returns ErrEmptyTitle if nothing is left after trimming.
func (s *SQLStore) CreateTodo(ctx context.Context, in NewTodo) (*Todo, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}

	todo := &Todo{
		Title:     title,
		Deadline:  strings.TrimSpace(in.Deadline),
		OwnerID:   in.OwnerID,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	var deadline sql.NullString
	if todo.Deadline != "" {
		deadline = sql.NullString{String: todo.Deadline, Valid: true}
	}
	var ownerID sql.NullInt64
	if in.OwnerID != nil {
		ownerID = sql.NullInt64{Int64: *in.OwnerID, Valid: true}
	}

	query := `
		INSERT INTO todos (title, done, deadline, user_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`

	err = s.db.QueryRowContext(ctx, s.rebind(query),
		todo.Title,
		false,
		deadline,
		ownerID,
		formatTime(todo.CreatedAt),
	).Scan(&todo.ID)
	if err != nil {
		return nil, fmt.Errorf("inserting todo: %w", err)
	}

	s.logger.Debug("created todo", "id", todo.ID, "private", !todo.IsPublic())
	return todo, nil
}

// GetTodo retrieves a todo by ID.
// Returns ErrNotFound if the todo doesn't exist.
func (s *SQLStore) GetTodo(ctx context.Context, id int64) (*Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = ?`

	todo, err := scanTodo(s.db.QueryRowContext(ctx, s.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying todo: %w", err)
	}

	return todo, nil
}

// UpdateTodoTitle replaces the title of a todo.
// Returns ErrEmptyTitle or ErrNotFound.
func (s *SQLStore) UpdateTodoTitle(ctx context.Context, id int64, title string) (*Todo, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	if err := s.execOne(ctx, `UPDATE todos SET title = ? WHERE id = ?`, title, id); err != nil {
		return nil, fmt.Errorf("updating todo %d: %w", id, err)
	}

	s.logger.Debug("updated todo title", "id", id)
	return s.GetTodo(ctx, id)
}

// ToggleTodoDone flips the done flag of a todo in a single statement.
// Returns ErrNotFound if the todo doesn't exist.
func (s *SQLStore) ToggleTodoDone(ctx context.Context, id int64) (*Todo, error) {
	if err := s.execOne(ctx, `UPDATE todos SET done = NOT done WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("toggling todo %d: %w", id, err)
	}

	s.logger.Debug("toggled todo", "id", id)
	return s.GetTodo(ctx, id)
}

// DeleteTodo removes a todo.
// Returns ErrNotFound if the todo doesn't exist.
func (s *SQLStore) DeleteTodo(ctx context.Context, id int64) error {
	if err := s.execOne(ctx, `DELETE FROM todos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting todo %d: %w", id, err)
	}

	s.logger.Debug("deleted todo", "id", id)
	return nil
}

// execOne runs a statement that must touch exactly one row and maps zero rows to ErrNotFound
func (s *SQLStore) execOne(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}
