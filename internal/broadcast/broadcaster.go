// ABOUTME: Pushes re-rendered todo state to every registered connection after a mutation
// ABOUTME: Best effort: render and send failures are logged and never reach the caller

package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/2389/todo-board/internal/store"
)

// Message types sent over the real-time channel.
const (
	TypeTodos       = "todos"
	TypeTodo        = "todo"
	TypeTodoDeleted = "todo-deleted"
)

// Message is the JSON frame pushed to clients.
type Message struct {
	Type string `json:"type"`
	ID   int64  `json:"id,omitempty"`
	HTML string `json:"html,omitempty"`
}

// TodoSource reads the todos to render.
type TodoSource interface {
	ListTodos(ctx context.Context, filter store.TodoFilter) ([]*store.Todo, error)
	GetTodo(ctx context.Context, id int64) (*store.Todo, error)
}

// Renderer turns todos into HTML fragments.
type Renderer interface {
	TodoList(todos []*store.Todo) ([]byte, error)
	TodoDetail(todo *store.Todo) ([]byte, error)
}

// Broadcaster fans messages out to every connection in a Registry.
//
// Every connection receives the same unscoped list, private todos included.
// There is no per-connection view of the board.
type Broadcaster struct {
	registry *Registry
	todos    TodoSource
	renderer Renderer
	logger   *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(registry *Registry, todos TodoSource, renderer Renderer, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		registry: registry,
		todos:    todos,
		renderer: renderer,
		logger:   logger.With("component", "broadcaster"),
	}
}

// BroadcastTodoList renders the full list once and sends it to every connection.
func (b *Broadcaster) BroadcastTodoList(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	todos, err := b.todos.ListTodos(ctx, store.TodoFilter{IncludeAll: true})
	if err != nil {
		b.logger.Error("listing todos for broadcast", "error", err)
		return
	}

	html, err := b.renderer.TodoList(todos)
	if err != nil {
		b.logger.Error("rendering todo list for broadcast", "error", err)
		return
	}

	b.send(ctx, Message{Type: TypeTodos, HTML: string(html)})
}

// BroadcastTodo sends the refreshed detail fragment of one todo.
func (b *Broadcaster) BroadcastTodo(ctx context.Context, id int64) {
	ctx = context.WithoutCancel(ctx)

	todo, err := b.todos.GetTodo(ctx, id)
	if err != nil {
		b.logger.Error("loading todo for broadcast", "todo_id", id, "error", err)
		return
	}

	html, err := b.renderer.TodoDetail(todo)
	if err != nil {
		b.logger.Error("rendering todo for broadcast", "todo_id", id, "error", err)
		return
	}

	b.send(ctx, Message{Type: TypeTodo, ID: id, HTML: string(html)})
}

// BroadcastTodoDeleted announces that a todo no longer exists.
func (b *Broadcaster) BroadcastTodoDeleted(ctx context.Context, id int64) {
	b.send(context.WithoutCancel(ctx), Message{Type: TypeTodoDeleted, ID: id})
}

// send delivers msg to a snapshot of the registry. A connection that fails,
// including one too far behind to queue another frame, is unregistered and
// closed; delivery to the rest continues.
func (b *Broadcaster) send(ctx context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("encoding broadcast message", "type", msg.Type, "error", err)
		return
	}

	targets := b.registry.Snapshot()
	b.registry.metrics.MessageBroadcast(msg.Type)

	for _, c := range targets {
		if err := c.Send(ctx, data); err != nil {
			b.logger.Warn("dropping connection after failed send",
				"conn_id", c.ID(),
				"type", msg.Type,
				"error", err)
			b.registry.metrics.SendFailed()
			if b.registry.Unregister(c) {
				_ = c.Close()
			}
		}
	}

	b.logger.Debug("broadcast sent", "type", msg.Type, "connections", len(targets))
}
