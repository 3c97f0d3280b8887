// ABOUTME: Handlers for listing, creating and changing todos
// ABOUTME: Each mutation checks the access policy, writes the store, then broadcasts

package webui

import (
	"fmt"
	"net/http"

	"github.com/2389/todo-board/internal/auth"
	"github.com/2389/todo-board/internal/policy"
	"github.com/2389/todo-board/internal/render"
	"github.com/2389/todo-board/internal/store"
)

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	filter := store.TodoFilter{Done: doneFilter(r)}
	if identity != nil {
		id := identity.ID
		filter.OwnerID = &id
	}

	todos, err := h.todos.ListTodos(r.Context(), filter)
	if err != nil {
		h.renderError(w, r, fmt.Errorf("listing todos: %w", err))
		return
	}

	h.renderPage(w, http.StatusOK, render.PageIndex, render.IndexPage{
		Page:  h.page(r, indexPageTitle),
		Todos: todos,
		Done:  filter.Done,
	})
}

func (h *Handler) handleNewTodo(w http.ResponseWriter, r *http.Request) {
	in, err := parseNewTodo(w, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	if err := policy.AuthorizeCreate(in.Private, identity); err != nil {
		h.renderError(w, r, err)
		return
	}

	todo, err := h.todos.CreateTodo(r.Context(), in.toStore(identity))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.logger.Debug("todo created", "todo_id", todo.ID, "private", !todo.IsPublic())
	h.notifier.BroadcastTodoList(r.Context())

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// authorizedTodo loads the todo named by the {id} path parameter and checks
// that the request identity may perform action on it.
func (h *Handler) authorizedTodo(r *http.Request, action policy.Action) (*store.Todo, error) {
	id, err := todoID(r)
	if err != nil {
		return nil, err
	}

	todo, err := h.todos.GetTodo(r.Context(), id)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(action, todo, auth.IdentityFromContext(r.Context())); err != nil {
		return nil, err
	}
	return todo, nil
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	todo, err := h.authorizedTodo(r, policy.ActionView)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.renderPage(w, http.StatusOK, render.PageDetail, render.DetailPage{
		Page: h.page(r, todo.Title),
		Todo: todo,
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	in, err := parseTitle(w, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	todo, err := h.authorizedTodo(r, policy.ActionUpdate)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if _, err := h.todos.UpdateTodoTitle(r.Context(), todo.ID, in.Title); err != nil {
		h.renderError(w, r, err)
		return
	}

	h.notifier.BroadcastTodoList(r.Context())
	h.notifier.BroadcastTodo(r.Context(), todo.ID)

	redirectBack(w, r)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	todo, err := h.authorizedTodo(r, policy.ActionToggle)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if _, err := h.todos.ToggleTodoDone(r.Context(), todo.ID); err != nil {
		h.renderError(w, r, err)
		return
	}

	h.notifier.BroadcastTodoList(r.Context())
	h.notifier.BroadcastTodo(r.Context(), todo.ID)

	redirectBack(w, r)
}

// handleRemove checks existence and ownership before deleting. The two steps
// are not atomic; a concurrent delete between them surfaces as not found.
func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	todo, err := h.authorizedTodo(r, policy.ActionDelete)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if err := h.todos.DeleteTodo(r.Context(), todo.ID); err != nil {
		h.renderError(w, r, err)
		return
	}

	h.logger.Debug("todo deleted", "todo_id", todo.ID)
	h.notifier.BroadcastTodoList(r.Context())
	h.notifier.BroadcastTodoDeleted(r.Context(), todo.ID)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
