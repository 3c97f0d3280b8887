// ABOUTME: Browser-facing HTTP handlers for the todo board
// ABOUTME: Wires routes, resolves identity, renders pages and maps errors to status codes

package webui

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/2389/todo-board/internal/auth"
	"github.com/2389/todo-board/internal/policy"
	"github.com/2389/todo-board/internal/render"
	"github.com/2389/todo-board/internal/store"
)

// User-facing messages and page titles.
const (
	msgEmptyTitle     = "Enter a todo title!"
	msgInvalidForm    = "Invalid form data"
	msgMissingFields  = "Enter a username and password!"
	msgUsernameTaken  = "That username is already taken!"
	msgLoginFailed    = "Incorrect username or password!"
	msgInternal       = "Something went wrong. Please try again."
	registerPageTitle = "Register"
	loginPageTitle    = "Log in"
	indexPageTitle    = "Todos"
	errorPageTitle    = "Error"
	notFoundPageTitle = "Not found"
)

// TodoStore is the subset of store.Store the handlers use.
type TodoStore interface {
	ListTodos(ctx context.Context, filter store.TodoFilter) ([]*store.Todo, error)
	CreateTodo(ctx context.Context, todo store.NewTodo) (*store.Todo, error)
	GetTodo(ctx context.Context, id int64) (*store.Todo, error)
	UpdateTodoTitle(ctx context.Context, id int64, title string) (*store.Todo, error)
	ToggleTodoDone(ctx context.Context, id int64) (*store.Todo, error)
	DeleteTodo(ctx context.Context, id int64) error
}

// Accounts creates and resolves users; *auth.Credentials implements it.
type Accounts interface {
	CreateUser(ctx context.Context, username, password string) (*store.User, error)
	GetUserByPassword(ctx context.Context, username, password string) (*store.User, error)
	GetUserByToken(ctx context.Context, token string) (*store.User, error)
}

// Notifier pushes changes to live clients; *broadcast.Broadcaster implements it.
type Notifier interface {
	BroadcastTodoList(ctx context.Context)
	BroadcastTodo(ctx context.Context, id int64)
	BroadcastTodoDeleted(ctx context.Context, id int64)
}

// Config holds handler settings.
type Config struct {
	// SecureCookies marks the token cookie Secure even on plain HTTP requests,
	// for deployments behind a TLS-terminating proxy.
	SecureCookies bool
}

// Handler serves the todo board pages and form actions.
type Handler struct {
	todos    TodoStore
	accounts Accounts
	notifier Notifier
	renderer *render.Renderer
	config   Config
	logger   *slog.Logger
}

// New creates the handlers. Pass nil logger for default.
func New(todos TodoStore, accounts Accounts, notifier Notifier, renderer *render.Renderer, cfg Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		todos:    todos,
		accounts: accounts,
		notifier: notifier,
		renderer: renderer,
		config:   cfg,
		logger:   logger.With("component", "webui"),
	}
}

// RegisterRoutes adds the board routes to r. Every route resolves the request
// identity from the token cookie. Unmatched paths render the not found page.
func (h *Handler) RegisterRoutes(r chi.Router) {
	identity := auth.IdentityMiddleware(h.accounts, h.logger)

	r.Group(func(r chi.Router) {
		r.Use(identity)

		r.Get("/", h.handleIndex)
		r.Post("/new-todo", h.handleNewTodo)
		r.Get("/detail-todo/{id}", h.handleDetail)
		r.Post("/update-todo/{id}", h.handleUpdate)
		r.Get("/toggle-todo/{id}", h.handleToggle)
		r.Get("/remove-todo/{id}", h.handleRemove)

		r.Get("/register", h.handleRegisterPage)
		r.Post("/register", h.handleRegister)
		r.Get("/login", h.handleLoginPage)
		r.Post("/login", h.handleLogin)
		r.Get("/logout", h.handleLogout)
	})

	notFound := identity(http.HandlerFunc(h.handleNotFound)).ServeHTTP
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)
}

// Routes returns a standalone router serving only the board routes.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// renderPage renders into a buffer first so a template failure can still become a 500.
func (h *Handler) renderPage(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.renderer.Page(&buf, name, data); err != nil {
		h.logger.Error("failed to render page", "page", name, "error", err)
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) page(r *http.Request, title string) render.Page {
	return render.Page{Title: title, User: auth.IdentityFromContext(r.Context())}
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, http.StatusNotFound, render.PageNotFound, h.page(r, notFoundPageTitle))
}

func (h *Handler) renderMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.renderPage(w, status, render.PageError, render.ErrorPage{
		Page:    h.page(r, errorPageTitle),
		Message: message,
	})
}

// renderError maps an error to its HTTP response.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	var denial *policy.Denial

	switch {
	case errors.As(err, &denial):
		// Both denial kinds answer 401
		h.renderMessage(w, r, http.StatusUnauthorized, denial.Message)
	case errors.Is(err, store.ErrNotFound):
		h.handleNotFound(w, r)
	case errors.Is(err, store.ErrEmptyTitle):
		h.renderMessage(w, r, http.StatusBadRequest, msgEmptyTitle)
	case errors.Is(err, errInvalidForm):
		h.renderMessage(w, r, http.StatusBadRequest, msgInvalidForm)
	default:
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		h.renderMessage(w, r, http.StatusInternalServerError, msgInternal)
	}
}

// todoID parses the {id} path parameter. Anything but a positive integer is
// reported as store.ErrNotFound, the same as an unknown id.
func todoID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, store.ErrNotFound
	}
	return id, nil
}

// redirectBack sends the browser to the referring page when it is on this
// site, and to the list otherwise.
func redirectBack(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" {
		sameSite := ref.Host == "" || strings.EqualFold(ref.Host, r.Host)
		if sameSite && strings.HasPrefix(ref.Path, "/") && !strings.HasPrefix(ref.Path, "//") {
			target = ref.RequestURI()
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
