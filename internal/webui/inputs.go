// ABOUTME: Typed form and query inputs for the board handlers
// ABOUTME: Parses request bodies once and turns raw fields into domain values

package webui

import (
	"errors"
	"net/http"
	"strings"

	"github.com/2389/todo-board/internal/store"
)

// maxFormBytes caps request bodies for the form endpoints.
const maxFormBytes = 64 << 10

var errInvalidForm = errors.New("invalid form data")

// newTodoInput is the body of POST /new-todo.
type newTodoInput struct {
	Title    string
	Deadline string // kept as submitted
	Private  bool
}

// titleInput is the body of POST /update-todo/{id}.
type titleInput struct {
	Title string
}

// credentialsInput is the body of POST /register and POST /login.
type credentialsInput struct {
	Username string
	Password string
}

func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return errInvalidForm
	}
	return nil
}

func parseNewTodo(w http.ResponseWriter, r *http.Request) (newTodoInput, error) {
	if err := parseForm(w, r); err != nil {
		return newTodoInput{}, err
	}
	return newTodoInput{
		Title:    r.PostFormValue("title"),
		Deadline: strings.TrimSpace(r.PostFormValue("deadline")),
		Private:  r.PostFormValue("private") == "true",
	}, nil
}

func parseTitle(w http.ResponseWriter, r *http.Request) (titleInput, error) {
	if err := parseForm(w, r); err != nil {
		return titleInput{}, err
	}
	return titleInput{Title: r.PostFormValue("title")}, nil
}

func parseCredentials(w http.ResponseWriter, r *http.Request) (credentialsInput, error) {
	if err := parseForm(w, r); err != nil {
		return credentialsInput{}, err
	}
	return credentialsInput{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}, nil
}

// doneFilter reads the done query parameter. Missing or empty means no filter;
// any other value filters on done == (value == "true").
func doneFilter(r *http.Request) *bool {
	raw := r.URL.Query().Get("done")
	if raw == "" {
		return nil
	}
	done := raw == "true"
	return &done
}

func (in newTodoInput) toStore(owner *store.User) store.NewTodo {
	todo := store.NewTodo{Title: in.Title, Deadline: in.Deadline}
	if in.Private && owner != nil {
		id := owner.ID
		todo.OwnerID = &id
	}
	return todo
}
