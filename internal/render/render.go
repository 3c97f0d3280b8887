// ABOUTME: HTML rendering for pages and live-update fragments
// ABOUTME: Loads templates from the embedded filesystem; every render is a pure function of its input

package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/yuin/goldmark"

	"github.com/2389/todo-board/internal/assets"
	"github.com/2389/todo-board/internal/store"
)

//go:embed templates/*.html templates/partials/*.html
var templateFS embed.FS

// Page names accepted by Renderer.Page.
const (
	PageIndex    = "index.html"
	PageDetail   = "detail.html"
	PageRegister = "register.html"
	PageLogin    = "login.html"
	PageError    = "error.html"
	PageNotFound = "notfound.html"
)

var pageNames = []string{PageIndex, PageDetail, PageRegister, PageLogin, PageError, PageNotFound}

// DeadlineLayout is how deadlines that parse as a date and time are shown.
const DeadlineLayout = "2006-01-02 15:04"

// deadlineLayouts are the stored forms shown as DeadlineLayout. Anything else
// is shown as stored.
var deadlineLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// Page is the data every full page receives.
type Page struct {
	Title string
	User  *store.User
}

// IndexPage is the data for the todo list page.
type IndexPage struct {
	Page
	Todos []*store.Todo
	Done  *bool // active done filter, nil for all
}

// Filter names the active done filter: "all", "open" or "done".
func (p IndexPage) Filter() string {
	switch {
	case p.Done == nil:
		return "all"
	case *p.Done:
		return "done"
	default:
		return "open"
	}
}

// DetailPage is the data for a single todo.
type DetailPage struct {
	Page
	Todo *store.Todo
}

// FormPage is the data for the login and register forms.
type FormPage struct {
	Page
	Username string
	Error    string
}

// ErrorPage is the data for error responses.
type ErrorPage struct {
	Page
	Message string
}

// Renderer holds the parsed templates.
type Renderer struct {
	pages     map[string]*template.Template
	fragments *template.Template
}

// New parses every embedded template.
func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}

	fragments, err := template.New("fragments").Funcs(funcs).ParseFS(templateFS, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing partials: %w", err)
	}
	r.fragments = fragments

	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/partials/*.html",
			"templates/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}

	return r, nil
}

// MustNew is like New but panics on a template error.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Page writes a full HTML page. data must be the matching *Page type.
func (r *Renderer) Page(w io.Writer, name string, data any) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// TodoList renders the list fragment that replaces the #todos container.
func (r *Renderer) TodoList(todos []*store.Todo) ([]byte, error) {
	return r.fragment("todos", todos)
}

// TodoDetail renders the fragment that replaces a #todo-{id} container.
func (r *Renderer) TodoDetail(todo *store.Todo) ([]byte, error) {
	return r.fragment("todo", todo)
}

func (r *Renderer) fragment(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

var funcs = template.FuncMap{
	"markdown": markdown,
	"deadline": formatDeadline,
	"asset":    assets.URL,
}

// markdown converts a todo title to HTML. Raw HTML in the source is dropped
// by goldmark's default renderer.
func markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

func formatDeadline(raw string) string {
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(DeadlineLayout)
		}
	}
	return raw
}
