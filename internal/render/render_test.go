// ABOUTME: Tests for page and fragment rendering
// ABOUTME: Renders known todo lists and checks the produced HTML

package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/2389/todo-board/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTodos() []*store.Todo {
	owner := int64(1)
	return []*store.Todo{
		{ID: 1, Title: "Buy milk", Deadline: "2026-12-24T18:00"},
		{ID: 2, Title: "Water plants", Done: true},
		{ID: 3, Title: "Secret plan", OwnerID: &owner},
	}
}

func TestTodoList(t *testing.T) {
	r := MustNew()

	html, err := r.TodoList(sampleTodos())
	require.NoError(t, err)
	out := string(html)

	milk := strings.Index(out, "Buy milk")
	plants := strings.Index(out, "Water plants")
	secret := strings.Index(out, "Secret plan")
	require.True(t, milk >= 0 && plants >= 0 && secret >= 0, "all titles rendered:\n%s", out)
	assert.True(t, milk < plants && plants < secret, "todos keep their order")

	assert.Contains(t, out, `href="/detail-todo/1"`)
	assert.Contains(t, out, `href="/toggle-todo/2"`)
	assert.Contains(t, out, `href="/remove-todo/3"`)
	assert.Contains(t, out, "2026-12-24 18:00")
	assert.Contains(t, out, `<tr id="todo-row-2" class="done">`)
	assert.Equal(t, 1, strings.Count(out, `class="private"`))
}

func TestTodoList_Empty(t *testing.T) {
	r := MustNew()

	html, err := r.TodoList(nil)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Nothing to do.")
	assert.NotContains(t, string(html), "<table")
}

func TestTodoList_IsDeterministic(t *testing.T) {
	r := MustNew()

	a, err := r.TodoList(sampleTodos())
	require.NoError(t, err)
	b, err := r.TodoList(sampleTodos())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTodoList_EscapesTitles(t *testing.T) {
	r := MustNew()

	html, err := r.TodoList([]*store.Todo{{ID: 1, Title: `<script>alert("x")</script>`}})
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<script>")
	assert.Contains(t, string(html), "&lt;script&gt;")
}

func TestTodoDetail(t *testing.T) {
	r := MustNew()
	owner := int64(4)

	html, err := r.TodoDetail(&store.Todo{ID: 9, Title: "Read **the** manual", OwnerID: &owner})
	require.NoError(t, err)
	out := string(html)

	assert.Contains(t, out, "<strong>the</strong>")
	assert.Contains(t, out, "private")
	assert.Contains(t, out, `href="/toggle-todo/9"`)
	assert.NotContains(t, out, `class="deadline"`)
}

func TestFormatDeadline(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"2026-11-01T09:30", "2026-11-01 09:30"},
		{"2026-11-01T09:30:00", "2026-11-01 09:30"},
		{"2026-11-01T09:30:00Z", "2026-11-01 09:30"},
		{"2026-11-01 09:30", "2026-11-01 09:30"},
		{"2026-11-01", "2026-11-01"},
		{"tomorrow", "tomorrow"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDeadline(tt.raw), tt.raw)
	}
}

func TestTodoList_FreeTextDeadlineIsEscaped(t *testing.T) {
	r := MustNew()

	html, err := r.TodoList([]*store.Todo{{ID: 1, Title: "x", Deadline: "<b>soon</b>"}})
	require.NoError(t, err)
	assert.Contains(t, string(html), "&lt;b&gt;soon&lt;/b&gt;")
}

func TestTodoDetail_DropsRawHTML(t *testing.T) {
	r := MustNew()

	html, err := r.TodoDetail(&store.Todo{ID: 1, Title: `<img src=x onerror=alert(1)>`})
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<img")
}

func TestPage_Index(t *testing.T) {
	r := MustNew()
	done := true

	t.Run("anonymous", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.Page(&buf, PageIndex, IndexPage{
			Page:  Page{Title: "Todos"},
			Todos: sampleTodos()[:1],
		}))
		out := buf.String()

		assert.Contains(t, out, "<title>Todos | Todo Board</title>")
		assert.Contains(t, out, `<div id="todos">`)
		assert.Contains(t, out, "Buy milk")
		assert.Contains(t, out, `href="/login"`)
		assert.NotContains(t, out, `name="private"`)
		assert.Contains(t, out, `<a href="/" class="active">all</a>`)
		assert.Contains(t, out, `<link rel="stylesheet" href="/static/style.css?v=`)
		assert.Contains(t, out, `<script src="/static/live.js?v=`)
	})

	t.Run("signed in", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.Page(&buf, PageIndex, IndexPage{
			Page: Page{Title: "Todos", User: &store.User{ID: 1, Username: "alice"}},
			Done: &done,
		}))
		out := buf.String()

		assert.Contains(t, out, `<strong class="username">alice</strong>`)
		assert.Contains(t, out, `href="/logout"`)
		assert.Contains(t, out, `name="private"`)
		assert.Contains(t, out, `<a href="/?done=true" class="active">done</a>`)
	})
}

func TestPage_Detail(t *testing.T) {
	r := MustNew()

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, PageDetail, DetailPage{
		Page: Page{Title: "Buy milk"},
		Todo: &store.Todo{ID: 5, Title: "Buy milk"},
	}))
	out := buf.String()

	assert.Contains(t, out, `<div id="todo-5">`)
	assert.Contains(t, out, `action="/update-todo/5"`)
	assert.Contains(t, out, `value="Buy milk"`)
}

func TestPage_Forms(t *testing.T) {
	r := MustNew()

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, PageLogin, FormPage{
		Page:     Page{Title: "Log in"},
		Username: "alice",
		Error:    "Incorrect username or password!",
	}))
	assert.Contains(t, buf.String(), "Incorrect username or password!")
	assert.Contains(t, buf.String(), `value="alice"`)

	buf.Reset()
	require.NoError(t, r.Page(&buf, PageRegister, FormPage{Page: Page{Title: "Register"}}))
	assert.Contains(t, buf.String(), `action="/register"`)
	assert.NotContains(t, buf.String(), `class="error"`)
}

func TestPage_ErrorAndNotFound(t *testing.T) {
	r := MustNew()

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, PageError, ErrorPage{
		Page:    Page{Title: "Error"},
		Message: "You must log in to delete a private todo!",
	}))
	assert.Contains(t, buf.String(), "You must log in to delete a private todo!")

	buf.Reset()
	require.NoError(t, r.Page(&buf, PageNotFound, Page{Title: "Not found"}))
	assert.Contains(t, buf.String(), "does not exist")
}

func TestPage_Unknown(t *testing.T) {
	r := MustNew()
	err := r.Page(&bytes.Buffer{}, "missing.html", Page{})
	assert.Error(t, err)
}

func TestIndexPage_Filter(t *testing.T) {
	yes, no := true, false
	assert.Equal(t, "all", IndexPage{}.Filter())
	assert.Equal(t, "done", IndexPage{Done: &yes}.Filter())
	assert.Equal(t, "open", IndexPage{Done: &no}.Filter())
}
