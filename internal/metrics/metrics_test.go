// ABOUTME: Tests for the Prometheus collectors and request middleware
// ABOUTME: Reads values back through testutil and the exposition handler

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionGauge(t *testing.T) {
	m := New()

	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.connections))
}

func TestBroadcastCounters(t *testing.T) {
	m := New()

	m.MessageBroadcast("todos")
	m.MessageBroadcast("todos")
	m.MessageBroadcast("todo-deleted")
	m.SendFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.broadcasts.WithLabelValues("todos")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.broadcasts.WithLabelValues("todo-deleted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sendFailures))
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/detail-todo/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	for _, path := range []string{"/detail-todo/1", "/detail-todo/2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/detail-todo/{id}", "401"))
	assert.Equal(t, 2.0, got)
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.ConnectionOpened()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "todo_board_websocket_connections 1")
	assert.Contains(t, string(body), "go_goroutines")
}
