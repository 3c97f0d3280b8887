// ABOUTME: End-to-end tests for the WebSocket endpoint using a real gorilla client
// ABOUTME: Verifies registration, delivery of broadcasts and cleanup on disconnect

package broadcast

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// acceptedConn returns the server side of a fresh WebSocket connection.
func acceptedConn(t *testing.T) *websocket.Conn {
	t.Helper()
	accepted := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var up websocket.Upgrader
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		accepted <- ws
	}))
	t.Cleanup(srv.Close)

	dial(t, srv, nil)

	select {
	case ws := <-accepted:
		t.Cleanup(func() { ws.Close() })
		return ws
	case <-time.After(2 * time.Second):
		t.Fatal("server did not accept the connection")
		return nil
	}
}

func TestWSConn_SendQueuesWithoutBlocking(t *testing.T) {
	// No writer goroutine runs, so nothing drains the queue
	c := newWSConn(acceptedConn(t), time.Second)
	ctx := context.Background()

	for i := 0; i < sendBufferSize; i++ {
		require.NoError(t, c.Send(ctx, []byte("x")))
	}
	assert.ErrorIs(t, c.Send(ctx, []byte("x")), errSendBufferFull)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Send(ctx, []byte("x")), errConnClosed)
}

func TestBroadcast_StalledClientIsDroppedWithoutDelayingOthers(t *testing.T) {
	reg := NewRegistry(nil, nil)
	stalled := newWSConn(acceptedConn(t), time.Minute)
	healthy := newFakeConn("healthy")
	reg.Register(stalled)
	reg.Register(healthy)

	b := NewBroadcaster(reg, failingSource{}, nil, nil)

	start := time.Now()
	for i := 0; i <= sendBufferSize; i++ {
		b.BroadcastTodoDeleted(context.Background(), int64(i))
	}
	assert.Less(t, time.Since(start), time.Second)

	assert.Equal(t, 1, reg.Len())
	assert.Len(t, healthy.received(t), sendBufferSize+1)
	assert.ErrorIs(t, stalled.Send(context.Background(), nil), errConnClosed)
}

func TestHandler_DeliversBroadcasts(t *testing.T) {
	reg := NewRegistry(nil, nil)
	srv := httptest.NewServer(NewHandler(reg, HandlerOptions{WriteTimeout: time.Second}))
	defer srv.Close()

	client := dial(t, srv, nil)

	require.Eventually(t, func() bool { return reg.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	b := NewBroadcaster(reg, failingSource{}, nil, nil)
	b.BroadcastTodoDeleted(context.Background(), 3)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, client.ReadJSON(&msg))
	assert.Equal(t, TypeTodoDeleted, msg.Type)
	assert.Equal(t, int64(3), msg.ID)
}

func TestHandler_UnregistersOnClose(t *testing.T) {
	reg := NewRegistry(nil, nil)
	srv := httptest.NewServer(NewHandler(reg, HandlerOptions{}))
	defer srv.Close()

	client := dial(t, srv, nil)
	require.Eventually(t, func() bool { return reg.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	_ = client.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	client.Close()

	assert.Eventually(t, func() bool { return reg.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_ClosesConnectionsOpenedAfterCloseAll(t *testing.T) {
	reg := NewRegistry(nil, nil)
	srv := httptest.NewServer(NewHandler(reg, HandlerOptions{}))
	defer srv.Close()

	reg.CloseAll()

	client := dial(t, srv, nil)
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := client.ReadMessage()
	require.Error(t, err)

	var netErr net.Error
	assert.False(t, errors.As(err, &netErr) && netErr.Timeout(), "connection should be closed by the server, got %v", err)
	assert.Equal(t, 0, reg.Len())
}

func TestHandler_RejectsForeignOrigin(t *testing.T) {
	reg := NewRegistry(nil, nil)
	srv := httptest.NewServer(NewHandler(reg, HandlerOptions{}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, reg.Len())
}

func TestHandler_AllowsConfiguredOrigin(t *testing.T) {
	reg := NewRegistry(nil, nil)
	srv := httptest.NewServer(NewHandler(reg, HandlerOptions{
		AllowedOrigins: []string{"https://todo.example.com/"},
	}))
	defer srv.Close()

	dial(t, srv, http.Header{"Origin": []string{"https://todo.example.com"}})
	assert.Eventually(t, func() bool { return reg.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestCheckOrigin(t *testing.T) {
	allowed := map[string]bool{"https://ok.example.com": true}

	tests := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{"no origin", "", "localhost:3000", true},
		{"same host", "http://localhost:3000", "localhost:3000", true},
		{"allowed", "https://ok.example.com", "localhost:3000", true},
		{"foreign", "https://evil.example.com", "localhost:3000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, checkOrigin(r, allowed))
		})
	}
}
