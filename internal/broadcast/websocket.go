// ABOUTME: WebSocket endpoint that registers browsers for live updates
// ABOUTME: Each connection has a bounded send queue drained by its own writer goroutine

package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// pongWait is how long a silent client is kept before its read deadline expires
	pongWait = 60 * time.Second

	// pingInterval must be shorter than pongWait
	pingInterval = 25 * time.Second

	// maxMessageSize bounds client frames; clients have nothing to say
	maxMessageSize = 512

	// sendBufferSize is how many frames may queue for a client before it is dropped
	sendBufferSize = 16

	defaultWriteTimeout = 10 * time.Second
)

var (
	errConnClosed     = errors.New("connection closed")
	errSendBufferFull = errors.New("send buffer full")
)

// wsConn adapts a gorilla connection to Conn. Frames are queued by Send and
// written by writeLoop, which owns the connection's write side.
type wsConn struct {
	id           string
	conn         *websocket.Conn
	writeTimeout time.Duration

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newWSConn(conn *websocket.Conn, writeTimeout time.Duration) *wsConn {
	return &wsConn{
		id:           uuid.New().String(),
		conn:         conn,
		writeTimeout: writeTimeout,
		send:         make(chan []byte, sendBufferSize),
		done:         make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

// Send queues one text frame without blocking. A client that has fallen
// sendBufferSize frames behind gets errSendBufferFull.
func (c *wsConn) Send(_ context.Context, data []byte) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// writeLoop writes queued frames and keepalive pings, each bounded by the
// write timeout. A failed write closes the connection, which ends the read loop.
func (c *wsConn) writeLoop(logger *slog.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debug("write failed", "conn_id", c.id, "error", err)
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout)); err != nil {
				logger.Debug("ping failed", "conn_id", c.id, "error", err)
				_ = c.Close()
				return
			}
		}
	}
}

// HandlerOptions configures the WebSocket endpoint.
type HandlerOptions struct {
	// WriteTimeout bounds every frame written to a client. Zero means 10s.
	WriteTimeout time.Duration
	// AllowedOrigins are accepted in addition to same-host origins.
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Handler upgrades requests to WebSocket connections and keeps them registered until they close.
type Handler struct {
	registry     *Registry
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	logger       *slog.Logger
}

// NewHandler creates the WebSocket endpoint for registry.
func NewHandler(registry *Registry, opts HandlerOptions) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	allowed := make(map[string]bool, len(opts.AllowedOrigins))
	for _, o := range opts.AllowedOrigins {
		allowed[strings.ToLower(strings.TrimRight(o, "/"))] = true
	}

	return &Handler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return checkOrigin(r, allowed)
			},
		},
		writeTimeout: writeTimeout,
		logger:       logger.With("component", "websocket"),
	}
}

// checkOrigin accepts requests without an Origin header, same-host origins
// and explicitly allowed origins.
func checkOrigin(r *http.Request, allowed map[string]bool) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if allowed[strings.ToLower(origin)] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := newWSConn(ws, h.writeTimeout)
	if !h.registry.Register(c) {
		c.Close()
		return
	}
	h.logger.Info("connection opened", "conn_id", c.ID(), "remote", r.RemoteAddr)

	defer func() {
		h.registry.Unregister(c)
		c.Close()
		h.logger.Info("connection closed", "conn_id", c.ID())
	}()

	go c.writeLoop(h.logger)

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Client frames are discarded; reading drives pong and close handling
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.logger.Debug("websocket read error", "conn_id", c.ID(), "error", err)
			}
			return
		}
	}
}
