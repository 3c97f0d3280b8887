// ABOUTME: Concurrency-safe registry of open real-time connections
// ABOUTME: Tracks membership only; broadcasts copy the set and send without holding the lock

package broadcast

import (
	"context"
	"log/slog"
	"sync"
)

// Conn is an open real-time connection.
type Conn interface {
	// ID uniquely identifies the connection within a registry.
	ID() string
	// Send delivers one text message.
	Send(ctx context.Context, data []byte) error
	Close() error
}

// Metrics receives connection and delivery counts. A nil Metrics is ignored.
type Metrics interface {
	ConnectionOpened()
	ConnectionClosed()
	MessageBroadcast(msgType string)
	SendFailed()
}

type noopMetrics struct{}

func (noopMetrics) ConnectionOpened()       {}
func (noopMetrics) ConnectionClosed()       {}
func (noopMetrics) MessageBroadcast(string) {}
func (noopMetrics) SendFailed()             {}

// Registry is the set of currently open connections.
type Registry struct {
	mu      sync.RWMutex
	conns   map[string]Conn
	closed  bool // set by CloseAll; later registrations are refused
	metrics Metrics
	logger  *slog.Logger
}

// NewRegistry creates an empty registry. Pass nil for default logger or no metrics.
func NewRegistry(logger *slog.Logger, metrics Metrics) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Registry{
		conns:   make(map[string]Conn),
		metrics: metrics,
		logger:  logger.With("component", "registry"),
	}
}

// Register adds a connection and reports whether it was added. Registering
// the same connection twice is a no-op. After CloseAll, c is closed and refused.
func (r *Registry) Register(c Conn) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = c.Close()
		r.logger.Debug("connection refused after shutdown", "conn_id", c.ID())
		return false
	}
	if _, exists := r.conns[c.ID()]; exists {
		r.mu.Unlock()
		return false
	}
	r.conns[c.ID()] = c
	n := len(r.conns)
	r.mu.Unlock()

	r.metrics.ConnectionOpened()
	r.logger.Debug("connection registered", "conn_id", c.ID(), "connections", n)
	return true
}

// Unregister removes a connection. It is safe to call for connections that
// were never registered or were already removed; it reports whether c was present.
func (r *Registry) Unregister(c Conn) bool {
	r.mu.Lock()
	if _, exists := r.conns[c.ID()]; !exists {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, c.ID())
	n := len(r.conns)
	r.mu.Unlock()

	r.metrics.ConnectionClosed()
	r.logger.Debug("connection unregistered", "conn_id", c.ID(), "connections", n)
	return true
}

// Len returns the number of open connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Snapshot returns the current members. The slice is safe to use after the
// registry changes.
func (r *Registry) Snapshot() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

// CloseAll closes and removes every connection. Used on shutdown; the
// registry accepts no connections afterwards.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	for _, c := range r.Snapshot() {
		if r.Unregister(c) {
			_ = c.Close()
		}
	}
}
