// ABOUTME: Tests for the todo-board command line
// ABOUTME: Drives the urfave/cli app with temp config files and captured output

package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/todo-board/internal/config"
	"github.com/2389/todo-board/internal/store"
)

func init() {
	color.NoColor = true
}

func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &out
	app.ErrWriter = &out
	err := app.RunContext(context.Background(), append([]string{"todo-board"}, args...))
	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestColorHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newColorHandler(&buf, slog.LevelInfo))

	logger.Debug("hidden")
	logger.With("component", "server").WithGroup("req").Info("served", "status", 200)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INF served")
	assert.Contains(t, out, "component=server")
	assert.Contains(t, out, "req.status=200")
}

func TestUserAdd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "todos.db")
	cfgPath := writeConfig(t, "database:\n  driver: sqlite\n  dsn: \""+dbPath+"\"\n")

	out, err := runApp(t, "", "--config", cfgPath, "useradd", "--password", "s3cret", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user: alice")
	assert.Contains(t, out, "Token: ")

	s, err := store.NewSQLStore(store.DriverSQLite, dbPath)
	require.NoError(t, err)
	defer s.Close()
	user, err := s.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Contains(t, out, user.Token)

	_, err = runApp(t, "", "--config", cfgPath, "useradd", "--password", "other", "alice")
	assert.ErrorContains(t, err, "already exists")
}

func TestUserAdd_PasswordFromStdin(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "todos.db")
	cfgPath := writeConfig(t, "database:\n  dsn: \""+dbPath+"\"\n")

	out, err := runApp(t, "hunter2\n", "--config", cfgPath, "useradd", "bob")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user: bob")
}

func TestUserAdd_RequiresUsername(t *testing.T) {
	cfgPath := writeConfig(t, "database:\n  driver: memory\n")

	_, err := runApp(t, "", "--config", cfgPath, "useradd", "--password", "pw")
	assert.ErrorContains(t, err, "username argument is required")
}

func TestHealth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health/ready" {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("store unavailable"))
			return
		}
		_, _ = w.Write([]byte("OK"))
	}))
	defer ts.Close()

	addr := strings.TrimPrefix(ts.URL, "http://")
	cfgPath := writeConfig(t, "server:\n  http_addr: \""+addr+"\"\ndatabase:\n  driver: memory\n")

	out, err := runApp(t, "", "--config", cfgPath, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "OK")

	_, err = runApp(t, "", "--config", cfgPath, "health", "--ready")
	assert.ErrorContains(t, err, "status 503")
}

func TestInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.yaml")
	answers := strings.Join([]string{
		target,           // config path
		"127.0.0.1:4000", // http addr
		"memory",         // driver
		"no",             // tailscale
		"debug",          // log level
		"json",           // log format
	}, "\n") + "\n"

	out, err := runApp(t, answers, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Config written to "+target)

	cfg, err := config.Load(target)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:4000", cfg.Server.HTTPAddr)
	assert.Equal(t, config.DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Tailscale.Enabled)
}
