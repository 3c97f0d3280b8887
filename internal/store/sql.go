// ABOUTME: database/sql implementation of the Store interface
// ABOUTME: Supports SQLite (modernc and mattn drivers) and PostgreSQL via pgx with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names accepted by NewSQLStore. They match the database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverSQLite3  = "sqlite3"
	DriverPostgres = "pgx"
)

// dialect captures what differs between the supported databases
type dialect struct {
	pragmas      []string
	schema       []string
	numbered     bool // placeholders are $1, $2, ... instead of ?
	columnExists string
}

var sqliteDialect = dialect{
	pragmas: []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	},
	schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			token         TEXT NOT NULL UNIQUE,
			created_at    TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS todos (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			title      TEXT NOT NULL,
			done       INTEGER NOT NULL DEFAULT 0,
			deadline   TEXT,
			user_id    INTEGER REFERENCES users(id),
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_todos_user_id ON todos(user_id)`,
	},
	columnExists: `SELECT 1 FROM pragma_table_info(?) WHERE name = ?`,
}

var postgresDialect = dialect{
	schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			token         TEXT NOT NULL UNIQUE,
			created_at    TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS todos (
			id         BIGSERIAL PRIMARY KEY,
			title      TEXT NOT NULL,
			done       BOOLEAN NOT NULL DEFAULT FALSE,
			deadline   TEXT,
			user_id    BIGINT REFERENCES users(id),
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_todos_user_id ON todos(user_id)`,
	},
	numbered:     true,
	columnExists: `SELECT 1 FROM information_schema.columns WHERE table_name = ? AND column_name = ?`,
}

// SQLStore implements the Store interface on top of database/sql
type SQLStore struct {
	db      *sql.DB
	driver  string
	dialect dialect
	logger  *slog.Logger
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore opens a database with the named driver and DSN.
// For the SQLite drivers the DSN is a file path; parent directories are
// created if needed. For pgx it is a PostgreSQL connection URL.
// The schema is automatically created if it doesn't exist.
func NewSQLStore(driver, dsn string) (*SQLStore, error) {
	logger := slog.Default().With("component", "store", "driver", driver)

	var d dialect
	switch driver {
	case DriverSQLite, DriverSQLite3:
		d = sqliteDialect
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
	case DriverPostgres:
		d = postgresDialect
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every pooled connection to :memory: would see its own empty database
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	for _, pragma := range d.pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	s := &SQLStore{
		db:      db,
		driver:  driver,
		dialect: d,
		logger:  logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("SQL store initialized")
	return s, nil
}

func ensureDir(path string) error {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	return nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLStore) createSchema() error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// runMigrations applies schema migrations for existing databases.
// These are idempotent - safe to run multiple times.
func (s *SQLStore) runMigrations() error {
	// Databases created before created_at was tracked
	migrations := []struct {
		table  string
		column string
		apply  string
	}{
		{
			table:  "todos",
			column: "created_at",
			apply:  `ALTER TABLE todos ADD COLUMN created_at TEXT NOT NULL DEFAULT ''`,
		},
		{
			table:  "users",
			column: "created_at",
			apply:  `ALTER TABLE users ADD COLUMN created_at TEXT NOT NULL DEFAULT ''`,
		},
	}

	for _, m := range migrations {
		var exists int
		err := s.db.QueryRow(s.rebind(s.dialect.columnExists), m.table, m.column).Scan(&exists)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking %s.%s: %w", m.table, m.column, err)
		}
		if _, err := s.db.Exec(m.apply); err != nil {
			return fmt.Errorf("adding %s column to %s: %w", m.column, m.table, err)
		}
		s.logger.Info("applied migration", "column", m.column, "table", m.table)
	}

	return nil
}

// rebind rewrites ? placeholders to $n for dialects that need it
func (s *SQLStore) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Ping verifies the database is reachable
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	s.logger.Info("closing SQL store")
	return s.db.Close()
}

// isUniqueConstraintError checks for a UNIQUE violation from any supported driver
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime accepts the empty string left behind by migrated rows
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
