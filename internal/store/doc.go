// Package store provides persistent storage for users and todos.
//
// # Backends
//
// Store is implemented twice:
//
//   - SQLStore: database/sql over one of three drivers, selected by name
//   - MemoryStore: in-process maps guarded by a RWMutex, nothing persisted
//
// SQLStore drivers:
//
//   - sqlite: modernc.org/sqlite (pure Go, the default)
//   - sqlite3: github.com/mattn/go-sqlite3 (cgo)
//   - pgx: github.com/jackc/pgx/v5/stdlib (PostgreSQL)
//
// Queries are written once with ? placeholders and rebound to $n for pgx.
// The SQLite drivers run with:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// # Data Models
//
//   - User: account with a bcrypt password hash and an opaque session token
//   - Todo: title, done flag, optional deadline and optional owner
//
// Timestamps are stored as RFC3339 text in UTC. Deadlines are stored as the
// text the user submitted.
//
// # Error Handling
//
//   - ErrNotFound: todo does not exist
//   - ErrUserNotFound: user does not exist
//   - ErrUsernameExists: username is taken
//   - ErrEmptyTitle: title is empty after trimming
//
// All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewMemoryStore() for handler tests and NewSQLStore("sqlite", path)
// with a t.TempDir() path for integration tests against real SQLite.
package store
