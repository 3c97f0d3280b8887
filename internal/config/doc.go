// Package config handles configuration loading for todo-board.
//
// # Sources
//
// Values are resolved in this order, later sources winning:
//
//  1. Defaults from env-default struct tags
//  2. The config file (YAML, or TOML when the name ends in .toml)
//  3. TODO_* environment variables
//
// A missing config file is not an error, so the server runs with no file at all.
//
// # Environment Variable Expansion
//
// File values can reference environment variables:
//
//	database:
//	  dsn: "${DATABASE_URL}"
//
// Unset variables expand to an empty string.
//
// # Configuration Sections
//
//	server:
//	  http_addr: "127.0.0.1:3000"
//	  shutdown_timeout: "5s"
//	  cors_allowed_origins: []
//
//	database:
//	  driver: "sqlite"   # sqlite, sqlite3, pgx, memory
//	  dsn: "./todos.db"  # file path, or postgres://... for pgx
//
//	web:
//	  secure_cookies: false
//	  ws_write_timeout: "10s"
//
//	tailscale:
//	  enabled: false
//	  hostname: "todo-board"
//	  auth_key: "${TS_AUTHKEY}"
//	  https: false
//	  funnel: false
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
//	metrics:
//	  enabled: false
//	  path: "/metrics"
//
// Durations use time.ParseDuration syntax.
//
// # Usage
//
//	cfg, err := config.Load("/etc/todo-board/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
