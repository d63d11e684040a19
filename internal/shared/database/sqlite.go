// Package database opens the SQLite database shared by all repositories.
// It uses modernc.org/sqlite (pure Go, no CGO) through sqlx.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/samber/oops"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const busyTimeoutMs = 5000

var schema = []string{
	`CREATE TABLE IF NOT EXISTS channels (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL UNIQUE,
		chat_id     TEXT NOT NULL UNIQUE,
		interval    INTEGER NOT NULL DEFAULT 240,
		parse_mode  TEXT NOT NULL DEFAULT 'html',
		active      BOOLEAN NOT NULL DEFAULT 0,
		source_dir  TEXT NOT NULL UNIQUE,
		done_dir    TEXT NOT NULL UNIQUE,
		except_dir  TEXT NOT NULL UNIQUE,
		created_at  DATETIME NOT NULL,
		updated_at  DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		channel_id  INTEGER NOT NULL,
		group_key   TEXT NOT NULL,
		text        TEXT NOT NULL DEFAULT '',
		files       TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL,
		error       TEXT NOT NULL DEFAULT '',
		created_at  DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_channel ON posts(channel_id, created_at)`,
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, oops.With("dir", dir, "context", "failed to create database directory").Wrap(err)
		}
	}

	// Times are written as "2006-01-02 15:04:05.999999999-07:00" so that
	// UTC values compare correctly as text.
	db, err := sqlx.ConnectContext(ctx, "sqlite", path+"?_time_format=sqlite")
	if err != nil {
		return nil, oops.With("database_path", path, "context", "failed to open database").Wrap(err)
	}

	// SQLite handles one writer at a time; a single connection keeps
	// PRAGMAs and :memory: databases consistent.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMs),
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, oops.With("pragma", p).Wrap(err)
		}
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	slog.Debug("Database ready", "path", path)
	return db, nil
}

// Migrate creates missing tables.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return oops.With("context", "failed to apply schema").Wrap(err)
		}
	}
	return nil
}

// Drop removes every table. Used by the debug teardown on shutdown.
func Drop(ctx context.Context, db *sqlx.DB) error {
	for _, table := range []string{"posts", "users", "channels"} {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return oops.With("table", table).Wrap(err)
		}
	}
	return nil
}
