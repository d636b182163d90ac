// Package store is the persistence layer for the conversational core: a
// single SQLite database holding memories (with an FTS5 mirror), chat
// history, session summaries, and per-character emotion snapshots.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps a SQLite connection pool. A single writer connection is
// enforced (SetMaxOpenConns(1)) the way the teacher's connector pins
// its vector store's pool size, since SQLite serializes writers anyway
// and a larger pool just trades busy-retries for connection overhead.
type Store struct {
	db *sql.DB
}

// Open creates or upgrades the database at path and returns a ready Store.
// Foreign keys and WAL journaling are enabled per-connection via DSN
// parameters, matching the teacher's habit of encoding pragmas in the
// connection string rather than issuing them post-open.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
