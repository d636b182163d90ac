package store

import (
	"context"
	"database/sql"
	"fmt"
)

// baseSchema creates every table the core needs if it doesn't already
// exist. Column defaults mirror spec.md §4.1's "character_id='default',
// tier='ephemeral'" migration guidance, applied here at create time.
// Databases created by an older version get missing columns through
// addColumnIfMissing, which adds only what futureColumns lists.
const baseSchema = `
CREATE TABLE IF NOT EXISTS memories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	character_id TEXT NOT NULL DEFAULT 'default',
	content TEXT NOT NULL,
	embedding BLOB,
	created_at INTEGER NOT NULL,
	importance REAL NOT NULL DEFAULT 0.5,
	tier TEXT NOT NULL DEFAULT 'ephemeral',
	consolidated_from TEXT
);

CREATE INDEX IF NOT EXISTS idx_memories_character ON memories(character_id);

CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
	content,
	content='memories',
	content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS memories_ai AFTER INSERT ON memories BEGIN
	INSERT INTO memories_fts(rowid, content) VALUES (new.id, new.content);
END;

CREATE TRIGGER IF NOT EXISTS memories_ad AFTER DELETE ON memories BEGIN
	INSERT INTO memories_fts(memories_fts, rowid, content) VALUES ('delete', old.id, old.content);
END;

CREATE TRIGGER IF NOT EXISTS memories_au AFTER UPDATE ON memories BEGIN
	INSERT INTO memories_fts(memories_fts, rowid, content) VALUES ('delete', old.id, old.content);
	INSERT INTO memories_fts(rowid, content) VALUES (new.id, new.content);
END;

CREATE TABLE IF NOT EXISTS conversations (
	id TEXT PRIMARY KEY,
	character_id TEXT NOT NULL DEFAULT 'default',
	title TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversations_character ON conversations(character_id);

CREATE TABLE IF NOT EXISTS conversation_messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	metadata TEXT,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON conversation_messages(conversation_id, id);

CREATE TABLE IF NOT EXISTS session_summaries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	character_id TEXT NOT NULL DEFAULT 'default',
	summary TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_summaries_character ON session_summaries(character_id, created_at DESC);

CREATE TABLE IF NOT EXISTS emotion_snapshots (
	character_id TEXT PRIMARY KEY,
	emotion TEXT NOT NULL DEFAULT 'neutral',
	mood REAL NOT NULL DEFAULT 0.5,
	accumulated_inertia REAL NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL
);
`

// columnSpec is one additive migration: a column that must exist on table,
// with the DDL fragment to add it (including any default clause) if
// missing. Idempotent "add column if missing" per spec.md §4.1.
type columnSpec struct {
	table  string
	column string
	ddl    string
}

// futureColumns lists columns that later schema revisions might add.
// Empty today — the base schema above already covers every field in
// types.go — so migrate never calls addColumnIfMissing today; it is kept
// ready for the additive-migration discipline the teacher's memory migrations
// package documents.
var futureColumns []columnSpec

func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, baseSchema); err != nil {
		return fmt.Errorf("apply base schema: %w", err)
	}
	for _, col := range futureColumns {
		if err := addColumnIfMissing(ctx, db, col); err != nil {
			return fmt.Errorf("migrate %s.%s: %w", col.table, col.column, err)
		}
	}
	return nil
}

func addColumnIfMissing(ctx context.Context, db *sql.DB, col columnSpec) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", col.table))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notnull    int
			dfltValue  sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if name == col.column {
			return nil // already present
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", col.table, col.ddl))
	return err
}

// RebuildFTS rebuilds the full-text index from the current contents of
// memories with FTS5's 'rebuild' command, satisfying spec.md §4.1's "rebuildable from
// scratch" requirement (e.g. after restoring a dump where triggers may
// not have run).
func (s *Store) RebuildFTS(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO memories_fts(memories_fts) VALUES ('rebuild')`)
	if err != nil {
		return fmt.Errorf("rebuild fts: %w", err)
	}
	return nil
}
