package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InsertMemory persists a new memory row and returns its assigned ID.
func (s *Store) InsertMemory(ctx context.Context, m Memory) (int64, error) {
	consolidated, err := encodeIDs(m.ConsolidatedFrom)
	if err != nil {
		return 0, fmt.Errorf("encode consolidated_from: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO memories (character_id, content, embedding, created_at, importance, tier, consolidated_from)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.CharacterID, m.Content, encodeEmbedding(m.Embedding), m.CreatedAt, m.Importance, string(m.Tier), consolidated,
	)
	if err != nil {
		return 0, fmt.Errorf("insert memory: %w", err)
	}
	return res.LastInsertId()
}

// GetMemory loads a single memory by ID.
func (s *Store) GetMemory(ctx context.Context, id int64) (Memory, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, character_id, content, embedding, created_at, importance, tier, consolidated_from
		FROM memories WHERE id = ?`, id)
	return scanMemory(row)
}

// ListMemories returns a page of memories for a character, ordered oldest
// first, for administrative/UI listing.
func (s *Store) ListMemories(ctx context.Context, characterID string, limit, offset int) ([]Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, character_id, content, embedding, created_at, importance, tier, consolidated_from
		FROM memories WHERE character_id = ? ORDER BY created_at ASC LIMIT ? OFFSET ?`, characterID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// CountMemories returns the number of memories held for a character,
// optionally filtered to a single tier when tier is non-empty.
func (s *Store) CountMemories(ctx context.Context, characterID string, tier Tier) (int, error) {
	var (
		n    int
		err  error
	)
	if tier == "" {
		err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM memories WHERE character_id = ?`, characterID).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM memories WHERE character_id = ? AND tier = ?`, characterID, string(tier)).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count memories: %w", err)
	}
	return n, nil
}

// TouchMemory refreshes a memory's created_at, used by dedup to keep a
// recognized duplicate's recency current without inserting a new row.
func (s *Store) TouchMemory(ctx context.Context, id int64, createdAt int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE memories SET created_at = ? WHERE id = ?`, createdAt, id)
	if err != nil {
		return fmt.Errorf("touch memory: %w", err)
	}
	return nil
}

// UpdateMemory rewrites a memory's content, embedding, and importance in
// place, preserving its ID, character scope, and creation time.
func (s *Store) UpdateMemory(ctx context.Context, id int64, content string, embedding []float32, importance float64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE memories SET content = ?, embedding = ?, importance = ? WHERE id = ?`,
		content, encodeEmbedding(embedding), importance, id,
	)
	if err != nil {
		return fmt.Errorf("update memory: %w", err)
	}
	return nil
}

// DeleteMemory removes a memory by ID. Its FTS mirror row is removed by
// the memories_ad trigger.
func (s *Store) DeleteMemory(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	return nil
}

// SetMemoryTier promotes or demotes a memory between core and ephemeral.
func (s *Store) SetMemoryTier(ctx context.Context, id int64, tier Tier) error {
	_, err := s.db.ExecContext(ctx, `UPDATE memories SET tier = ? WHERE id = ?`, string(tier), id)
	if err != nil {
		return fmt.Errorf("set memory tier: %w", err)
	}
	return nil
}

// VectorCandidates returns every memory with a non-null embedding for a
// character. The hybrid search scores these in-process; spec.md §4.1
// leaves the candidate set unindexed for vector similarity, matching the
// teacher's own brute-force cosine scan over a modest row count.
func (s *Store) VectorCandidates(ctx context.Context, characterID string) ([]Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, character_id, content, embedding, created_at, importance, tier, consolidated_from
		FROM memories WHERE character_id = ? AND embedding IS NOT NULL`, characterID)
	if err != nil {
		return nil, fmt.Errorf("vector candidates: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// LexicalCandidates runs an FTS5 match query scoped to a character and
// returns the matching memories ordered best-match-first (bm25 ascending
// — sqlite's bm25() is more negative for a better match). The memory
// package turns list position into a reciprocal-rank score.
func (s *Store) LexicalCandidates(ctx context.Context, characterID, query string, limit int) ([]Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.character_id, m.content, m.embedding, m.created_at, m.importance, m.tier, m.consolidated_from
		FROM memories_fts
		JOIN memories m ON m.id = memories_fts.rowid
		WHERE memories_fts MATCH ? AND m.character_id = ?
		ORDER BY bm25(memories_fts) ASC
		LIMIT ?`, query, characterID, limit)
	if err != nil {
		return nil, fmt.Errorf("lexical candidates: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (Memory, error) {
	var (
		mem          Memory
		embedding    []byte
		tier         string
		consolidated string
	)
	if err := row.Scan(&mem.ID, &mem.CharacterID, &mem.Content, &embedding, &mem.CreatedAt, &mem.Importance, &tier, &consolidated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Memory{}, err
		}
		return Memory{}, fmt.Errorf("scan memory: %w", err)
	}
	mem.Embedding = decodeEmbedding(embedding)
	mem.Tier = Tier(tier)
	ids, err := decodeIDs(consolidated)
	if err != nil {
		return Memory{}, fmt.Errorf("decode consolidated_from: %w", err)
	}
	mem.ConsolidatedFrom = ids
	return mem, nil
}

func scanMemories(rows *sql.Rows) ([]Memory, error) {
	var out []Memory
	for rows.Next() {
		mem, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mem)
	}
	return out, rows.Err()
}
