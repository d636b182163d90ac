package store

import (
	"context"
	"fmt"
)

// InsertSummary appends a new session summary for a character.
func (s *Store) InsertSummary(ctx context.Context, sum SessionSummary) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO session_summaries (character_id, summary, created_at) VALUES (?, ?, ?)`,
		sum.CharacterID, sum.Summary, sum.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert summary: %w", err)
	}
	return res.LastInsertId()
}

// RecentSummaries returns up to limit summaries for a character, most
// recent first, matching how the prompt composer consumes them.
func (s *Store) RecentSummaries(ctx context.Context, characterID string, limit int) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, character_id, summary, created_at
		FROM session_summaries
		WHERE character_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, characterID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent summaries: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.ID, &sum.CharacterID, &sum.Summary, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
