package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SaveEmotionSnapshot upserts the durable emotion state for a character.
func (s *Store) SaveEmotionSnapshot(ctx context.Context, snap EmotionSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO emotion_snapshots (character_id, emotion, mood, accumulated_inertia, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(character_id) DO UPDATE SET
			emotion = excluded.emotion,
			mood = excluded.mood,
			accumulated_inertia = excluded.accumulated_inertia,
			updated_at = excluded.updated_at`,
		snap.CharacterID, snap.Emotion, snap.Mood, snap.AccumulatedInertia, snap.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save emotion snapshot: %w", err)
	}
	return nil
}

// LoadEmotionSnapshot returns the persisted emotion state for a
// character, or sql.ErrNoRows if none has been saved yet — callers fall
// back to a fresh neutral state in that case.
func (s *Store) LoadEmotionSnapshot(ctx context.Context, characterID string) (EmotionSnapshot, error) {
	var snap EmotionSnapshot
	err := s.db.QueryRowContext(ctx, `
		SELECT character_id, emotion, mood, accumulated_inertia, updated_at
		FROM emotion_snapshots WHERE character_id = ?`, characterID,
	).Scan(&snap.CharacterID, &snap.Emotion, &snap.Mood, &snap.AccumulatedInertia, &snap.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EmotionSnapshot{}, err
		}
		return EmotionSnapshot{}, fmt.Errorf("load emotion snapshot: %w", err)
	}
	return snap, nil
}
