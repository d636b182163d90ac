package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// UpsertConversation creates a conversation or, if it already exists,
// overwrites its updated_at and title.
func (s *Store) UpsertConversation(ctx context.Context, c Conversation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, character_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at, title = excluded.title`,
		c.ID, c.CharacterID, c.Title, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}
	return nil
}

// GetConversation loads a conversation by ID.
func (s *Store) GetConversation(ctx context.Context, id string) (Conversation, error) {
	var c Conversation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, character_id, title, created_at, updated_at FROM conversations WHERE id = ?`, id,
	).Scan(&c.ID, &c.CharacterID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Conversation{}, err
		}
		return Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

// DeleteConversation removes a conversation and, via cascade, all of its
// messages.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// AppendMessage records one turn and bumps the parent conversation's
// updated_at in the same call.
func (s *Store) AppendMessage(ctx context.Context, msg Message) (int64, error) {
	meta, err := encodeMetadata(msg.Metadata)
	if err != nil {
		return 0, fmt.Errorf("encode metadata: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO conversation_messages (conversation_id, role, content, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		msg.ConversationID, string(msg.Role), msg.Content, meta, msg.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE conversations SET updated_at = ? WHERE id = ?`, msg.CreatedAt, msg.ConversationID); err != nil {
		return 0, fmt.Errorf("touch conversation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return res.LastInsertId()
}

// RecentMessages returns up to limit messages for a conversation, oldest
// first, matching the order the prompt composer expects for history.
func (s *Store) RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, metadata, created_at
		FROM conversation_messages
		WHERE conversation_id = ?
		ORDER BY id DESC
		LIMIT ?`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var (
			msg  Message
			role string
			meta string
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &meta, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = Role(role)
		m, err := decodeMetadata(meta)
		if err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
		msg.Metadata = m
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// reverse: query was newest-first for a bounded LIMIT scan, caller wants oldest-first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// ClearMessages deletes every message in a conversation without deleting
// the conversation row itself.
func (s *Store) ClearMessages(ctx context.Context, conversationID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM conversation_messages WHERE conversation_id = ?`, conversationID)
	if err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	return nil
}
