// Package memory is the Memory Manager: the single owner of writes to
// the memory and session-summary tables, exposing hybrid semantic ×
// lexical search with time-decayed scoring, content-similarity dedup,
// and tier management.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wispcompanion/core/internal/config"
	"github.com/wispcompanion/core/internal/corerr"
	"github.com/wispcompanion/core/internal/embedding"
	"github.com/wispcompanion/core/internal/store"
)

// Embedder is the subset of the Embedding Oracle the Memory Manager
// needs; satisfied by *embedding.Oracle, and by a fake in tests so
// manager tests never touch the network.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Manager owns every read/write against the memories and
// session_summaries tables for every character.
type Manager struct {
	db     *store.Store
	oracle Embedder
	cfg    config.MemoryConfig
	now    func() time.Time
}

// New builds a Manager. now defaults to time.Now; tests inject a fixed
// clock so decay and dedup-touch assertions are deterministic.
func New(db *store.Store, oracle Embedder, cfg config.MemoryConfig) *Manager {
	return &Manager{db: db, oracle: oracle, cfg: cfg, now: time.Now}
}

// Result pairs a stored memory with its fused relevance score.
type Result struct {
	Memory store.Memory
	Score  float64
}

// Add embeds content and either dedups against an existing similar
// memory (refreshing its recency) or inserts a new row. The boolean
// return reports whether the write was a dedup (true) or a fresh insert
// (false).
func (m *Manager) Add(ctx context.Context, characterID, content string, importance float64) (int64, bool, error) {
	vec, err := m.oracle.Embed(ctx, content)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", corerr.ErrEmbedderUnavailable, err)
	}

	candidates, err := m.db.VectorCandidates(ctx, characterID)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", corerr.ErrStorage, err)
	}

	threshold := m.cfg.DedupThreshold
	if threshold <= 0 {
		threshold = 0.9
	}
	var (
		bestID    int64
		bestScore float64
	)
	for _, c := range candidates {
		if sim := embedding.CosineSimilarity(vec, c.Embedding); sim > bestScore {
			bestScore = sim
			bestID = c.ID
		}
	}
	if bestScore > threshold {
		now := m.now().Unix()
		if err := m.db.TouchMemory(ctx, bestID, now); err != nil {
			return 0, false, fmt.Errorf("%w: %v", corerr.ErrStorage, err)
		}
		return bestID, true, nil
	}

	id, err := m.db.InsertMemory(ctx, store.Memory{
		CharacterID: characterID,
		Content:     content,
		Embedding:   vec,
		CreatedAt:   m.now().Unix(),
		Importance:  importance,
		Tier:        store.TierEphemeral,
	})
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", corerr.ErrStorage, err)
	}
	return id, false, nil
}

// Search performs hybrid retrieval: every vector candidate is scored by
// cosine similarity × time decay, every lexical match by reciprocal
// rank × time decay, and the two score maps are merged before taking the
// top k, scoped entirely to one character.
func (m *Manager) Search(ctx context.Context, characterID, query string, k int) ([]Result, error) {
	queryVec, err := m.oracle.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", corerr.ErrEmbedderUnavailable, err)
	}

	vectorCandidates, err := m.db.VectorCandidates(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", corerr.ErrStorage, err)
	}

	byID := make(map[int64]*Result, len(vectorCandidates))
	nowUnix := m.now().Unix()
	for _, c := range vectorCandidates {
		sim := embedding.CosineSimilarity(queryVec, c.Embedding)
		score := sim * m.timeDecay(nowUnix, c.CreatedAt)
		byID[c.ID] = &Result{Memory: c, Score: score}
	}

	if ftsQuery := buildFTSQuery(query); ftsQuery != "" {
		lexicalLimit := k * 4
		if lexicalLimit < 20 {
			lexicalLimit = 20
		}
		lexical, err := m.db.LexicalCandidates(ctx, characterID, ftsQuery, lexicalLimit)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", corerr.ErrStorage, err)
		}
		for i, mem := range lexical {
			textScore := reciprocalRankScore(i) * m.timeDecay(nowUnix, mem.CreatedAt)
			if existing, ok := byID[mem.ID]; ok {
				existing.Score += textScore
				continue
			}
			byID[mem.ID] = &Result{Memory: mem, Score: textScore}
		}
	}

	results := make([]Result, 0, len(byID))
	for _, r := range byID {
		results = append(results, *r)
	}
	sortResultsDesc(results)
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// timeDecay implements decay = 0.5^(age_days / half_life_days), applied
// only at query time — stored importance and created_at are never
// mutated by scoring.
func (m *Manager) timeDecay(nowUnix, createdAtUnix int64) float64 {
	halfLife := m.cfg.DecayHalfLifeDay
	if halfLife <= 0 {
		halfLife = 30
	}
	ageDays := float64(nowUnix-createdAtUnix) / 86400
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Pow(0.5, ageDays/halfLife)
}

// Delete removes a memory permanently.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	if err := m.db.DeleteMemory(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", corerr.ErrStorage, err)
	}
	return nil
}

// Update rewrites a memory's content and importance, re-embedding since
// the content changed.
func (m *Manager) Update(ctx context.Context, id int64, content string, importance float64) error {
	vec, err := m.oracle.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("%w: %v", corerr.ErrEmbedderUnavailable, err)
	}
	if err := m.db.UpdateMemory(ctx, id, content, vec, importance); err != nil {
		return fmt.Errorf("%w: %v", corerr.ErrStorage, err)
	}
	return nil
}

// List returns a page of memories for UI display.
func (m *Manager) List(ctx context.Context, characterID string, limit, offset int) ([]store.Memory, error) {
	mems, err := m.db.ListMemories(ctx, characterID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", corerr.ErrStorage, err)
	}
	return mems, nil
}

// Count returns the total memory count for a character.
func (m *Manager) Count(ctx context.Context, characterID string) (int, error) {
	n, err := m.db.CountMemories(ctx, characterID, "")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", corerr.ErrStorage, err)
	}
	return n, nil
}

// PromoteTier moves a memory between the ephemeral and core tiers.
func (m *Manager) PromoteTier(ctx context.Context, id int64, tier store.Tier) error {
	if err := m.db.SetMemoryTier(ctx, id, tier); err != nil {
		return fmt.Errorf("%w: %v", corerr.ErrStorage, err)
	}
	return nil
}

// SaveSummary appends a new session summary.
func (m *Manager) SaveSummary(ctx context.Context, characterID, text string) error {
	_, err := m.db.InsertSummary(ctx, store.SessionSummary{
		CharacterID: characterID,
		Summary:     text,
		CreatedAt:   m.now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", corerr.ErrStorage, err)
	}
	return nil
}

// RecentSummaries returns the n most recent summaries, newest first.
func (m *Manager) RecentSummaries(ctx context.Context, characterID string, n int) ([]store.SessionSummary, error) {
	sums, err := m.db.RecentSummaries(ctx, characterID, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", corerr.ErrStorage, err)
	}
	return sums, nil
}

// SaveEmotionSnapshot persists the durable per-character emotion state.
func (m *Manager) SaveEmotionSnapshot(ctx context.Context, snap store.EmotionSnapshot) error {
	if err := m.db.SaveEmotionSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("%w: %v", corerr.ErrStorage, err)
	}
	return nil
}

// LoadEmotionSnapshot returns the persisted emotion state for a
// character, or (EmotionSnapshot{}, false, nil) if none has been saved.
func (m *Manager) LoadEmotionSnapshot(ctx context.Context, characterID string) (store.EmotionSnapshot, bool, error) {
	snap, err := m.db.LoadEmotionSnapshot(ctx, characterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.EmotionSnapshot{}, false, nil
		}
		return store.EmotionSnapshot{}, false, fmt.Errorf("%w: %v", corerr.ErrStorage, err)
	}
	return snap, true, nil
}

func sortResultsDesc(results []Result) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Score > results[j-1].Score; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}
