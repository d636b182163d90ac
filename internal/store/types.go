package store

// Tier classifies a memory's retention priority.
type Tier string

const (
	TierCore      Tier = "core"
	TierEphemeral Tier = "ephemeral"
)

// Role identifies the speaker of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Memory is a single persisted fact, scoped to one character.
type Memory struct {
	ID               int64
	CharacterID      string
	Content          string
	Embedding        []float32
	CreatedAt        int64
	Importance       float64
	Tier             Tier
	ConsolidatedFrom []int64
}

// Conversation groups messages under one character.
type Conversation struct {
	ID          string
	CharacterID string
	Title       string
	CreatedAt   int64
	UpdatedAt   int64
}

// Message is one turn within a conversation.
type Message struct {
	ID             int64
	ConversationID string
	Role           Role
	Content        string
	Metadata       map[string]any
	CreatedAt      int64
}

// SessionSummary is an append-only rollup of recent conversation turns.
type SessionSummary struct {
	ID          int64
	CharacterID string
	Summary     string
	CreatedAt   int64
}

// EmotionSnapshot is the durable, per-character emotion state row.
type EmotionSnapshot struct {
	CharacterID        string
	Emotion            string
	Mood               float64
	AccumulatedInertia float64
	UpdatedAt          int64
}
