package proactive

import (
	"math/rand"
	"sync"
	"time"
)

// DecisionKind is what Initiative decided to do this tick.
type DecisionKind string

const (
	StayQuiet    DecisionKind = "StayQuiet"
	AskQuestion  DecisionKind = "AskQuestion"
	ShareThought DecisionKind = "ShareThought"
)

// Decision is the outcome of one Decide call.
type Decision struct {
	Kind  DecisionKind
	Topic string
}

// ConversationTier buckets relationship depth into the base-probability
// tiers the spec names.
type ConversationTier int

const (
	TierStranger ConversationTier = iota
	TierAcquaintance
	TierFriend
	TierIntimate
)

func tierForCount(conversationCount int) ConversationTier {
	return TierForCount(conversationCount)
}

// TierForCount maps a conversation count onto the relationship tiers
// named in spec.md §4.6/§4.7 (the spec names the tiers by label only,
// with no numeric boundary -- see DESIGN.md's Open Question decision
// for the thresholds chosen here). Exported so the Prompt Composer's
// style directive can use the same boundaries the Initiative module
// bases its base probability on.
func TierForCount(conversationCount int) ConversationTier {
	switch {
	case conversationCount >= 100:
		return TierIntimate
	case conversationCount >= 30:
		return TierFriend
	case conversationCount >= 5:
		return TierAcquaintance
	default:
		return TierStranger
	}
}

// String renders the tier's spec.md label.
func (t ConversationTier) String() string {
	switch t {
	case TierAcquaintance:
		return "Acquaintance"
	case TierFriend:
		return "Friend"
	case TierIntimate:
		return "Intimate"
	default:
		return "Stranger"
	}
}

var baseProbability = map[ConversationTier]float64{
	TierStranger:     0.1,
	TierAcquaintance: 0.2,
	TierFriend:       0.4,
	TierIntimate:     0.6,
}

const (
	minSecondsSinceLastAction = 300
	minIdleSeconds            = 60
	idleBoostThresholdSeconds = 600
	idleBoostMultiplier       = 1.2
)

// Initiative decides whether the companion should proactively speak up,
// tracking its own cooldown across calls.
type Initiative struct {
	mu         sync.Mutex
	lastAction time.Time
	now        func() time.Time
	roll       func() float64 // [0,1), overridable in tests
}

// NewInitiative builds an Initiative with no prior action recorded.
func NewInitiative() *Initiative {
	return &Initiative{now: time.Now, roll: rand.Float64}
}

// Decide evaluates whether to stay quiet, ask a question, or share a
// thought, given the current curiosity queue, emotion state, and
// conversational context.
func (in *Initiative) Decide(curiosity *Curiosity, mood, expressiveness float64, conversationCount int, idleSeconds float64) Decision {
	in.mu.Lock()
	defer in.mu.Unlock()

	now := in.now()
	if !in.lastAction.IsZero() && now.Sub(in.lastAction).Seconds() < minSecondsSinceLastAction {
		return Decision{Kind: StayQuiet}
	}
	if idleSeconds < minIdleSeconds {
		return Decision{Kind: StayQuiet}
	}

	tier := tierForCount(conversationCount)
	prob := baseProbability[tier] * (0.5 + mood) * (0.5 + expressiveness*0.5)
	if idleSeconds > idleBoostThresholdSeconds {
		prob *= idleBoostMultiplier
	}
	if prob > 1 {
		prob = 1
	}

	if in.roll() >= prob {
		return Decision{Kind: StayQuiet}
	}

	decision := in.pickDecision(curiosity)
	in.lastAction = now
	return decision
}

func (in *Initiative) pickDecision(curiosity *Curiosity) Decision {
	if curiosity != nil {
		if item, ok := curiosity.Pick(); ok {
			if item.Source == SourceMemory {
				return Decision{Kind: AskQuestion, Topic: item.Topic}
			}
			return Decision{Kind: ShareThought, Topic: item.Topic}
		}
	}
	return Decision{Kind: ShareThought, Topic: "random"}
}
