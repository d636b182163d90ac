// Package orchestrator is the glue component (spec.md §4.11): it holds
// the persistence pool, the Memory Manager, the single active
// character's Emotion State, the Curiosity/Initiative/Idle modules, and
// drives the Tool-Call Feedback Loop (§4.9) that streams a turn through
// the LanguageModel capability, parses control tags, executes any tool
// calls, and re-prompts with their results.
//
// Concurrency follows spec.md §5's lock order exactly:
// character_id -> emotion_state -> history -> conversation_id. No
// method here acquires more than one of these mutexes out of that
// order, and none of them is held across a suspension point (DB query,
// embed call, model stream, tool execution) other than the brief
// critical sections below.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"

	"github.com/wispcompanion/core/internal/config"
	"github.com/wispcompanion/core/internal/corelog"
	"github.com/wispcompanion/core/internal/emotion"
	"github.com/wispcompanion/core/internal/llmapi"
	"github.com/wispcompanion/core/internal/memory"
	"github.com/wispcompanion/core/internal/proactive"
	"github.com/wispcompanion/core/internal/sentiment"
	"github.com/wispcompanion/core/internal/store"
	"github.com/wispcompanion/core/internal/tools"
)

// MaxToolIterations bounds the Tool-Call Feedback Loop per turn
// (spec.md §4.9, §8 "at most MAX_ITERATIONS + 1 = 4 model calls").
const MaxToolIterations = 3

// ExtractEveryNMessages is how often a user message triggers a
// background Memory Extractor run (spec.md §4.11).
const ExtractEveryNMessages = 5

// Extractor is the subset of the Memory Extractor this package needs to
// kick off a background run; satisfied by *extractor.Extractor. Kept as
// an interface here so orchestrator never imports extractor directly
// (extractor already imports memory/llmapi, and orchestrator importing
// it too would just be an unused dependency edge).
type Extractor interface {
	Run(ctx context.Context, characterID string, recentTurns []store.Message) error
}

// extractionSupervisor is the subset of *heartbeat.Heartbeat the
// Orchestrator needs to launch a background Memory Extractor run under
// supervision (spec.md §9's "shared ref-counted handle into tasks" note)
// instead of a bare unsupervised goroutine. Kept as an interface, not a
// direct *heartbeat.Heartbeat field, so a test can fake it without
// starting a real ticker.
type extractionSupervisor interface {
	RunExtraction(fn func(ctx context.Context) error)
}

// Deps bundles every collaborator the Orchestrator is built from.
type Deps struct {
	Store      *store.Store
	Memory     *memory.Manager
	Tools      *tools.Executor
	LLM        llmapi.LanguageModel
	Sink       llmapi.EventSink
	Log        corelog.Logger
	Config     config.Config
	Curiosity  *proactive.Curiosity
	Initiative *proactive.Initiative
	Idle       *proactive.Idle
	Extractor  Extractor
}

// Orchestrator is the single-active-character conversational core. It
// assumes one concurrent generation at a time (spec.md §1 Non-goals).
type Orchestrator struct {
	store     *store.Store
	mem       *memory.Manager
	tools     *tools.Executor
	llm       llmapi.LanguageModel
	sink      llmapi.EventSink
	log       corelog.Logger
	cfg       config.Config
	curiosity *proactive.Curiosity
	init      *proactive.Initiative
	idle      *proactive.Idle
	extractor Extractor

	now func() time.Time

	// lock order: charMu -> emoMu -> histMu -> convMu
	charMu      sync.Mutex
	characterID string
	persona     string

	emoMu   sync.Mutex
	emotion *emotion.State

	histMu  sync.Mutex
	history []store.Message

	convMu         sync.Mutex
	conversationID string

	langMu           sync.Mutex
	userLanguage     string
	responseLanguage string

	proactiveEnabled atomic.Bool

	actMu         sync.Mutex
	lastActivity  time.Time
	lastProactive time.Time

	sessMu    sync.Mutex
	userTurns int

	hbMu sync.Mutex
	hb   extractionSupervisor
}

// New builds an Orchestrator with no active character. Call SetCharacter
// before composing a prompt or handling a turn.
func New(d Deps) *Orchestrator {
	if d.Log == nil {
		d.Log = corelog.Nop{}
	}
	o := &Orchestrator{
		store:     d.Store,
		mem:       d.Memory,
		tools:     d.Tools,
		llm:       d.LLM,
		sink:      d.Sink,
		log:       d.Log,
		cfg:       d.Config,
		curiosity: d.Curiosity,
		init:      d.Initiative,
		idle:      d.Idle,
		extractor: d.Extractor,
		now:       time.Now,
	}
	o.proactiveEnabled.Store(d.Config.Heartbeat.ProactiveEnabled)
	return o
}

// SetCharacter switches the active character: it derives a fresh
// personality from persona text, restores the persisted emotion snapshot
// (emotion, mood, inertia) on top of it if one exists, clears in-memory
// history, and resets the active conversation so the next AddMessage
// starts a new one.
func (o *Orchestrator) SetCharacter(ctx context.Context, characterID, persona string) error {
	o.charMu.Lock()
	defer o.charMu.Unlock()

	o.characterID = characterID
	o.persona = persona

	personality := emotion.PersonalityFromPersona(persona)

	o.emoMu.Lock()
	o.emotion = emotion.New(personality)
	o.emoMu.Unlock()

	if snap, ok, err := o.mem.LoadEmotionSnapshot(ctx, characterID); err != nil {
		o.log.Warn("orchestrator: load emotion snapshot failed", map[string]any{"error": err.Error()})
	} else if ok {
		o.emoMu.Lock()
		o.emotion.Restore(emotion.Snapshot{
			Emotion:            snap.Emotion,
			Mood:               snap.Mood,
			AccumulatedInertia: snap.AccumulatedInertia,
		})
		o.emoMu.Unlock()
	}

	o.histMu.Lock()
	o.history = nil
	o.histMu.Unlock()

	o.convMu.Lock()
	o.conversationID = ""
	o.convMu.Unlock()

	return nil
}

// ClearHistory drops in-memory history and detaches from the current
// conversation; the next AddMessage starts a new conversation row.
func (o *Orchestrator) ClearHistory() {
	o.histMu.Lock()
	o.history = nil
	o.histMu.Unlock()

	o.convMu.Lock()
	o.conversationID = ""
	o.convMu.Unlock()
}

// SetLanguage records the user's display language and the language the
// companion should respond in; either may be empty to mean "unset".
func (o *Orchestrator) SetLanguage(userLanguage, responseLanguage string) {
	o.langMu.Lock()
	defer o.langMu.Unlock()
	o.userLanguage = userLanguage
	o.responseLanguage = responseLanguage
}

// TouchActivity records that something just happened, resetting the
// idle clock the proactive systems read.
func (o *Orchestrator) TouchActivity() {
	o.actMu.Lock()
	o.lastActivity = o.now()
	o.actMu.Unlock()
}

// IdleSeconds reports how long it has been since the last touched
// activity.
func (o *Orchestrator) IdleSeconds() float64 {
	o.actMu.Lock()
	last := o.lastActivity
	o.actMu.Unlock()
	if last.IsZero() {
		return 0
	}
	return o.now().Sub(last).Seconds()
}

// SecondsSinceLastProactive reports how long it has been since the last
// proactive trigger fired, for the Heartbeat's cooldown gate.
func (o *Orchestrator) SecondsSinceLastProactive() float64 {
	o.actMu.Lock()
	last := o.lastProactive
	o.actMu.Unlock()
	if last.IsZero() {
		return 1 << 30 // effectively "forever" so the first tick is never gated
	}
	return o.now().Sub(last).Seconds()
}

// MarkProactiveFired records that a proactive trigger just fired, so
// the Heartbeat's cooldown gate (and TouchActivity, which the Heartbeat
// also calls on the same decision) don't immediately refire.
func (o *Orchestrator) MarkProactiveFired() {
	o.actMu.Lock()
	o.lastProactive = o.now()
	o.actMu.Unlock()
}

// AttachHeartbeat wires the Heartbeat that should supervise background
// Memory Extractor runs. Call it once after building the Heartbeat from
// HeartbeatHooks. Extraction triggered before this is called (or in a
// deployment with no Heartbeat at all) falls back to an unsupervised
// goroutine so a turn's extraction trigger is never silently dropped.
func (o *Orchestrator) AttachHeartbeat(hb extractionSupervisor) {
	o.hbMu.Lock()
	o.hb = hb
	o.hbMu.Unlock()
}

// ProactiveEnabled reports the atomic opt-out flag (spec.md §4.10).
func (o *Orchestrator) ProactiveEnabled() bool { return o.proactiveEnabled.Load() }

// SetProactiveEnabled flips the global opt-out flag, persisted outside
// this core by the caller.
func (o *Orchestrator) SetProactiveEnabled(enabled bool) { o.proactiveEnabled.Store(enabled) }

// EmotionState exposes the active character's emotion state for the
// Heartbeat's hooks to call directly under its own critical sections
// (the Heartbeat never needs more than this one lock, so handing back
// the pointer is safe -- every State method is independently guarded).
func (o *Orchestrator) EmotionState() *emotion.State {
	o.emoMu.Lock()
	defer o.emoMu.Unlock()
	return o.emotion
}

// Curiosity, Initiative, and Idle expose the proactive modules for the
// Heartbeat's hooks.
func (o *Orchestrator) Curiosity() *proactive.Curiosity   { return o.curiosity }
func (o *Orchestrator) InitiativeModule() *proactive.Initiative { return o.init }
func (o *Orchestrator) IdleModule() *proactive.Idle       { return o.idle }

// AddMessage appends a message to history, persists it (creating a
// conversation first if none is active), and for user messages absorbs
// sentiment into the emotion state and counts toward the next
// extraction trigger.
func (o *Orchestrator) AddMessage(ctx context.Context, role store.Role, content string) error {
	characterID := o.activeCharacterID()

	convID, err := o.ensureConversation(ctx, characterID, role, content)
	if err != nil {
		o.log.Warn("orchestrator: ensure conversation failed", map[string]any{"error": err.Error()})
	}

	msg := store.Message{
		ConversationID: convID,
		Role:           role,
		Content:        content,
		CreatedAt:      o.now().Unix(),
	}
	if convID != "" {
		if id, err := o.store.AppendMessage(ctx, msg); err != nil {
			o.log.Warn("orchestrator: append message failed", map[string]any{"error": err.Error()})
		} else {
			msg.ID = id
		}
	}

	o.histMu.Lock()
	o.history = append(o.history, msg)
	o.histMu.Unlock()

	if role == store.RoleUser {
		o.onUserMessage(ctx, characterID, content)
	}
	return nil
}

func (o *Orchestrator) activeCharacterID() string {
	o.charMu.Lock()
	defer o.charMu.Unlock()
	return o.characterID
}

// ensureConversation creates a conversation row on first use, deriving
// its title from the first user message's leading 20 characters.
func (o *Orchestrator) ensureConversation(ctx context.Context, characterID string, role store.Role, content string) (string, error) {
	o.convMu.Lock()
	defer o.convMu.Unlock()

	if o.conversationID != "" {
		return o.conversationID, nil
	}

	title := "New conversation"
	if role == store.RoleUser {
		title = firstChars(content, 20)
	}
	id := xid.New().String()
	now := o.now().Unix()
	if err := o.store.UpsertConversation(ctx, store.Conversation{
		ID:          id,
		CharacterID: characterID,
		Title:       title,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	o.conversationID = id
	return id, nil
}

func firstChars(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}

// onUserMessage absorbs sentiment into emotion and bumps the
// extraction counter, firing a background Memory Extractor run every
// ExtractEveryNMessages user turns.
func (o *Orchestrator) onUserMessage(ctx context.Context, characterID, content string) {
	result := sentiment.Analyze(content)

	o.emoMu.Lock()
	if o.emotion != nil {
		o.emotion.AbsorbUserSentiment(result.Mood, result.Confidence)
	}
	o.emoMu.Unlock()

	o.TouchActivity()

	o.sessMu.Lock()
	o.userTurns++
	fire := o.extractor != nil && o.userTurns%ExtractEveryNMessages == 0
	o.sessMu.Unlock()
	if !fire {
		return
	}

	o.histMu.Lock()
	recent := append([]store.Message(nil), o.history...)
	o.histMu.Unlock()

	runExtraction := func(extractCtx context.Context) error {
		if err := o.extractor.Run(extractCtx, characterID, recent); err != nil {
			o.log.Warn("orchestrator: memory extraction failed", map[string]any{"error": err.Error()})
		}
		return nil
	}

	o.hbMu.Lock()
	hb := o.hb
	o.hbMu.Unlock()
	if hb != nil {
		hb.RunExtraction(runExtraction)
	} else {
		go func() { _ = runExtraction(context.WithoutCancel(ctx)) }()
	}
}

// UpdateEmotion feeds a newly observed (raw_emotion, raw_mood) pair
// through the active character's emotion state and returns the
// expressed result (spec.md §4.5 step 1).
func (o *Orchestrator) UpdateEmotion(rawEmotion string, rawMood float64) (string, float64) {
	o.emoMu.Lock()
	defer o.emoMu.Unlock()
	if o.emotion == nil {
		return rawEmotion, rawMood
	}
	return o.emotion.Update(rawEmotion, rawMood)
}
