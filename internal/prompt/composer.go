// Package prompt is the Prompt Composer: it assembles the ordered
// message list the LanguageModel capability sees for one turn, following
// the same appendSection/trimTrailingEmpty section-builder idiom the
// teacher's system-prompt builder uses, generalized from one big string
// to an ordered list of role-tagged messages.
package prompt

import (
	"fmt"
	"strings"

	"github.com/wispcompanion/core/internal/emotion"
	"github.com/wispcompanion/core/internal/memory"
	"github.com/wispcompanion/core/internal/store"
)

// Role is the speaker tag on a composed message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the composed prompt.
type Message struct {
	Role    Role
	Content string
}

// EmotionContext carries everything step 2-4 needs about the current
// emotion state.
type EmotionContext struct {
	Emotion  string
	Mood     float64
	Trend    string // "up", "down", "stable"
	Tier     string // relationship tier label for the style directive
	Triggers []emotion.Trigger
}

// LanguageContext carries the user's and response language preferences.
type LanguageContext struct {
	Preamble             string // step 1 addendum, empty if none configured
	CriticalInstruction  string // step 7, empty when no response language is set
	TranslateInstruction string // step 8, empty unless display language differs
	FinalReminder        string // step 10, empty when no response language is set
}

// Input bundles everything Compose needs for one turn.
type Input struct {
	Persona        string
	CoreRules      string
	Language       LanguageContext
	Emotion        EmotionContext
	Memories       []memory.Result
	Summaries      []store.SessionSummary
	History        []store.Message
	HistoryBudget  int // approx token budget for step 9
	HistoryMaxMsgs int // hard cap on message count for step 9

	// ToolPrompt is the tool-call wire-format description block
	// (spec.md §6): one line per available tool plus the instruction to
	// emit [TOOL_CALL:name|k=v|...]. Empty when the turn has no tools
	// registered. Composed into the first system message alongside
	// persona/core-rules/language-preamble, since the spec's 10-step
	// ordering names it only as an optional argument to compose_prompt,
	// not a separately numbered step.
	ToolPrompt string
}

// Compose builds the complete ordered message list for one turn,
// following the specification's 10-step ordering.
func Compose(in Input) []Message {
	var msgs []Message

	// 1. persona + core rules + language preamble + tool catalog
	msgs = appendSystem(msgs, joinNonEmpty("\n\n", in.Persona, in.CoreRules, in.Language.Preamble, in.ToolPrompt))

	// 2. emotion description
	msgs = appendSystem(msgs, emotionDescription(in.Emotion))

	// 3. style directive from tier x emotion x mood
	if sd, ok := computeStyleDirective(in.Emotion); ok {
		msgs = appendSystem(msgs, sd.Instruction)
	}

	// 4. one message per fired emotion event
	for _, trig := range in.Emotion.Triggers {
		msgs = appendSystem(msgs, trig.Instruction)
	}

	// 5. relevant memories block
	msgs = appendSystem(msgs, memoriesBlock(in.Memories))

	// 6. recent session summaries, newest first
	msgs = appendSystem(msgs, summariesBlock(in.Summaries))

	// 7. critical language instruction
	msgs = appendSystem(msgs, in.Language.CriticalInstruction)

	// 8. translation instruction
	msgs = appendSystem(msgs, in.Language.TranslateInstruction)

	// 9. recent conversation history, token-budget trimmed
	msgs = append(msgs, trimmedHistory(in.History, in.HistoryMaxMsgs, in.HistoryBudget)...)

	// 10. final short language reminder
	msgs = appendSystem(msgs, in.Language.FinalReminder)

	return msgs
}

func appendSystem(msgs []Message, content string) []Message {
	content = strings.TrimSpace(content)
	if content == "" {
		return msgs
	}
	return append(msgs, Message{Role: RoleSystem, Content: content})
}

func joinNonEmpty(sep string, parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, sep)
}

func emotionDescription(ec EmotionContext) string {
	if ec.Emotion == "" {
		return ""
	}
	trend := ec.Trend
	if trend == "" {
		trend = "stable"
	}
	return fmt.Sprintf("Your current mood is %.2f, trending %s, emotion state %s.", ec.Mood, trend, ec.Emotion)
}

// StyleDirective is spec.md §3's "computed snapshot": a relationship
// tier plus four tone scalars in [0,1] (formality, verbosity, affection,
// humor), plus the natural-language instruction derived from them.
type StyleDirective struct {
	Tier        string
	Formality   float64
	Verbosity   float64
	Affection   float64
	Humor       float64
	Instruction string
}

type styleScalars struct {
	Formality, Verbosity, Affection, Humor float64
}

// tierBaseStyle are the per-tier base scalars §4.7 step 3 starts from,
// before emotion/mood modulation. Design constants, tabulated the same
// way the emotion package tabulates its personality keyword tables.
var tierBaseStyle = map[string]styleScalars{
	"Stranger":     {Formality: 0.75, Verbosity: 0.40, Affection: 0.10, Humor: 0.20},
	"Acquaintance": {Formality: 0.55, Verbosity: 0.50, Affection: 0.30, Humor: 0.35},
	"Friend":       {Formality: 0.30, Verbosity: 0.60, Affection: 0.55, Humor: 0.55},
	"Intimate":     {Formality: 0.10, Verbosity: 0.65, Affection: 0.90, Humor: 0.60},
}

// tierOpeners is the opening sentence for each tier, kept as its own
// table since the instruction is built by appending scalar-driven
// qualifiers onto it, not replacing it.
var tierOpeners = map[string]string{
	"Stranger":     "Keep a polite, slightly reserved tone appropriate for someone you're just getting to know.",
	"Acquaintance": "Be warm but still a little measured — you're getting comfortable with each other.",
	"Friend":       "Be relaxed and familiar, the way you'd talk to a good friend.",
	"Intimate":     "Be open, affectionate, and unguarded — this is someone you trust deeply.",
}

// emotionStyleModifiers are additive deltas applied to the tier base,
// one row per closed-set emotion name the stream parser recognises.
// Emotions with no row (including "neutral") apply no delta.
var emotionStyleModifiers = map[string]styleScalars{
	"happy":     {Affection: 0.10, Humor: 0.15},
	"excited":   {Verbosity: 0.15, Humor: 0.20},
	"sad":       {Verbosity: -0.15, Affection: 0.05, Humor: -0.20},
	"worried":   {Verbosity: 0.10, Humor: -0.15},
	"angry":     {Formality: 0.15, Affection: -0.15, Humor: -0.25},
	"surprised": {Verbosity: 0.10},
	"thinking":  {Verbosity: 0.15, Humor: -0.10},
	"shy":       {Formality: 0.10, Affection: -0.10},
	"smug":      {Formality: -0.10, Humor: 0.20},
}

// computeStyleDirective derives the style directive from relationship
// tier x current emotion x mood (spec.md §4.7 step 3): the tier's base
// scalars, shifted by the current emotion's modifiers and by a
// mood_factor that warms affection/humor and loosens formality as mood
// rises above neutral (0.5), and cools/tightens them as it falls below.
func computeStyleDirective(ec EmotionContext) (StyleDirective, bool) {
	if ec.Tier == "" {
		return StyleDirective{}, false
	}
	base, ok := tierBaseStyle[ec.Tier]
	if !ok {
		return StyleDirective{}, false
	}

	mod := emotionStyleModifiers[strings.ToLower(ec.Emotion)]
	moodFactor := (ec.Mood - 0.5) * 0.3

	sd := StyleDirective{
		Tier:      ec.Tier,
		Formality: clampUnit(base.Formality + mod.Formality - moodFactor*0.5),
		Verbosity: clampUnit(base.Verbosity + mod.Verbosity),
		Affection: clampUnit(base.Affection + mod.Affection + moodFactor),
		Humor:     clampUnit(base.Humor + mod.Humor + moodFactor),
	}
	sd.Instruction = styleInstruction(sd)
	return sd, true
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// styleInstruction turns the four scalars into the natural-language
// tone guidance appended after the tier's opening sentence. Thresholds
// are deliberately wide so an instruction only fires when a scalar has
// moved clearly away from its tier-neutral middle.
func styleInstruction(sd StyleDirective) string {
	var b strings.Builder
	b.WriteString(tierOpeners[sd.Tier])

	switch {
	case sd.Humor >= 0.6:
		b.WriteString(" Let some playful humor come through.")
	case sd.Humor <= 0.2:
		b.WriteString(" Keep the tone earnest, not joking.")
	}

	switch {
	case sd.Affection >= 0.7:
		b.WriteString(" Don't hold back on warmth and affection.")
	case sd.Affection <= 0.15:
		b.WriteString(" Keep affection understated.")
	}

	switch {
	case sd.Verbosity >= 0.65:
		b.WriteString(" Feel free to elaborate.")
	case sd.Verbosity <= 0.35:
		b.WriteString(" Keep responses concise.")
	}

	switch {
	case sd.Formality >= 0.65:
		b.WriteString(" Stay a little formal.")
	case sd.Formality <= 0.2:
		b.WriteString(" Speak casually.")
	}

	return b.String()
}

func memoriesBlock(results []memory.Result) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Relevant things you remember about this person (weave them in naturally, don't recite this list):\n")
	for _, r := range results {
		fmt.Fprintf(&b, "- %s\n", r.Memory.Content)
	}
	return b.String()
}

func summariesBlock(summaries []store.SessionSummary) string {
	if len(summaries) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Summaries of recent sessions, most recent first:\n")
	for _, s := range summaries {
		fmt.Fprintf(&b, "- %s\n", s.Summary)
	}
	return b.String()
}

func trimmedHistory(history []store.Message, maxMsgs, tokenBudget int) []Message {
	if maxMsgs > 0 && len(history) > maxMsgs {
		history = history[len(history)-maxMsgs:]
	}

	out := make([]Message, 0, len(history))
	for _, m := range history {
		role := RoleUser
		if m.Role == store.RoleAssistant {
			role = RoleAssistant
		} else if m.Role == store.RoleSystem {
			role = RoleSystem
		}
		out = append(out, Message{Role: role, Content: m.Content})
	}

	if tokenBudget <= 0 {
		return out
	}
	total := 0
	for _, m := range out {
		total += estimateTokens(m.Content)
	}
	for total > tokenBudget && len(out) > 1 {
		total -= estimateTokens(out[0].Content)
		out = out[1:]
	}
	return out
}
