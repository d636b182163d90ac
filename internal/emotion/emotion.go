// Package emotion implements the per-character emotion state machine:
// mood/inertia smoothing, personality-driven parameters, trigger
// detection, and expression-frame synthesis for the frontend avatar.
// The mutex-guarded-struct shape follows the teacher's tools.Guard.
package emotion

import (
	"math"
	"strings"
	"sync"
)

// Event names the emotion state machine can raise for the frontend/prompt.
type Event string

const (
	EventNone      Event = ""
	EventEcstatic  Event = "Ecstatic"
	EventVeryHappy Event = "VeryHappy"
	EventSulking   Event = "Sulking"
	EventVerySad   Event = "VerySad"
	EventMoodSwing Event = "MoodSwing"
)

// Trigger carries what a detected event should do to the prompt and the
// frontend: a system-prompt instruction, a hint tag, and optional
// overrides for the expressed emotion/action.
type Trigger struct {
	Event       Event
	Instruction string
	HintTag     string
	Emotion     string
	Action      string
}

var triggerCatalog = map[Event]Trigger{
	EventEcstatic:  {Event: EventEcstatic, Instruction: "You are feeling ecstatic — let that brightness show.", HintTag: "ecstatic", Emotion: "ecstatic", Action: "bounce"},
	EventVeryHappy: {Event: EventVeryHappy, Instruction: "You are feeling very happy right now.", HintTag: "very_happy", Emotion: "happy"},
	EventSulking:   {Event: EventSulking, Instruction: "You are sulking — keep responses short and a little withdrawn.", HintTag: "sulking", Emotion: "sad", Action: "pout"},
	EventVerySad:   {Event: EventVerySad, Instruction: "You are feeling very sad right now.", HintTag: "very_sad", Emotion: "sad"},
	EventMoodSwing: {Event: EventMoodSwing, Instruction: "Your mood just swung sharply — let a little of that show.", HintTag: "mood_swing"},
}

// Personality is the set of tunable parameters derived from a character's
// persona text.
type Personality struct {
	Inertia       float64
	Expressiveness float64
	DefaultMood   float64
}

const (
	inertiaLow, inertiaDefault, inertiaHigh             = 0.2, 0.4, 0.7
	expressivenessLow, expressivenessDefault, expressivenessHigh = 0.3, 0.6, 0.9
	defaultMoodLow, defaultMoodDefault, defaultMoodHigh = 0.3, 0.5, 0.7
)

var calmKeywords = []string{"calm", "reserved", "stoic", "tranquilo", "reservado", "ruhig", "zurückhaltend", "落ち着いた", "冷静"}
var volatileKeywords = []string{"volatile", "excitable", "dramatic", "voluble", "dramático", "impulsiv", "dramatisch", "感情的", "ドラマチック"}
var reservedKeywords = []string{"reserved", "quiet", "subdued", "callado", "reservado", "zurückhaltend", "無口", "控えめ"}
var expressiveKeywords = []string{"expressive", "animated", "lively", "expresivo", "animado", "ausdrucksstark", "lebendig", "表現豊か", "活発"}
var gloomyKeywords = []string{"gloomy", "melancholy", "brooding", "sombrío", "melancólico", "düster", "traurig veranlagt", "陰気", "憂鬱"}
var cheerfulKeywords = []string{"cheerful", "sunny", "optimistic", "alegre", "optimista", "fröhlich", "optimistisch", "明るい", "陽気"}

// PersonalityFromPersona keyword-scans persona text for the character's
// emotional parameters, falling back to the documented defaults.
func PersonalityFromPersona(persona string) Personality {
	lower := strings.ToLower(persona)
	p := Personality{Inertia: inertiaDefault, Expressiveness: expressivenessDefault, DefaultMood: defaultMoodDefault}

	if containsAny(lower, volatileKeywords) {
		p.Inertia = inertiaLow
	} else if containsAny(lower, calmKeywords) {
		p.Inertia = inertiaHigh
	}

	if containsAny(lower, expressiveKeywords) {
		p.Expressiveness = expressivenessHigh
	} else if containsAny(lower, reservedKeywords) {
		p.Expressiveness = expressivenessLow
	}

	if containsAny(lower, cheerfulKeywords) {
		p.DefaultMood = defaultMoodHigh
	} else if containsAny(lower, gloomyKeywords) {
		p.DefaultMood = defaultMoodLow
	}

	return p
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// State is one character's mutable emotion state. All reads and writes
// go through the mutex so the Orchestrator and the Heartbeat's decay tick
// can safely touch it concurrently.
type State struct {
	mu sync.Mutex

	personality Personality

	currentEmotion     string
	mood               float64
	accumulatedInertia float64
	moodHistory        []float64
}

const moodHistoryCap = 5

// New creates a fresh state at the personality's default mood, emotion
// "neutral".
func New(p Personality) *State {
	return &State{
		personality:    p,
		currentEmotion: "neutral",
		mood:           p.DefaultMood,
	}
}

// SetPersonality resets emotion to neutral at the new default mood and
// clears history, matching the "setting a new personality" invariant.
func (s *State) SetPersonality(p Personality) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.personality = p
	s.currentEmotion = "neutral"
	s.mood = p.DefaultMood
	s.accumulatedInertia = 0
	s.moodHistory = nil
}

// Snapshot is an immutable read of the current internal state.
type Snapshot struct {
	Emotion            string
	Mood               float64
	AccumulatedInertia float64
}

// Trend reports whether mood has been rising, falling, or holding
// steady over the recent history window, for the Prompt Composer's
// emotion description (spec.md §4.7 step 2).
func (s *State) Trend() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.moodHistory) < 2 {
		return "stable"
	}
	delta := s.moodHistory[len(s.moodHistory)-1] - s.moodHistory[0]
	switch {
	case delta > 0.02:
		return "up"
	case delta < -0.02:
		return "down"
	default:
		return "stable"
	}
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Emotion: s.currentEmotion, Mood: s.mood, AccumulatedInertia: s.accumulatedInertia}
}

// Restore loads a previously persisted snapshot, used when switching the
// active character.
func (s *State) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentEmotion = snap.Emotion
	s.mood = snap.Mood
	s.accumulatedInertia = snap.AccumulatedInertia
	s.moodHistory = nil
}

func (s *State) effectiveInertia() float64 {
	v := s.personality.Inertia + s.accumulatedInertia*0.1
	return clamp(v, 0, 0.85)
}

// Update blends a newly observed (raw_emotion, raw_mood) pair into the
// smoothed internal state and returns the expressed result.
func (s *State) Update(rawEmotion string, rawMood float64) (smoothedEmotion string, expressedMood float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inertia := s.effectiveInertia()
	blended := s.mood*inertia + rawMood*(1-inertia)

	if rawEmotion == s.currentEmotion {
		s.accumulatedInertia = math.Min(s.accumulatedInertia+0.5, 3)
	} else {
		switchThreshold := inertia * 0.3
		if math.Abs(rawMood-s.mood) > switchThreshold || s.accumulatedInertia < 0.5 {
			s.currentEmotion = rawEmotion
			s.accumulatedInertia = 0
		} else {
			s.accumulatedInertia = math.Max(s.accumulatedInertia-0.3, 0)
		}
	}

	s.mood = blended
	s.pushHistory(blended)

	expressed := s.personality.DefaultMood + (blended-s.personality.DefaultMood)*s.personality.Expressiveness
	return s.currentEmotion, clamp(expressed, 0, 1)
}

func (s *State) pushHistory(mood float64) {
	s.moodHistory = append(s.moodHistory, mood)
	if len(s.moodHistory) > moodHistoryCap {
		s.moodHistory = s.moodHistory[len(s.moodHistory)-moodHistoryCap:]
	}
}

// DecayTowardDefault is invoked periodically by the Heartbeat to relax
// mood back to the personality's default when nothing is actively
// pushing it elsewhere.
func (s *State) DecayTowardDefault() {
	s.mu.Lock()
	defer s.mu.Unlock()

	rate := 0.05 * (1 - s.personality.Expressiveness*0.5)
	target := s.personality.DefaultMood
	if s.mood > target {
		s.mood = math.Max(target, s.mood-rate)
	} else if s.mood < target {
		s.mood = math.Min(target, s.mood+rate)
	}

	if math.Abs(s.mood-target) < 0.01 {
		s.mood = target
		s.accumulatedInertia = math.Max(s.accumulatedInertia-rate, 0)
	}
	if math.Abs(s.mood-target) < 0.05 && s.currentEmotion != "neutral" {
		s.currentEmotion = "neutral"
	}
}

// AbsorbUserSentiment pulls internal mood toward the user's observed mood.
func (s *State) AbsorbUserSentiment(userMood, confidence float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pull := s.personality.Expressiveness * confidence * 0.15
	s.mood += (userMood - s.mood) * pull
	s.mood = clamp(s.mood, 0, 1)
}

// CheckTriggers inspects the current mood and recent history for every
// event worth surfacing to the prompt/frontend this tick. The extreme-
// mood group (Ecstatic/VeryHappy, and separately Sulking/VerySad) and
// the MoodSwing window are independent checks -- an extreme mood and a
// mood swing can fire together on the same tick. Returns an empty slice
// when nothing fires.
func (s *State) CheckTriggers() []Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()

	var triggers []Trigger

	mood := s.mood
	switch {
	case mood > 0.95:
		triggers = append(triggers, triggerCatalog[EventEcstatic])
	case mood > 0.85:
		triggers = append(triggers, triggerCatalog[EventVeryHappy])
	}
	switch {
	case mood < 0.15:
		triggers = append(triggers, triggerCatalog[EventSulking])
	case mood < 0.25:
		triggers = append(triggers, triggerCatalog[EventVerySad])
	}

	if len(s.moodHistory) >= 3 {
		lo, hi := s.moodHistory[0], s.moodHistory[0]
		for _, m := range s.moodHistory {
			lo = math.Min(lo, m)
			hi = math.Max(hi, m)
		}
		if hi-lo > 0.3 {
			triggers = append(triggers, triggerCatalog[EventMoodSwing])
		}
	}
	return triggers
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
