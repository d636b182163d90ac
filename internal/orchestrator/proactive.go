package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/wispcompanion/core/internal/emotion"
	"github.com/wispcompanion/core/internal/heartbeat"
	"github.com/wispcompanion/core/internal/proactive"
	"github.com/wispcompanion/core/internal/prompt"
	"github.com/wispcompanion/core/internal/store"
)

func emotionSnapshotFrom(characterID string, snap emotion.Snapshot, now time.Time) store.EmotionSnapshot {
	return store.EmotionSnapshot{
		CharacterID:        characterID,
		Emotion:            snap.Emotion,
		Mood:               snap.Mood,
		AccumulatedInertia: snap.AccumulatedInertia,
		UpdatedAt:          now.Unix(),
	}
}

// decideProactive asks the Initiative module for a decision, given the
// active character's current mood/expressiveness and this session's
// relationship-depth proxy. Returns ok=false for StayQuiet so the
// Heartbeat's hook contract can treat "nothing to do" uniformly.
func (o *Orchestrator) decideProactive(idleSeconds float64) (proactive.Decision, bool) {
	if o.init == nil {
		return proactive.Decision{}, false
	}
	state := o.EmotionState()
	if state == nil {
		return proactive.Decision{}, false
	}
	snap := state.Snapshot()
	expressiveness := o.personalityExpressiveness()

	decision := o.init.Decide(o.curiosity, snap.Mood, expressiveness, o.conversationCount(), idleSeconds)
	if decision.Kind == proactive.StayQuiet {
		return proactive.Decision{}, false
	}
	return decision, true
}

// personalityExpressiveness reads the active character's expressiveness
// without exposing the whole Personality struct outside the emotion
// package's own accessors.
func (o *Orchestrator) personalityExpressiveness() float64 {
	state := o.EmotionState()
	if state == nil {
		return 0.6
	}
	// Expression frame's Intensity already folds expressiveness with
	// mood distance from 0.5; at mood==0.5 intensity==expressiveness*0.5,
	// so recover it directly rather than adding a second accessor for a
	// single float already computable from the public surface.
	frame := state.ExpressionFrame()
	snap := state.Snapshot()
	distance := snap.Mood - 0.5
	if distance < 0 {
		distance = -distance
	}
	denom := 0.5 + distance
	if denom == 0 {
		return 0.6
	}
	return frame.Intensity / denom
}

// buildProactivePrompt assembles the prompt messages for a fired
// Initiative decision (spec.md §4.10 step 4): persona + relationship
// context + time-of-day context + emotion description + recent history
// + an instruction fragment specific to the decision kind.
func (o *Orchestrator) buildProactivePrompt(ctx context.Context, decision proactive.Decision) ([]prompt.Message, bool) {
	characterID := o.activeCharacterID()
	messages, err := o.ComposePrompt(ctx, characterID, "")
	if err != nil {
		o.log.Warn("orchestrator: proactive prompt compose failed", map[string]any{"error": err.Error()})
		return nil, false
	}

	var instruction string
	switch decision.Kind {
	case proactive.AskQuestion:
		instruction = fmt.Sprintf("It's been a while since you last spoke. Naturally bring up a question about: %s.", decision.Topic)
	case proactive.ShareThought:
		if decision.Topic == "random" || decision.Topic == "" {
			instruction = "It's been a while since you last spoke. Share a small, in-character thought or observation out of the blue."
		} else {
			instruction = fmt.Sprintf("It's been a while since you last spoke. Share a thought about: %s.", decision.Topic)
		}
	default:
		return nil, false
	}

	timeOfDay := timeOfDayContext(time.Now())
	return append(messages, prompt.Message{Role: prompt.RoleSystem, Content: timeOfDay + " " + instruction}), true
}

func timeOfDayContext(t time.Time) string {
	switch h := t.Hour(); {
	case h < 5:
		return "It's the middle of the night."
	case h < 12:
		return "It's morning."
	case h < 17:
		return "It's afternoon."
	case h < 21:
		return "It's evening."
	default:
		return "It's late at night."
	}
}

// HeartbeatHooks wires this Orchestrator's curiosity/emotion/initiative
// state into a heartbeat.Hooks struct, so the Heartbeat scheduler never
// has to import emotion/memory/proactive itself (see internal/heartbeat's
// package doc).
func (o *Orchestrator) HeartbeatHooks(ctx context.Context) heartbeat.Hooks {
	return heartbeat.Hooks{
		DecayCuriosity: func() {
			if o.curiosity != nil {
				o.curiosity.Decay()
			}
		},
		DecideIdleBehavior: func(idleSeconds float64) (string, bool) {
			if o.idle == nil {
				return "", false
			}
			state := o.EmotionState()
			if state == nil {
				return "", false
			}
			behavior, ok := o.idle.Decide(state.Snapshot().Mood, idleSeconds)
			return string(behavior), ok
		},
		DecayEmotion: func() {
			if state := o.EmotionState(); state != nil {
				state.DecayTowardDefault()
			}
		},
		SnapshotEmotion: func() {
			state := o.EmotionState()
			if state == nil {
				return
			}
			snap := state.Snapshot()
			characterID := o.activeCharacterID()
			if characterID == "" {
				return
			}
			if err := o.mem.SaveEmotionSnapshot(ctx, emotionSnapshotFrom(characterID, snap, o.now())); err != nil {
				o.log.Warn("orchestrator: save emotion snapshot failed", map[string]any{"error": err.Error()})
			}
		},
		EmotionFrame: func() any {
			state := o.EmotionState()
			if state == nil {
				return nil
			}
			return state.ExpressionFrame()
		},
		CheckEmotionTriggers: func() ([]any, bool) {
			state := o.EmotionState()
			if state == nil {
				return nil, false
			}
			trigs := state.CheckTriggers()
			if len(trigs) == 0 {
				return nil, false
			}
			out := make([]any, len(trigs))
			for i, trig := range trigs {
				out[i] = trig
			}
			return out, true
		},
		IdleSeconds:               o.IdleSeconds,
		SecondsSinceLastProactive: o.SecondsSinceLastProactive,
		ProactiveEnabled:          o.ProactiveEnabled,
		DecideProactive: func(idleSeconds float64) (any, bool) {
			return o.decideProactive(idleSeconds)
		},
		BuildProactivePrompt: func(decision any) (any, bool) {
			d, ok := decision.(proactive.Decision)
			if !ok {
				return nil, false
			}
			return o.buildProactivePrompt(ctx, d)
		},
		TouchActivity: func() {
			o.MarkProactiveFired()
			o.TouchActivity()
		},
	}
}
