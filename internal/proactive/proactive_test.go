package proactive

import (
	"testing"
	"time"
)

func TestCuriosityAddDedupsByTopic(t *testing.T) {
	c := NewCuriosity()
	c.AddTopic("coffee preferences", 0.5, SourceConversation)
	c.AddTopic("coffee preferences", 0.9, SourceMemory)
	if c.Len() != 1 {
		t.Fatalf("expected dedup to keep a single item, got %d", c.Len())
	}
	item, ok := c.Pick()
	if !ok || item.Relevance != 0.9 || item.Source != SourceMemory {
		t.Fatalf("expected refreshed item, got %+v ok=%v", item, ok)
	}
}

func TestCuriosityEvictsOldestAtCapacity(t *testing.T) {
	c := NewCuriosity()
	for i := range maxCuriosityItems + 3 {
		c.AddTopic(string(rune('a'+i)), 0.1, SourceConversation)
	}
	if c.Len() != maxCuriosityItems {
		t.Fatalf("expected bounded FIFO at %d, got %d", maxCuriosityItems, c.Len())
	}
}

func TestCuriosityPickReturnsHighestRelevance(t *testing.T) {
	c := NewCuriosity()
	c.AddTopic("low", 0.1, SourceConversation)
	c.AddTopic("high", 0.9, SourceMemory)
	c.AddTopic("mid", 0.5, SourceConversation)

	item, ok := c.Pick()
	if !ok || item.Topic != "high" {
		t.Fatalf("expected highest-relevance item first, got %+v", item)
	}
	if c.Len() != 2 {
		t.Fatalf("expected picked item removed, len=%d", c.Len())
	}
}

func TestCuriosityDecayDropsStaleItems(t *testing.T) {
	fixedNow := time.Unix(1_000_000, 0)
	c := NewCuriosity()
	c.now = func() time.Time { return fixedNow.Add(-25 * time.Hour) }
	c.AddTopic("stale", 0.8, SourceMemory)
	c.now = func() time.Time { return fixedNow }
	c.AddTopic("fresh", 0.8, SourceMemory)

	c.Decay()
	if c.Len() != 1 {
		t.Fatalf("expected stale item dropped, len=%d", c.Len())
	}
	item, _ := c.Pick()
	if item.Topic != "fresh" {
		t.Fatalf("expected fresh item to survive decay, got %q", item.Topic)
	}
	if item.Relevance >= 0.8 {
		t.Fatalf("expected decay to dampen relevance, got %v", item.Relevance)
	}
}

func TestInitiativeStaysQuietBelowIdleThreshold(t *testing.T) {
	in := NewInitiative()
	in.roll = func() float64 { return 0 } // would always succeed if reached
	d := in.Decide(nil, 0.8, 0.8, 50, 30)
	if d.Kind != StayQuiet {
		t.Fatalf("expected StayQuiet below idle threshold, got %v", d.Kind)
	}
}

func TestInitiativeRespectsCooldown(t *testing.T) {
	fixedNow := time.Unix(1_000_000, 0)
	in := NewInitiative()
	in.now = func() time.Time { return fixedNow }
	in.roll = func() float64 { return 0 }
	first := in.Decide(nil, 0.8, 0.8, 50, 120)
	if first.Kind == StayQuiet {
		t.Fatalf("expected first decision to act, got StayQuiet")
	}
	second := in.Decide(nil, 0.8, 0.8, 50, 120)
	if second.Kind != StayQuiet {
		t.Fatalf("expected cooldown to force StayQuiet immediately after acting")
	}
}

func TestInitiativePicksAskQuestionForMemoryTopic(t *testing.T) {
	in := NewInitiative()
	in.roll = func() float64 { return 0 }
	c := NewCuriosity()
	c.AddTopic("last trip", 0.9, SourceMemory)

	d := in.Decide(c, 0.8, 0.8, 50, 120)
	if d.Kind != AskQuestion || d.Topic != "last trip" {
		t.Fatalf("expected AskQuestion for a memory-sourced topic, got %+v", d)
	}
}

func TestInitiativeFallsBackToRandomShareThought(t *testing.T) {
	in := NewInitiative()
	in.roll = func() float64 { return 0 }
	d := in.Decide(NewCuriosity(), 0.8, 0.8, 50, 120)
	if d.Kind != ShareThought || d.Topic != "random" {
		t.Fatalf("expected fallback ShareThought with topic random, got %+v", d)
	}
}

func TestIdleRespectsCooldownAndThreshold(t *testing.T) {
	id := NewIdle()
	id.roll = func() float64 { return 0 }
	if _, ok := id.Decide(0.5, 5); ok {
		t.Fatalf("expected no behavior below idle threshold")
	}
	if _, ok := id.Decide(0.5, 20); !ok {
		t.Fatalf("expected a behavior once idle threshold clears")
	}
	if _, ok := id.Decide(0.5, 20); ok {
		t.Fatalf("expected cooldown to block an immediate second behavior")
	}
}

func TestIdlePicksByMoodBand(t *testing.T) {
	id := NewIdle()
	id.roll = func() float64 { return 0 }
	id.pick = func(n int) int { return 0 }

	low, _ := id.Decide(0.1, 3600)
	if low != BehaviorSigh {
		t.Fatalf("expected low mood to pick Sigh, got %v", low)
	}
}
