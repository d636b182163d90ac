// Package proactive implements the Curiosity, Initiative, and Idle
// Behavior subsystems that let the companion act without being prompted.
package proactive

import (
	"sync"
	"time"
)

// CuriositySource names where a curiosity item came from, since
// Initiative's AskQuestion behavior only fires for memory-sourced items.
type CuriositySource string

const (
	SourceMemory       CuriositySource = "memory"
	SourceConversation CuriositySource = "conversation"
)

// CuriosityItem is one open thread the companion might bring up later.
type CuriosityItem struct {
	Topic     string
	Relevance float64
	Source    CuriositySource
	AddedAt   time.Time
}

const maxCuriosityItems = 10

// Curiosity is a bounded, topic-deduped FIFO of things the companion
// noticed and might want to follow up on. Single mutex guards the small
// slice — volumes stay under 10 items so RWMutex bookkeeping like the
// tool registry's would be overkill here.
type Curiosity struct {
	mu    sync.Mutex
	items []CuriosityItem
	now   func() time.Time
}

// NewCuriosity builds an empty Curiosity FIFO.
func NewCuriosity() *Curiosity {
	return &Curiosity{now: time.Now}
}

// AddTopic records a new curiosity item, deduped by topic (a repeat
// topic refreshes relevance/AddedAt instead of creating a duplicate
// entry). Evicts the oldest item if the FIFO is already at capacity.
// Exported and otherwise unwired: invoking it is the host application's
// responsibility, since the core has no fixed opinion on what counts as
// "interesting." The expected feeders are the memory extractor's newly
// stored facts and the host's detection of questions left unresolved in
// conversation; nothing in this core calls AddTopic itself.
func (c *Curiosity) AddTopic(topic string, relevance float64, source CuriositySource) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, item := range c.items {
		if item.Topic == topic {
			c.items[i].Relevance = relevance
			c.items[i].AddedAt = c.now()
			c.items[i].Source = source
			return
		}
	}

	if len(c.items) >= maxCuriosityItems {
		c.items = c.items[1:]
	}
	c.items = append(c.items, CuriosityItem{Topic: topic, Relevance: relevance, Source: source, AddedAt: c.now()})
}

// Pick removes and returns the highest-relevance item, or false if empty.
func (c *Curiosity) Pick() (CuriosityItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) == 0 {
		return CuriosityItem{}, false
	}
	best := 0
	for i, item := range c.items {
		if item.Relevance > c.items[best].Relevance {
			best = i
		}
	}
	picked := c.items[best]
	c.items = append(c.items[:best], c.items[best+1:]...)
	return picked, true
}

// Decay drops items older than 24h and dampens the relevance of the rest.
func (c *Curiosity) Decay() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-24 * time.Hour)
	fresh := c.items[:0]
	for _, item := range c.items {
		if item.AddedAt.Before(cutoff) {
			continue
		}
		item.Relevance *= 0.95
		fresh = append(fresh, item)
	}
	c.items = fresh
}

// Len reports the current item count, mostly for tests/observability.
func (c *Curiosity) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
