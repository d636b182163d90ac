// Package extractor implements the Memory Extractor (spec.md §4.12): a
// background job, triggered by the Orchestrator every
// orchestrator.ExtractEveryNMessages user turns, that asks the model to
// summarize new noteworthy facts from recent turns as scored JSON and
// inserts each one through the Memory Manager's dedup-aware Add. The
// detached-task shape follows spec.md §9's "shared ref-counted handle
// into tasks" note; there is no single teacher file for this, since the
// teacher's closest analogue (session summarization) is synchronous.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wispcompanion/core/internal/corelog"
	"github.com/wispcompanion/core/internal/llmapi"
	"github.com/wispcompanion/core/internal/memory"
	"github.com/wispcompanion/core/internal/prompt"
	"github.com/wispcompanion/core/internal/store"
)

// MaxExistingMemories bounds how many existing facts are shown to the
// model as "already known", so the extraction prompt can't grow
// unbounded as a character accumulates memories.
const MaxExistingMemories = 200

// fact is one element of the model's JSON array output.
type fact struct {
	Fact       string  `json:"fact"`
	Importance float64 `json:"importance"`
}

// Extractor runs the background extraction job.
type Extractor struct {
	mem *memory.Manager
	llm llmapi.LanguageModel
	log corelog.Logger
}

// New builds an Extractor. A nil Logger defaults to a no-op sink.
func New(mem *memory.Manager, llm llmapi.LanguageModel, log corelog.Logger) *Extractor {
	if log == nil {
		log = corelog.Nop{}
	}
	return &Extractor{mem: mem, llm: llm, log: log}
}

// Run fetches the character's existing memories, asks the model for new
// noteworthy facts from recentTurns via a single blocking call, and
// inserts each returned fact through the Memory Manager (which handles
// dedup). Any failure -- model transport, JSON parse, both fallback
// parses -- is logged and swallowed; spec.md §7 treats extraction as
// best-effort and never lets it fail the turn it was triggered from.
func (e *Extractor) Run(ctx context.Context, characterID string, recentTurns []store.Message) error {
	existing, err := e.mem.List(ctx, characterID, MaxExistingMemories, 0)
	if err != nil {
		e.log.Warn("extractor: listing existing memories failed", map[string]any{"error": err.Error()})
		existing = nil
	}

	messages := buildExtractionPrompt(existing, recentTurns)
	raw, err := e.llm.Chat(ctx, messages, llmapi.Params{})
	if err != nil {
		e.log.Warn("extractor: model call failed", map[string]any{"error": err.Error()})
		return nil
	}

	facts, ok := parseFacts(raw)
	if !ok {
		e.log.Warn("extractor: could not parse model output as facts", map[string]any{"raw_len": len(raw)})
		return nil
	}

	for _, f := range facts {
		text := strings.TrimSpace(f.Fact)
		if text == "" {
			continue
		}
		importance := f.Importance
		if importance <= 0 {
			importance = 0.5
		}
		if importance > 1 {
			importance = 1
		}
		if _, _, err := e.mem.Add(ctx, characterID, text, importance); err != nil {
			e.log.Warn("extractor: add_memory_with_importance failed", map[string]any{"error": err.Error()})
		}
	}
	return nil
}

func buildExtractionPrompt(existing []store.Memory, recentTurns []store.Message) []prompt.Message {
	var known strings.Builder
	if len(existing) == 0 {
		known.WriteString("(none yet)")
	}
	for _, m := range existing {
		fmt.Fprintf(&known, "- %s\n", m.Content)
	}

	var transcript strings.Builder
	for _, m := range recentTurns {
		fmt.Fprintf(&transcript, "%s: %s\n", m.Role, m.Content)
	}

	instruction := "You are extracting durable facts about the user from a conversation so a " +
		"companion can remember them later. Facts already known:\n" + known.String() +
		"\n\nRecent conversation:\n" + transcript.String() +
		"\n\nOutput ONLY a JSON array of objects {\"fact\": string, \"importance\": number between 0 and 1}, " +
		"covering new noteworthy facts not already represented above. If there is nothing new, output []. " +
		"Do not include any other text."

	return []prompt.Message{{Role: prompt.RoleSystem, Content: instruction}}
}

// parseFacts strips markdown code fences, tries the documented
// {fact, importance} object array, and falls back to a plain string
// array (importance defaults to 0.5 for each) before giving up.
func parseFacts(raw string) ([]fact, bool) {
	body := stripCodeFences(raw)

	var facts []fact
	if err := json.Unmarshal([]byte(body), &facts); err == nil {
		return facts, true
	}

	var plain []string
	if err := json.Unmarshal([]byte(body), &plain); err == nil {
		out := make([]fact, 0, len(plain))
		for _, s := range plain {
			out = append(out, fact{Fact: s, Importance: 0.5})
		}
		return out, true
	}

	return nil, false
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl != -1 {
		first := s[:nl]
		if !strings.Contains(first, "[") && !strings.Contains(first, "{") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
