// Package stream is the Streaming Response Parser: it consumes text
// deltas from a model generation and separates user-safe text from the
// control tags the response format embeds in it (emotion, action, image
// prompt, tool calls, translation). The parser's shape -- a small struct
// wrapping a sink-like accumulator with one incremental feed method and
// nil-safe checks -- follows the teacher's outbound event emitter, even
// though here the stream runs the other direction.
package stream

import (
	"strconv"
	"strings"
)

// tagOpeners is the closed set of recognised control tag prefixes. Order
// doesn't matter for matching, but keeping it stable makes test failures
// easier to read.
var tagOpeners = []string{
	"[EMOTION:",
	"[ACTION:",
	"[IMAGE_PROMPT:",
	"[TOOL_CALL:",
	"[TRANSLATE:",
}

// Parser incrementally splits a stream of text deltas into safe,
// emittable text and buffered control tags. It holds no lock: a turn
// owns exactly one Parser and feeds it from a single goroutine.
type Parser struct {
	pending strings.Builder // unresolved tail, may hold a partial/complete tag
	tags    []string        // raw text of every closed tag seen so far, in order
	clean   strings.Builder // full safe text emitted so far, across all Feed calls
}

// New returns a Parser ready to consume the first delta of a turn.
func New() *Parser {
	return &Parser{}
}

// Feed appends one delta to the buffer and returns the text from it
// that is now safe to show the user. Safe text never contains a
// complete or partial recognised tag: whenever the buffered tail could
// still turn into a tag opener, Feed withholds it until either the tag
// closes (and is stashed for Finish to parse) or the tail turns out not
// to match anything, at which point it is flushed as plain text.
func (p *Parser) Feed(delta string) string {
	if p == nil {
		return ""
	}
	buf := p.pending.String() + delta
	p.pending.Reset()

	var safe strings.Builder
	for {
		idx := strings.IndexByte(buf, '[')
		if idx == -1 {
			safe.WriteString(buf)
			buf = ""
			break
		}

		before, tail := buf[:idx], buf[idx:]

		closeIdx := strings.IndexByte(tail, ']')
		if closeIdx != -1 {
			candidate := tail[:closeIdx+1]
			if startsWithAnyOpener(candidate) {
				safe.WriteString(before)
				p.tags = append(p.tags, candidate)
				buf = tail[closeIdx+1:]
				continue
			}
			// A '[' that doesn't open one of our tags is ordinary text;
			// emit it and keep scanning right after it, since a tag may
			// still start inside this bracket pair.
			safe.WriteString(before)
			safe.WriteByte('[')
			buf = tail[1:]
			continue
		}

		// No closing bracket yet. If what we have so far could still
		// grow into a recognised opener, hold it back for the next
		// delta; otherwise it's just text containing a stray '['.
		if couldBecomeOpener(tail) {
			safe.WriteString(before)
			buf = tail
			p.pending.WriteString(buf)
			buf = ""
			break
		}
		safe.WriteString(before)
		safe.WriteByte('[')
		buf = tail[1:]
	}

	out := safe.String()
	p.clean.WriteString(out)
	return out
}

// couldBecomeOpener reports whether s is a strict prefix of some
// recognised tag opener, or already starts with one (the common case
// where the opener closed but we haven't seen the closing bracket yet).
func couldBecomeOpener(s string) bool {
	for _, op := range tagOpeners {
		if strings.HasPrefix(op, s) || strings.HasPrefix(s, op) {
			return true
		}
	}
	return false
}

func startsWithAnyOpener(s string) bool {
	for _, op := range tagOpeners {
		if strings.HasPrefix(s, op) {
			return true
		}
	}
	return false
}

// Finish flushes anything left in pending as plain text (the stream
// ended, so any unclosed bracket was never going to become a tag) and
// parses every stashed tag into a Result. It is the only place emotion
// and action names are validated against their closed sets.
func (p *Parser) Finish() Result {
	if p == nil {
		return Result{}
	}
	trailing := p.pending.String()
	p.pending.Reset()
	if trailing != "" {
		p.clean.WriteString(trailing)
	}

	res := Result{CleanText: strings.TrimSpace(p.clean.String())}
	var sawEmotion bool
	for _, raw := range p.tags {
		switch {
		case strings.HasPrefix(raw, "[EMOTION:"):
			name, mood, ok := parseEmotionTag(raw)
			if ok {
				res.Emotion = name
				res.Mood = mood
				sawEmotion = true
			}
		case strings.HasPrefix(raw, "[ACTION:"):
			if name, ok := parseActionTag(raw); ok {
				res.Action = name
			}
		case strings.HasPrefix(raw, "[IMAGE_PROMPT:"):
			res.ImagePrompt = tagBody(raw, "[IMAGE_PROMPT:")
		case strings.HasPrefix(raw, "[TOOL_CALL:"):
			res.ToolCalls = append(res.ToolCalls, parseToolCallTag(raw))
		case strings.HasPrefix(raw, "[TRANSLATE:"):
			res.Translation = tagBody(raw, "[TRANSLATE:")
		}
	}

	if !sawEmotion {
		res.Emotion, res.Mood = classifyFallback(res.CleanText)
	}
	return res
}

// tagBody strips the opener and the trailing ']' from a closed tag.
func tagBody(raw, opener string) string {
	body := strings.TrimPrefix(raw, opener)
	body = strings.TrimSuffix(body, "]")
	return strings.TrimSpace(body)
}

func parseEmotionTag(raw string) (name string, mood float64, ok bool) {
	body := tagBody(raw, "[EMOTION:")
	name = body
	mood = 0.5
	if idx := strings.Index(body, "|MOOD:"); idx != -1 {
		name = body[:idx]
		if v, err := strconv.ParseFloat(body[idx+len("|MOOD:"):], 64); err == nil {
			mood = clampUnit(v)
		}
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if !validEmotions[name] {
		return "", 0, false
	}
	return name, mood, true
}

func parseActionTag(raw string) (string, bool) {
	name := strings.ToLower(tagBody(raw, "[ACTION:"))
	if !validActions[name] {
		return "", false
	}
	return name, true
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
