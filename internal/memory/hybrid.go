package memory

import (
	"regexp"
	"strings"
)

// tokenRE extracts word-like runs from arbitrary Unicode text. Anchoring
// on letters/digits/underscore means a raw query can never smuggle an
// FTS5 operator (AND, OR, NOT, *, quotes, parentheses) into the query we
// build — every token is individually re-quoted below.
var tokenRE = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// buildFTSQuery turns free-form user text into a safe FTS5 MATCH
// expression: every token is double-quoted (so FTS treats it as a
// literal phrase, not an operator) and tokens are OR-joined, per
// spec.md §4.3, so a lexical query recovers a memory matching any one
// of its words rather than requiring every word to appear.
func buildFTSQuery(raw string) string {
	tokens := tokenRE.FindAllString(raw, -1)
	if len(tokens) == 0 {
		return ""
	}
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.ReplaceAll(tok, `"`, "")
		if tok == "" {
			continue
		}
		parts = append(parts, `"`+tok+`"`)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " OR ")
}

// reciprocalRankScore turns a 0-based result position into a score in
// (0, 1], best match first — position 0 scores 1, position 1 scores 0.5,
// and so on, the same curve the teacher's BM25RankToScore applies to a
// raw bm25 rank.
func reciprocalRankScore(position int) float64 {
	if position < 0 {
		position = 0
	}
	return 1 / (1 + float64(position))
}
