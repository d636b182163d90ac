package prompt

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	tokenizerOnce sync.Once
	tokenizer     *tiktoken.Tiktoken
	tokenizerErr  error
)

// getTokenizer lazily loads a single cl100k_base encoder. The teacher's
// aitokens package caches one encoder per model name; the composer only
// ever needs an approximate count for budget trimming, so a single
// shared encoding (the one the teacher falls back to for any unknown
// model) is enough here.
func getTokenizer() (*tiktoken.Tiktoken, error) {
	tokenizerOnce.Do(func() {
		tokenizer, tokenizerErr = tiktoken.GetEncoding("cl100k_base")
	})
	return tokenizer, tokenizerErr
}

// estimateTokens approximates the token count of a string. Falls back to
// a rough character-based heuristic if the encoder failed to load, so a
// missing/broken tiktoken data file degrades trimming instead of
// crashing prompt composition.
func estimateTokens(text string) int {
	tkm, err := getTokenizer()
	if err != nil || tkm == nil {
		return len(text) / 4
	}
	return len(tkm.Encode(text, nil, nil))
}
