// Package llmapi defines the capability interfaces the conversational
// core consumes from a language model backend, trimmed from the
// teacher's AIProvider/GenerateParams/StreamEvent surface down to the
// subset the specification actually names: a blocking call and a
// streaming call, both taking the composer's ordered message list.
package llmapi

import (
	"context"

	"github.com/wispcompanion/core/internal/prompt"
)

// Params carries the optional generation knobs the specification names.
// Pointers distinguish "not set" from the zero value.
type Params struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
	Stop        []string
}

// LanguageModel is the consumed capability: a blocking chat call and a
// streaming one. Errors are returned directly; transient transport
// failures are retried by the backend, not by callers of this
// interface.
type LanguageModel interface {
	Chat(ctx context.Context, messages []prompt.Message, params Params) (string, error)
	ChatStream(ctx context.Context, messages []prompt.Message, params Params) (<-chan StreamDelta, error)
}

// StreamDelta is one chunk of a streaming response. At most one of
// Text or Err is set; Done marks the final delta, which may carry
// trailing Text or neither field.
type StreamDelta struct {
	Text string
	Err  error
	Done bool
}
