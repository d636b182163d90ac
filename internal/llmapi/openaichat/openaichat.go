// Package openaichat implements llmapi.LanguageModel against an
// OpenAI-compatible Chat Completions endpoint. Adapted from the
// teacher's Responses-API provider: same client construction and the
// same goroutine-plus-channel streaming shape, but built on
// client.Chat.Completions.New/NewStreaming since this core needs only
// plain text-delta streaming -- no response-ID continuation, no
// native tool-calling (tool calls are inline text tags the core's own
// stream parser extracts).
package openaichat

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"

	"github.com/wispcompanion/core/internal/llmapi"
	"github.com/wispcompanion/core/internal/prompt"
)

// Backend implements llmapi.LanguageModel against one model.
type Backend struct {
	client openai.Client
	model  string
	log    zerolog.Logger
}

// New builds a Backend. baseURL may be empty to use OpenAI's default
// endpoint, or set to point at an OpenAI-compatible gateway.
func New(apiKey, baseURL, model string, log zerolog.Logger) *Backend {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Backend{
		client: openai.NewClient(opts...),
		model:  model,
		log:    log.With().Str("component", "openaichat").Logger(),
	}
}

func toChatMessages(messages []prompt.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case prompt.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case prompt.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func applyParams(req *openai.ChatCompletionNewParams, params llmapi.Params) {
	if params.Temperature != nil {
		req.Temperature = openai.Float(*params.Temperature)
	}
	if params.MaxTokens != nil {
		req.MaxCompletionTokens = openai.Int(int64(*params.MaxTokens))
	}
	if params.TopP != nil {
		req.TopP = openai.Float(*params.TopP)
	}
}

// Chat performs a single blocking completion.
func (b *Backend) Chat(ctx context.Context, messages []prompt.Message, params llmapi.Params) (string, error) {
	req := openai.ChatCompletionNewParams{
		Model:    b.model,
		Messages: toChatMessages(messages),
	}
	applyParams(&req, params)

	resp, err := b.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openaichat: chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openaichat: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// ChatStream performs a streaming completion, emitting one
// llmapi.StreamDelta per text chunk on the returned channel. The
// channel is closed after the final delta (Done=true) or an error.
func (b *Backend) ChatStream(ctx context.Context, messages []prompt.Message, params llmapi.Params) (<-chan llmapi.StreamDelta, error) {
	req := openai.ChatCompletionNewParams{
		Model:    b.model,
		Messages: toChatMessages(messages),
	}
	applyParams(&req, params)

	out := make(chan llmapi.StreamDelta, 64)

	go func() {
		defer close(out)

		stream := b.client.Chat.Completions.NewStreaming(ctx, req)
		if stream == nil {
			out <- llmapi.StreamDelta{Err: fmt.Errorf("openaichat: failed to open stream")}
			return
		}
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta != "" {
				out <- llmapi.StreamDelta{Text: delta}
			}
		}

		if err := stream.Err(); err != nil {
			out <- llmapi.StreamDelta{Err: fmt.Errorf("openaichat: stream error: %w", err)}
			return
		}

		out <- llmapi.StreamDelta{Done: true}
	}()

	return out, nil
}
