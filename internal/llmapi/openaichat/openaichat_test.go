package openaichat

import (
	"testing"

	"github.com/openai/openai-go/v3"

	"github.com/wispcompanion/core/internal/llmapi"
	"github.com/wispcompanion/core/internal/prompt"
)

func TestToChatMessagesPreservesRoleOrder(t *testing.T) {
	msgs := []prompt.Message{
		{Role: prompt.RoleSystem, Content: "be nice"},
		{Role: prompt.RoleUser, Content: "hello"},
		{Role: prompt.RoleAssistant, Content: "hi there"},
	}

	got := toChatMessages(msgs)
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	if got[0].OfSystem == nil {
		t.Fatalf("expected first message to be a system message")
	}
	if got[1].OfUser == nil {
		t.Fatalf("expected second message to be a user message")
	}
	if got[2].OfAssistant == nil {
		t.Fatalf("expected third message to be an assistant message")
	}
}

func TestApplyParamsOnlySetsProvidedFields(t *testing.T) {
	var zero openai.ChatCompletionNewParams
	req := zero
	applyParams(&req, llmapi.Params{})
	if req.Temperature != zero.Temperature {
		t.Fatalf("expected temperature untouched when not set")
	}

	temp := 0.7
	maxTok := 256
	topP := 0.9
	applyParams(&req, llmapi.Params{Temperature: &temp, MaxTokens: &maxTok, TopP: &topP, Stop: []string{"STOP"}})
	if req.Temperature == zero.Temperature {
		t.Fatalf("expected temperature to be set")
	}
	if req.MaxCompletionTokens == zero.MaxCompletionTokens {
		t.Fatalf("expected max completion tokens to be set")
	}
	if req.TopP == zero.TopP {
		t.Fatalf("expected top_p to be set")
	}
}
