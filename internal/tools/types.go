// Package tools is the ToolHandler capability side of the tool-call
// feedback loop: a registry of callable tools, a policy gate, duplicate
// guarding, and an executor that turns a parsed tool call into a result
// the orchestrator's tool loop can feed back to the model.
package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolType categorizes a tool by where its execution logic lives.
type ToolType string

const (
	ToolTypeBuiltin ToolType = "builtin"
	ToolTypeMCP     ToolType = "mcp"
)

// Tool wraps an MCP tool descriptor with the core's execution logic.
// Embedding mcp.Tool gives Name/Description/InputSchema for free and
// lets a Tool be listed directly to an MCP-speaking client.
type Tool struct {
	mcp.Tool
	Type ToolType
	Group string

	// NeedsFeedback is advisory: when false, the orchestrator's tool
	// loop may choose to stop re-prompting after this call succeeds.
	// Unknown tools are always treated as needing feedback regardless
	// of this field, since swallowing data the model asked for is
	// worse than one extra round trip.
	NeedsFeedback bool

	// Execute runs the tool for one character. ctx carries cancellation
	// only; any host-side-effect handle the tool needs is closed over
	// at registration time.
	Execute func(ctx context.Context, characterID string, args map[string]any) (*Result, error)
}

// Result is the capability-level {success, message, data?} the
// specification's ToolHandler contract returns.
type Result struct {
	Success bool
	Message string
	Data    map[string]any
}

// SuccessResult builds a successful result with an optional data payload.
func SuccessResult(message string, data map[string]any) *Result {
	return &Result{Success: true, Message: message, Data: data}
}

// FailureResult builds a failed result. Failures are never returned as
// Go errors from the executor -- they're fed back to the model as
// ordinary tool results, per the "never abort the turn" contract.
func FailureResult(message string) *Result {
	return &Result{Success: false, Message: message}
}

// ToolInfo is the listing-friendly view of a registered tool, used to
// build the tool-description block the composer injects into the
// prompt.
type ToolInfo struct {
	Name        string
	Description string
	Parameters  []ParamInfo
}

// ParamInfo describes one tool parameter for the prompt-injected
// description block.
type ParamInfo struct {
	Name        string
	Description string
	Required    bool
}
