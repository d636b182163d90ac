package tools

import (
	"context"
	"fmt"

	"github.com/wispcompanion/core/internal/corerr"
)

// Executor runs tool calls under a registry and policy. Execute never
// returns a Go error -- unknown name, denied by policy, bad args, or the
// tool's own Execute returning an error (including one caused by a
// cancelled context) all become a failed Result, so the caller can
// always feed the outcome back to the model instead of aborting the
// turn.
type Executor struct {
	registry *Registry
	policy   *Policy
	guard    *Guard
}

// NewExecutor builds an executor. A nil policy defaults to allow-all.
func NewExecutor(registry *Registry, policy *Policy) *Executor {
	if policy == nil {
		policy = AllowAllPolicy()
	}
	return &Executor{registry: registry, policy: policy, guard: NewGuard()}
}

// Registry returns the underlying registry.
func (e *Executor) Registry() *Registry { return e.registry }

// NeedsFeedback reports whether the loop should keep re-prompting after
// this tool call. Unknown tools always need feedback: swallowing data
// the model asked for is worse than one extra round trip.
func (e *Executor) NeedsFeedback(name string) bool {
	t := e.registry.Get(name)
	if t == nil {
		return true
	}
	return t.NeedsFeedback
}

// Execute runs one call by id, rejecting a call id that is still in
// flight and enforcing policy before dispatch.
func (e *Executor) Execute(ctx context.Context, callID, characterID, name string, args map[string]any) *Result {
	if callID != "" {
		if !e.guard.Register(callID) {
			return FailureResult(fmt.Sprintf("duplicate tool call: %s", callID))
		}
		defer e.guard.Complete(callID)
	}

	tool := e.registry.Get(name)
	if tool == nil {
		return FailureResult(fmt.Sprintf("%v: %s", corerr.ErrToolNotFound, name))
	}
	if !e.policy.IsAllowed(name) {
		return FailureResult(fmt.Sprintf("tool %s is not allowed", name))
	}
	if tool.Execute == nil {
		return FailureResult(fmt.Sprintf("tool %s has no executor", name))
	}

	result, err := tool.Execute(ctx, characterID, args)
	if err != nil {
		return FailureResult(fmt.Sprintf("%v: %v", corerr.ErrToolExecution, err))
	}
	if result == nil {
		return FailureResult("tool returned no result")
	}
	return result
}
