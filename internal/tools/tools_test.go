package tools

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func newTestExecutor() *Executor {
	reg := NewRegistry()
	reg.Register(Calculator)
	return NewExecutor(reg, AllowAllPolicy())
}

func TestCalculatorEvaluatesExpression(t *testing.T) {
	ex := newTestExecutor()
	res := ex.Execute(context.Background(), "", "char1", "calculator", map[string]any{"expression": "2 + 3 * 4"})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Data["result"] != float64(14) {
		t.Fatalf("expected 14, got %v", res.Data["result"])
	}
}

func TestCalculatorDivisionByZero(t *testing.T) {
	ex := newTestExecutor()
	res := ex.Execute(context.Background(), "", "char1", "calculator", map[string]any{"expression": "1/0"})
	if res.Success {
		t.Fatalf("expected failure on division by zero")
	}
}

func TestExecuteUnknownToolAlwaysNeedsFeedback(t *testing.T) {
	ex := newTestExecutor()
	res := ex.Execute(context.Background(), "", "char1", "does_not_exist", nil)
	if res.Success {
		t.Fatalf("expected failure for unknown tool")
	}
	if !ex.NeedsFeedback("does_not_exist") {
		t.Fatalf("expected unknown tool to always need feedback")
	}
}

func TestExecuteRespectsPolicyDenial(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Calculator)
	policy := AllowAllPolicy().Deny("calculator")
	ex := NewExecutor(reg, policy)

	res := ex.Execute(context.Background(), "", "char1", "calculator", map[string]any{"expression": "1+1"})
	if res.Success {
		t.Fatalf("expected denial to fail the call")
	}
}

func TestGuardRejectsConcurrentDuplicateCallID(t *testing.T) {
	g := NewGuard()
	if !g.Register("call-1") {
		t.Fatalf("expected first registration to succeed")
	}
	if g.Register("call-1") {
		t.Fatalf("expected duplicate registration to be rejected while in flight")
	}
	g.Complete("call-1")
	if !g.Register("call-1") {
		t.Fatalf("expected registration to succeed again after completion")
	}
}

func TestExecuteRunsRegisteredTool(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Tool{
		Tool:    mcp.Tool{Name: "slow"},
		Execute: func(ctx context.Context, characterID string, args map[string]any) (*Result, error) { return SuccessResult("ok", nil), nil },
	})
	ex := NewExecutor(reg, AllowAllPolicy())

	res := ex.Execute(context.Background(), "call-1", "char1", "slow", nil)
	if !res.Success || res.Message != "ok" {
		t.Fatalf("expected successful result, got %+v", res)
	}
}

func TestToolInfoListsRequiredParameters(t *testing.T) {
	info := Calculator.Info()
	if info.Name != "calculator" {
		t.Fatalf("unexpected name %q", info.Name)
	}
	if len(info.Parameters) != 1 || !info.Parameters[0].Required {
		t.Fatalf("expected one required parameter, got %+v", info.Parameters)
	}
}
