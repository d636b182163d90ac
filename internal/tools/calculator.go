package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GroupCalc is the policy group the calculator belongs to.
const GroupCalc = "group:calc"

// Calculator is the one builtin tool the core ships: letting a
// companion answer arithmetic without routing it through the language
// model, which is cheap to get wrong.
var Calculator = &Tool{
	Tool: mcp.Tool{
		Name:        "calculator",
		Description: "Perform basic arithmetic. Supports +, -, *, /, %, and parentheses.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"expression": map[string]any{
					"type":        "string",
					"description": "A mathematical expression to evaluate, e.g. '2 + 3 * 4'",
				},
			},
			"required": []string{"expression"},
		},
	},
	Type:          ToolTypeBuiltin,
	Group:         GroupCalc,
	NeedsFeedback: true,
	Execute:       executeCalculator,
}

func executeCalculator(_ context.Context, _ string, args map[string]any) (*Result, error) {
	expr, ok := args["expression"].(string)
	if !ok || expr == "" {
		return FailureResult("expression is required"), nil
	}
	result, err := evalExpression(expr)
	if err != nil {
		return FailureResult(fmt.Sprintf("calculation error: %v", err)), nil
	}
	return SuccessResult(fmt.Sprintf("%.6g", result), map[string]any{
		"expression": expr,
		"result":     result,
	}), nil
}
