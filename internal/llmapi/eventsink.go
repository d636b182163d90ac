package llmapi

// EventSink is the fire-and-forget channel the core uses to push
// named events to whatever frontend is attached. Every method is a
// plain notification -- no return value, no error -- mirroring the
// teacher's OnEvent callback shape used throughout pkg/cron and
// pkg/airuntime/stream.
type EventSink interface {
	ChatDelta(text string)
	ChatExpression(expression string, mood float64)
	ChatAction(action string)
	ChatImageGen(prompt string)
	ChatToolResult(tool string, result map[string]any, errMsg string)
	ChatDone()
	ChatError(message string)
	IdleBehavior(payload map[string]any)
	ExpressionFrame(frame any)
	EmotionEvent(event any)
	ProactiveTrigger(payload map[string]any)
}

// NopSink discards every event. Useful as a default when a caller
// doesn't care about frontend notification (tests, batch extraction).
type NopSink struct{}

func (NopSink) ChatDelta(string)                                {}
func (NopSink) ChatExpression(string, float64)                  {}
func (NopSink) ChatAction(string)                               {}
func (NopSink) ChatImageGen(string)                             {}
func (NopSink) ChatToolResult(string, map[string]any, string)   {}
func (NopSink) ChatDone()                                       {}
func (NopSink) ChatError(string)                                {}
func (NopSink) IdleBehavior(map[string]any)                     {}
func (NopSink) ExpressionFrame(any)                             {}
func (NopSink) EmotionEvent(any)                                {}
func (NopSink) ProactiveTrigger(map[string]any)                 {}
