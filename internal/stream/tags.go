package stream

// Result is everything Finish extracts from one turn's full response.
type Result struct {
	CleanText   string
	Emotion     string
	Mood        float64
	Action      string
	ImagePrompt string
	Translation string
	ToolCalls   []ToolCall
}

// ToolCall is one parsed [TOOL_CALL:name|k=v|...] invocation, in the
// order it appeared in the response.
type ToolCall struct {
	Name string
	Args map[string]any
}

// validEmotions is the closed set of emotion names the companion's
// expression system understands. Anything else is discarded, not
// surfaced as an error, per the tag parser's "never corrupt the reply"
// contract.
var validEmotions = map[string]bool{
	"neutral":   true,
	"happy":     true,
	"sad":       true,
	"angry":     true,
	"surprised": true,
	"thinking":  true,
	"shy":       true,
	"smug":      true,
	"worried":   true,
	"excited":   true,
}

// validActions is the closed set of non-verbal animations the host can
// play.
var validActions = map[string]bool{
	"idle":     true,
	"nod":      true,
	"shake":    true,
	"wave":     true,
	"dance":    true,
	"shy":      true,
	"think":    true,
	"surprise": true,
	"cheer":    true,
	"tap":      true,
}
