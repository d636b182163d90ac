package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/wispcompanion/core/internal/llmapi"
	"github.com/wispcompanion/core/internal/memory"
	"github.com/wispcompanion/core/internal/prompt"
	"github.com/wispcompanion/core/internal/proactive"
	"github.com/wispcompanion/core/internal/store"
	"github.com/wispcompanion/core/internal/stream"
	"github.com/wispcompanion/core/internal/tools"
)

// defaultCoreRules is the behavioral-rules addendum to persona text
// every turn carries in step 1 of the composed prompt.
const defaultCoreRules = "Stay in character at all times. Use the control tags " +
	"([EMOTION:name|MOOD:0.0-1.0], [ACTION:name], [IMAGE_PROMPT:text], " +
	"[TOOL_CALL:name|k=v|...], [TRANSLATE:text]) exactly as documented; never " +
	"describe them to the user."

// ComposePrompt builds the ordered message list for one turn (spec.md
// §4.7/§4.11's compose_prompt(query, tool_prompt?)). query is used to
// retrieve relevant memories (step 5); pass "" to skip memory
// retrieval entirely (e.g. a proactive trigger with no user query).
func (o *Orchestrator) ComposePrompt(ctx context.Context, characterID, query string) ([]prompt.Message, error) {
	state := o.EmotionState()
	if state == nil {
		return nil, fmt.Errorf("orchestrator: no active character")
	}
	snap := state.Snapshot()
	trend := state.Trend()
	triggers := state.CheckTriggers()

	var mems []memory.Result
	if query != "" {
		k := o.cfg.Prompt.MemoryResults
		if k <= 0 {
			k = 5
		}
		res, err := o.mem.Search(ctx, characterID, query, k)
		if err != nil {
			o.log.Warn("orchestrator: memory search failed", map[string]any{"error": err.Error()})
		} else {
			mems = res
		}
	}

	summaryCount := o.cfg.Prompt.SummaryCount
	if summaryCount <= 0 {
		summaryCount = 3
	}
	summaries, err := o.mem.RecentSummaries(ctx, characterID, summaryCount)
	if err != nil {
		o.log.Warn("orchestrator: recent summaries failed", map[string]any{"error": err.Error()})
	}

	o.histMu.Lock()
	hist := append([]store.Message(nil), o.history...)
	o.histMu.Unlock()

	in := prompt.Input{
		Persona:        o.activePersona(),
		CoreRules:      defaultCoreRules,
		Language:       o.languageContext(),
		Emotion: prompt.EmotionContext{
			Emotion:  snap.Emotion,
			Mood:     snap.Mood,
			Trend:    trend,
			Tier:     proactive.TierForCount(o.conversationCount()).String(),
			Triggers: triggers,
		},
		Memories:       mems,
		Summaries:      summaries,
		History:        hist,
		HistoryBudget:  o.cfg.Prompt.HistoryTokenBudget,
		HistoryMaxMsgs: o.cfg.Prompt.HistoryMessages,
		ToolPrompt:     o.buildToolPrompt(),
	}
	return prompt.Compose(in), nil
}

func (o *Orchestrator) activePersona() string {
	o.charMu.Lock()
	defer o.charMu.Unlock()
	return o.persona
}

// conversationCount is this session's running user-turn count, used as
// the relationship-depth proxy for both the style directive and the
// Initiative module's base probability (see DESIGN.md's Open Question
// decision on relationship tier thresholds).
func (o *Orchestrator) conversationCount() int {
	o.sessMu.Lock()
	defer o.sessMu.Unlock()
	return o.userTurns
}

func (o *Orchestrator) languageContext() prompt.LanguageContext {
	o.langMu.Lock()
	userLang, respLang := o.userLanguage, o.responseLanguage
	o.langMu.Unlock()

	var lc prompt.LanguageContext
	if respLang == "" {
		return lc
	}
	lc.Preamble = fmt.Sprintf("Respond in %s unless the user explicitly asks for another language.", respLang)
	lc.CriticalInstruction = fmt.Sprintf("CRITICAL: your entire response must be written in %s. Do not switch languages mid-response.", respLang)
	lc.FinalReminder = fmt.Sprintf("(Remember: reply in %s.)", respLang)
	if userLang != "" && !strings.EqualFold(userLang, respLang) {
		lc.TranslateInstruction = fmt.Sprintf(
			"The user's display language is %s, which differs from your response language %s. "+
				"After your reply, append one line formatted exactly as [TRANSLATE: <translation of your reply into %s>].",
			userLang, respLang, userLang)
	}
	return lc
}

func (o *Orchestrator) buildToolPrompt() string {
	if o.tools == nil {
		return ""
	}
	list := o.tools.Registry().All()
	if len(list) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("You can call tools by emitting [TOOL_CALL:name|key=value|...] anywhere in your response. " +
		"You may call more than one; they execute in the order you write them. Available tools:\n")
	for _, t := range list {
		info := t.Info()
		fmt.Fprintf(&b, "- %s: %s", info.Name, info.Description)
		for _, p := range info.Parameters {
			if p.Required {
				fmt.Fprintf(&b, " [%s, required]", p.Name)
			} else {
				fmt.Fprintf(&b, " [%s]", p.Name)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// toolOutcome pairs a parsed call with what executing it produced.
type toolOutcome struct {
	call   stream.ToolCall
	result *tools.Result
}

// HandleTurn drives the Tool-Call Feedback Loop (spec.md §4.9) for one
// user message end to end: records the user turn, composes the prompt,
// streams the model, executes any tool calls up to MaxToolIterations
// rounds, and persists the final assistant message. A mid-stream
// transport failure discards the partial response and emits a
// chat-error event without touching history (spec.md §7).
func (o *Orchestrator) HandleTurn(ctx context.Context, userText string) error {
	characterID := o.activeCharacterID()

	if err := o.AddMessage(ctx, store.RoleUser, userText); err != nil {
		o.log.Warn("orchestrator: add user message failed", map[string]any{"error": err.Error()})
	}

	messages, err := o.ComposePrompt(ctx, characterID, userText)
	if err != nil {
		return err
	}

	var parsed stream.Result

	for iteration := 1; ; iteration++ {
		raw, res, err := o.streamOnce(ctx, messages)
		if err != nil {
			o.sink.ChatError(err.Error())
			return nil
		}
		parsed = res

		smoothed, expressed := o.UpdateEmotion(parsed.Emotion, parsed.Mood)
		o.sink.ChatExpression(smoothed, expressed)
		if parsed.Action != "" {
			o.sink.ChatAction(parsed.Action)
		}
		if parsed.ImagePrompt != "" {
			o.sink.ChatImageGen(parsed.ImagePrompt)
		}

		if len(parsed.ToolCalls) == 0 {
			break
		}
		if iteration > MaxToolIterations {
			o.log.Warn("orchestrator: tool loop iteration cap hit", map[string]any{"iterations": iteration})
			break
		}

		outcomes := o.executeToolCalls(ctx, characterID, iteration, parsed.ToolCalls)

		messages = append(messages, prompt.Message{Role: prompt.RoleAssistant, Content: raw})
		messages = append(messages, prompt.Message{Role: prompt.RoleSystem, Content: summarizeToolResults(outcomes)})
	}

	o.sink.ChatDone()
	return o.AddMessage(ctx, store.RoleAssistant, parsed.CleanText)
}

func (o *Orchestrator) executeToolCalls(ctx context.Context, characterID string, iteration int, calls []stream.ToolCall) []toolOutcome {
	outcomes := make([]toolOutcome, 0, len(calls))
	for i, call := range calls {
		callID := fmt.Sprintf("%s-%d-%d", call.Name, iteration, i)
		result := o.tools.Execute(ctx, callID, characterID, call.Name, call.Args)
		errMsg := ""
		if !result.Success {
			errMsg = result.Message
		}
		o.sink.ChatToolResult(call.Name, result.Data, errMsg)
		outcomes = append(outcomes, toolOutcome{call: call, result: result})
	}
	return outcomes
}

const toolResultDataTruncateLen = 4000

// summarizeToolResults assembles the synthetic system message fed back
// to the model after a round of tool execution (spec.md §4.9), with
// each result's data payload truncated to 4000 characters.
func summarizeToolResults(outcomes []toolOutcome) string {
	var b strings.Builder
	b.WriteString("Results from the tool calls in your last response:\n")
	for _, o := range outcomes {
		status := "failed"
		if o.result.Success {
			status = "succeeded"
		}
		fmt.Fprintf(&b, "- %s %s: %s", o.call.Name, status, o.result.Message)
		if len(o.result.Data) > 0 {
			fmt.Fprintf(&b, " data=%s", truncate(fmt.Sprintf("%v", o.result.Data), toolResultDataTruncateLen))
		}
		b.WriteString("\n")
	}
	b.WriteString("Continue your response naturally, incorporating these results.")
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// streamOnce runs one model call with streaming, feeding every delta
// through the Streaming Response Parser so only safe text reaches the
// EventSink, and returns the raw (uncleaned) text alongside the parsed
// result once the stream ends.
func (o *Orchestrator) streamOnce(ctx context.Context, messages []prompt.Message) (string, stream.Result, error) {
	deltas, err := o.llm.ChatStream(ctx, messages, llmapi.Params{})
	if err != nil {
		return "", stream.Result{}, err
	}

	parser := stream.New()
	var raw strings.Builder
	for delta := range deltas {
		if delta.Err != nil {
			return "", stream.Result{}, delta.Err
		}
		raw.WriteString(delta.Text)
		if safe := parser.Feed(delta.Text); safe != "" {
			o.sink.ChatDelta(safe)
		}
		if delta.Done {
			break
		}
	}
	return raw.String(), parser.Finish(), nil
}
