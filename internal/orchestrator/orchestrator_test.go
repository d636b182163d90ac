package orchestrator

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wispcompanion/core/internal/config"
	"github.com/wispcompanion/core/internal/llmapi"
	"github.com/wispcompanion/core/internal/memory"
	"github.com/wispcompanion/core/internal/prompt"
	"github.com/wispcompanion/core/internal/store"
	"github.com/wispcompanion/core/internal/tools"
)

// fakeExtractor counts how many times a Memory Extractor run was asked
// for, without doing any real work.
type fakeExtractor struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeExtractor) Run(context.Context, string, []store.Message) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return nil
}

func (f *fakeExtractor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeSupervisor captures extraction launches instead of running a real
// heartbeat, so a test can assert the Orchestrator routed through it
// rather than a bare unsupervised goroutine.
type fakeSupervisor struct {
	mu  sync.Mutex
	fns []func(context.Context) error
}

func (f *fakeSupervisor) RunExtraction(fn func(context.Context) error) {
	f.mu.Lock()
	f.fns = append(f.fns, fn)
	f.mu.Unlock()
}

func (f *fakeSupervisor) Launched() []func(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]func(context.Context) error(nil), f.fns...)
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	sum := 0
	for _, r := range text {
		sum += int(r)
	}
	return []float32{float32(sum % 97), float32((sum / 7) % 97), 1}, nil
}

// fakeModel replays a queue of scripted responses, one per ChatStream
// call, so a test can drive the Tool-Call Feedback Loop through a fixed
// number of iterations deterministically.
type fakeModel struct {
	turns []string
	calls int
}

func (f *fakeModel) Chat(context.Context, []prompt.Message, llmapi.Params) (string, error) {
	return "", nil
}

func (f *fakeModel) ChatStream(context.Context, []prompt.Message, llmapi.Params) (<-chan llmapi.StreamDelta, error) {
	var text string
	if f.calls < len(f.turns) {
		text = f.turns[f.calls]
	}
	f.calls++

	ch := make(chan llmapi.StreamDelta, 2)
	ch <- llmapi.StreamDelta{Text: text}
	ch <- llmapi.StreamDelta{Done: true}
	close(ch)
	return ch, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestOrchestrator(t *testing.T, model llmapi.LanguageModel, toolExec *tools.Executor) *Orchestrator {
	t.Helper()
	s := newTestStore(t)
	mgr := memory.New(s, fakeEmbedder{}, config.MemoryConfig{DedupThreshold: 0.9, DecayHalfLifeDay: 30})
	o := New(Deps{
		Store:  s,
		Memory: mgr,
		Tools:  toolExec,
		LLM:    model,
		Sink:   llmapi.NopSink{},
		Config: config.Default(),
	})
	if err := o.SetCharacter(context.Background(), "char-1", "A cheerful companion who loves astronomy."); err != nil {
		t.Fatalf("SetCharacter failed: %v", err)
	}
	return o
}

func TestSetCharacterResetsStateForNewCharacter(t *testing.T) {
	o := newTestOrchestrator(t, &fakeModel{}, nil)
	if o.activeCharacterID() != "char-1" {
		t.Fatalf("expected active character char-1, got %q", o.activeCharacterID())
	}
	if o.EmotionState() == nil {
		t.Fatal("expected emotion state to be initialized")
	}
	if got := o.conversationCount(); got != 0 {
		t.Fatalf("expected fresh conversation count 0, got %d", got)
	}
}

func TestAddMessagePersistsHistoryAndStartsConversation(t *testing.T) {
	o := newTestOrchestrator(t, &fakeModel{}, nil)
	ctx := context.Background()

	if err := o.AddMessage(ctx, store.RoleUser, "hello there"); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}
	if err := o.AddMessage(ctx, store.RoleAssistant, "hi!"); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}

	o.histMu.Lock()
	n := len(o.history)
	o.histMu.Unlock()
	if n != 2 {
		t.Fatalf("expected 2 history entries, got %d", n)
	}

	o.convMu.Lock()
	convID := o.conversationID
	o.convMu.Unlock()
	if convID == "" {
		t.Fatal("expected a conversation to have been created")
	}
}

func TestComposePromptIncludesPersonaAndHistory(t *testing.T) {
	o := newTestOrchestrator(t, &fakeModel{}, nil)
	ctx := context.Background()

	if err := o.AddMessage(ctx, store.RoleUser, "what's your favorite star?"); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}

	msgs, err := o.ComposePrompt(ctx, "char-1", "favorite star")
	if err != nil {
		t.Fatalf("ComposePrompt failed: %v", err)
	}
	if len(msgs) == 0 {
		t.Fatal("expected at least one composed message")
	}
	if msgs[0].Role != prompt.RoleSystem {
		t.Fatalf("expected first message to be system, got %s", msgs[0].Role)
	}
	found := false
	for _, m := range msgs {
		if m.Role == prompt.RoleUser && m.Content == "what's your favorite star?" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the prior user turn to appear in composed history")
	}
}

func TestHandleTurnWithoutToolCallsRunsOnce(t *testing.T) {
	model := &fakeModel{turns: []string{"[EMOTION:happy|MOOD:0.8] What a lovely question!"}}
	o := newTestOrchestrator(t, model, nil)

	if err := o.HandleTurn(context.Background(), "tell me something nice"); err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	if model.calls != 1 {
		t.Fatalf("expected exactly 1 model call, got %d", model.calls)
	}

	o.histMu.Lock()
	last := o.history[len(o.history)-1]
	o.histMu.Unlock()
	if last.Role != store.RoleAssistant {
		t.Fatalf("expected last history entry to be the assistant reply, got role %s", last.Role)
	}
}

func TestHandleTurnDrivesToolFeedbackLoop(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(&tools.Tool{
		Tool: mcp.Tool{Name: "lookup_star", Description: "Looks up a star by name"},
		Type: tools.ToolTypeBuiltin,
		Execute: func(_ context.Context, _ string, _ map[string]any) (*tools.Result, error) {
			return tools.SuccessResult("found it", map[string]any{"name": "Vega"}), nil
		},
	})
	toolExec := tools.NewExecutor(registry, nil)

	model := &fakeModel{turns: []string{
		"[TOOL_CALL:lookup_star|name=Vega]",
		"Vega is a bright star in Lyra.",
	}}
	o := newTestOrchestrator(t, model, toolExec)

	if err := o.HandleTurn(context.Background(), "what star is that?"); err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	if model.calls != 2 {
		t.Fatalf("expected 2 model calls (initial + one tool-feedback round), got %d", model.calls)
	}

	o.histMu.Lock()
	last := o.history[len(o.history)-1]
	o.histMu.Unlock()
	if last.Content != "Vega is a bright star in Lyra." {
		t.Fatalf("expected the final assistant text to be persisted, got %q", last.Content)
	}
}

func TestHandleTurnStopsAtToolIterationCap(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(&tools.Tool{
		Tool: mcp.Tool{Name: "loop_tool", Description: "always asks to be called again"},
		Type: tools.ToolTypeBuiltin,
		Execute: func(_ context.Context, _ string, _ map[string]any) (*tools.Result, error) {
			return tools.SuccessResult("ok", nil), nil
		},
	})
	toolExec := tools.NewExecutor(registry, nil)

	turns := make([]string, 0, MaxToolIterations+2)
	for i := 0; i < MaxToolIterations+1; i++ {
		turns = append(turns, "[TOOL_CALL:loop_tool]")
	}
	model := &fakeModel{turns: turns}
	o := newTestOrchestrator(t, model, toolExec)

	if err := o.HandleTurn(context.Background(), "keep going"); err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	if model.calls > MaxToolIterations+1 {
		t.Fatalf("expected at most %d model calls, got %d", MaxToolIterations+1, model.calls)
	}
}

func TestTouchActivityAndIdleSeconds(t *testing.T) {
	o := newTestOrchestrator(t, &fakeModel{}, nil)
	if got := o.IdleSeconds(); got != 0 {
		t.Fatalf("expected 0 idle seconds before any activity, got %v", got)
	}
	o.TouchActivity()
	if got := o.IdleSeconds(); got < 0 {
		t.Fatalf("expected non-negative idle seconds, got %v", got)
	}
}

func TestUserMessageExtractionRoutesThroughAttachedHeartbeat(t *testing.T) {
	s := newTestStore(t)
	mgr := memory.New(s, fakeEmbedder{}, config.MemoryConfig{DedupThreshold: 0.9, DecayHalfLifeDay: 30})
	extractor := &fakeExtractor{}
	o := New(Deps{
		Store:     s,
		Memory:    mgr,
		LLM:       &fakeModel{},
		Sink:      llmapi.NopSink{},
		Config:    config.Default(),
		Extractor: extractor,
	})
	if err := o.SetCharacter(context.Background(), "char-1", "A curious companion."); err != nil {
		t.Fatalf("SetCharacter failed: %v", err)
	}

	supervisor := &fakeSupervisor{}
	o.AttachHeartbeat(supervisor)

	ctx := context.Background()
	for i := 0; i < ExtractEveryNMessages; i++ {
		if err := o.AddMessage(ctx, store.RoleUser, "hello again"); err != nil {
			t.Fatalf("AddMessage failed: %v", err)
		}
	}

	launched := supervisor.Launched()
	if len(launched) != 1 {
		t.Fatalf("expected exactly 1 extraction launched through the supervisor after %d user messages, got %d", ExtractEveryNMessages, len(launched))
	}
	if extractor.Calls() != 0 {
		t.Fatalf("expected the extractor not to run until the supervisor invokes the captured fn, got %d calls", extractor.Calls())
	}

	if err := launched[0](ctx); err != nil {
		t.Fatalf("running the captured extraction fn failed: %v", err)
	}
	if extractor.Calls() != 1 {
		t.Fatalf("expected the extractor to have run once after invoking the captured fn, got %d", extractor.Calls())
	}
}

func TestUserMessageExtractionFallsBackWithoutHeartbeat(t *testing.T) {
	s := newTestStore(t)
	mgr := memory.New(s, fakeEmbedder{}, config.MemoryConfig{DedupThreshold: 0.9, DecayHalfLifeDay: 30})
	extractor := &fakeExtractor{}
	o := New(Deps{
		Store:     s,
		Memory:    mgr,
		LLM:       &fakeModel{},
		Sink:      llmapi.NopSink{},
		Config:    config.Default(),
		Extractor: extractor,
	})
	if err := o.SetCharacter(context.Background(), "char-1", "A curious companion."); err != nil {
		t.Fatalf("SetCharacter failed: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < ExtractEveryNMessages; i++ {
		if err := o.AddMessage(ctx, store.RoleUser, "hello again"); err != nil {
			t.Fatalf("AddMessage failed: %v", err)
		}
	}

	deadline := time.Now().Add(time.Second)
	for extractor.Calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if extractor.Calls() != 1 {
		t.Fatalf("expected the unsupervised fallback goroutine to have run the extractor once, got %d calls", extractor.Calls())
	}
}

func TestProactiveEnabledToggle(t *testing.T) {
	o := newTestOrchestrator(t, &fakeModel{}, nil)
	if !o.ProactiveEnabled() {
		t.Fatal("expected proactive enabled by default config")
	}
	o.SetProactiveEnabled(false)
	if o.ProactiveEnabled() {
		t.Fatal("expected proactive disabled after SetProactiveEnabled(false)")
	}
}
