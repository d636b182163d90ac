// Package heartbeat is the single cooperative background tick the core
// runs: curiosity decay, idle-behavior selection, emotion decay and
// snapshotting, and proactive-trigger evaluation, once per configured
// interval. Generalized from the teacher's CronService -- the Logger
// interface, NowMs injection point, and OnEvent callback all carry over
// in spirit, but the schedule itself is a fixed time.Ticker rather than
// a cron expression, since there's exactly one job here.
package heartbeat

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wispcompanion/core/internal/corelog"
)

// Event is one notable thing the heartbeat produced this tick, handed
// to the host via OnEvent for it to forward to the frontend.
type Event struct {
	Name    string
	Payload map[string]any
}

// Hooks wires the heartbeat to whatever the Orchestrator is actually
// managing (curiosity queue, idle picker, emotion state, initiative)
// without this package importing any of those directly. A nil hook is
// a no-op for that step.
type Hooks struct {
	DecayCuriosity func()

	// DecideIdleBehavior returns a behavior name and true when one
	// should play, given idle seconds; the hook reads current mood
	// itself.
	DecideIdleBehavior func(idleSeconds float64) (behavior string, ok bool)

	// DecayEmotion applies one tick of mood decay toward default.
	DecayEmotion func()
	// SnapshotEmotion persists the current emotion state. Called every
	// SnapshotEveryTicks ticks.
	SnapshotEmotion func()
	// EmotionFrame returns the current expression frame to emit.
	EmotionFrame func() any
	// CheckEmotionTriggers returns every event that fired this tick (an
	// extreme-mood event and a mood swing can co-fire) and reports
	// whether any did.
	CheckEmotionTriggers func() (triggers []any, fired bool)

	// IdleSeconds reports how long it's been since the last user activity.
	IdleSeconds func() float64
	// SecondsSinceLastProactive reports how long since the last
	// proactive trigger fired.
	SecondsSinceLastProactive func() float64
	// ProactiveEnabled reports the global opt-out flag.
	ProactiveEnabled func() bool
	// DecideProactive asks Initiative for a decision given current idle
	// seconds; ok is false for StayQuiet.
	DecideProactive func(idleSeconds float64) (decision any, ok bool)
	// BuildProactivePrompt assembles the prompt messages for a fired
	// decision. Returning ok=false aborts emission (e.g. build failed).
	BuildProactivePrompt func(decision any) (messages any, ok bool)
	// TouchActivity records that the proactive trigger just fired, so
	// the Orchestrator doesn't immediately refire on the next tick.
	TouchActivity func()

	// Background Memory Extractor runs are not a tick hook: the
	// Orchestrator calls RunExtraction directly, between ticks, so its
	// error (if any) surfaces through the same supervision group as the
	// tick loop instead of an unsupervised goroutine.
}

// Config are the tunable knobs. TickInterval answers the specification's
// open question: hard-coded in the original design, exposed here as a
// knob defaulting to 10s.
type Config struct {
	TickInterval       time.Duration
	SnapshotEveryTicks int
	ProactiveCooldown  time.Duration
}

// DefaultConfig matches the specification's defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval:       10 * time.Second,
		SnapshotEveryTicks: 6,
		ProactiveCooldown:  600 * time.Second,
	}
}

// Heartbeat runs the single background tick loop for one companion
// instance.
type Heartbeat struct {
	cfg   Config
	hooks Hooks
	log   corelog.Logger
	nowMs func() int64

	onEvent func(Event)

	mu      sync.Mutex
	ticks   int
	running bool
	cancel  context.CancelFunc
	group   *errgroup.Group
	ctx     context.Context // the errgroup's context, for RunExtraction
}

// New builds a Heartbeat. A nil Logger defaults to a no-op sink.
func New(cfg Config, hooks Hooks, log corelog.Logger, onEvent func(Event)) *Heartbeat {
	if log == nil {
		log = corelog.Nop{}
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	if cfg.SnapshotEveryTicks <= 0 {
		cfg.SnapshotEveryTicks = DefaultConfig().SnapshotEveryTicks
	}
	return &Heartbeat{
		cfg:     cfg,
		hooks:   hooks,
		log:     log,
		nowMs:   func() int64 { return time.Now().UnixMilli() },
		onEvent: onEvent,
	}
}

// Start launches the tick loop in a supervised goroutine. Calling Start
// twice without an intervening Stop is a no-op.
func (h *Heartbeat) Start(ctx context.Context) {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)
	h.cancel = cancel
	h.group = group
	h.ctx = gctx
	h.running = true
	h.mu.Unlock()

	group.Go(func() error {
		h.run(gctx)
		return nil
	})
}

// Stop cancels the tick loop and waits for it to exit.
func (h *Heartbeat) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	cancel := h.cancel
	group := h.group
	h.running = false
	h.mu.Unlock()

	cancel()
	if err := group.Wait(); err != nil {
		h.log.Warn("heartbeat: supervised task failed", map[string]any{"error": err.Error()})
	}
}

// RunExtraction launches fn under the heartbeat's supervision group so
// its error (if any) is collected by the group and logged by Stop
// instead of being dropped, matching the teacher's detached-task shape. fn receives the
// same context the tick loop runs under, so it is cancelled on Stop
// along with everything else this heartbeat supervises.
func (h *Heartbeat) RunExtraction(fn func(ctx context.Context) error) {
	h.mu.Lock()
	group, ctx := h.group, h.ctx
	h.mu.Unlock()
	if group == nil {
		h.log.Warn("heartbeat: extraction requested before start")
		return
	}
	group.Go(func() error { return fn(ctx) })
}

func (h *Heartbeat) run(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.tick()
		}
	}
}

func (h *Heartbeat) emit(name string, payload map[string]any) {
	if h.onEvent != nil {
		h.onEvent(Event{Name: name, Payload: payload})
	}
}

func (h *Heartbeat) tick() {
	h.mu.Lock()
	h.ticks++
	ticks := h.ticks
	h.mu.Unlock()

	if h.hooks.DecayCuriosity != nil {
		h.hooks.DecayCuriosity()
	}

	idleSeconds := 0.0
	if h.hooks.IdleSeconds != nil {
		idleSeconds = h.hooks.IdleSeconds()
	}

	if h.hooks.DecideIdleBehavior != nil {
		if behavior, ok := h.hooks.DecideIdleBehavior(idleSeconds); ok {
			h.emit("idle-behavior", map[string]any{"behavior": behavior})
		}
	}

	h.emotionStep(ticks)

	h.proactiveStep(idleSeconds)
}

func (h *Heartbeat) emotionStep(ticks int) {
	if h.hooks.DecayEmotion != nil {
		h.hooks.DecayEmotion()
	}
	if ticks%h.cfg.SnapshotEveryTicks == 0 && h.hooks.SnapshotEmotion != nil {
		h.hooks.SnapshotEmotion()
	}
	if h.hooks.EmotionFrame != nil {
		h.emit("expression-frame", map[string]any{"frame": h.hooks.EmotionFrame()})
	}
	if h.hooks.CheckEmotionTriggers != nil {
		if trigs, fired := h.hooks.CheckEmotionTriggers(); fired {
			for _, trig := range trigs {
				h.emit("emotion-event", map[string]any{"event": trig})
			}
		}
	}
}

func (h *Heartbeat) proactiveStep(idleSeconds float64) {
	if h.hooks.ProactiveEnabled != nil && !h.hooks.ProactiveEnabled() {
		return
	}
	if h.hooks.SecondsSinceLastProactive == nil || h.hooks.DecideProactive == nil {
		return
	}
	if h.hooks.SecondsSinceLastProactive() < h.cfg.ProactiveCooldown.Seconds() {
		return
	}

	decision, ok := h.hooks.DecideProactive(idleSeconds)
	if !ok {
		return
	}

	if h.hooks.BuildProactivePrompt == nil {
		return
	}
	messages, ok := h.hooks.BuildProactivePrompt(decision)
	if !ok {
		h.log.Warn("heartbeat: proactive prompt build failed")
		return
	}

	h.emit("proactive-trigger", map[string]any{
		"trigger":      decision,
		"idle_seconds": idleSeconds,
		"prompt":       messages,
	})

	if h.hooks.TouchActivity != nil {
		h.hooks.TouchActivity()
	}
}
