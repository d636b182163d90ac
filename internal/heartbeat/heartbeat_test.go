package heartbeat

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestHeartbeatRunsCuriosityAndEmotionHooksEachTick(t *testing.T) {
	var curiosityDecays, emotionDecays, snapshots int32

	hooks := Hooks{
		DecayCuriosity: func() { atomic.AddInt32(&curiosityDecays, 1) },
		DecayEmotion:   func() { atomic.AddInt32(&emotionDecays, 1) },
		SnapshotEmotion: func() { atomic.AddInt32(&snapshots, 1) },
	}
	cfg := Config{TickInterval: 5 * time.Millisecond, SnapshotEveryTicks: 2}
	hb := New(cfg, hooks, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	hb.Start(ctx)
	time.Sleep(40 * time.Millisecond)
	cancel()
	hb.Stop()

	if atomic.LoadInt32(&curiosityDecays) == 0 {
		t.Fatalf("expected at least one curiosity decay tick")
	}
	if atomic.LoadInt32(&emotionDecays) == 0 {
		t.Fatalf("expected at least one emotion decay tick")
	}
	if atomic.LoadInt32(&snapshots) == 0 {
		t.Fatalf("expected at least one snapshot on a multiple-of-2 tick")
	}
}

func TestHeartbeatEmitsIdleBehaviorEvent(t *testing.T) {
	events := make(chan Event, 16)
	hooks := Hooks{
		DecideIdleBehavior: func(idleSeconds float64) (string, bool) { return "Sigh", true },
	}
	hb := New(Config{TickInterval: 5 * time.Millisecond, SnapshotEveryTicks: 1000}, hooks, nil, func(e Event) {
		events <- e
	})

	ctx, cancel := context.WithCancel(context.Background())
	hb.Start(ctx)
	defer hb.Stop()
	defer cancel()

	select {
	case e := <-events:
		if e.Name != "idle-behavior" {
			t.Fatalf("expected idle-behavior event, got %q", e.Name)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for idle-behavior event")
	}
}

func TestHeartbeatSkipsProactiveWithinCooldown(t *testing.T) {
	var decided int32
	hooks := Hooks{
		SecondsSinceLastProactive: func() float64 { return 1 },
		DecideProactive: func(idleSeconds float64) (any, bool) {
			atomic.AddInt32(&decided, 1)
			return nil, true
		},
	}
	hb := New(Config{TickInterval: 5 * time.Millisecond, SnapshotEveryTicks: 1000, ProactiveCooldown: 600 * time.Second}, hooks, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	hb.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	cancel()
	hb.Stop()

	if atomic.LoadInt32(&decided) != 0 {
		t.Fatalf("expected proactive decision skipped within cooldown")
	}
}

func TestRunExtractionRunsUnderSupervisionAfterStart(t *testing.T) {
	hb := New(Config{TickInterval: time.Hour}, Hooks{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	hb.Start(ctx)
	defer cancel()

	done := make(chan struct{})
	var sawCtx context.Context
	hb.RunExtraction(func(runCtx context.Context) error {
		sawCtx = runCtx
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for RunExtraction to run its function")
	}
	if sawCtx == nil {
		t.Fatal("expected RunExtraction to pass a non-nil context to fn")
	}
	hb.Stop()
}

func TestRunExtractionBeforeStartIsNoop(t *testing.T) {
	hb := New(Config{TickInterval: time.Hour}, Hooks{}, nil, nil)
	called := false
	hb.RunExtraction(func(context.Context) error {
		called = true
		return nil
	})
	if called {
		t.Fatal("expected RunExtraction before Start to be a no-op, not invoke fn")
	}
}

func TestHeartbeatFiresProactiveTriggerAfterCooldown(t *testing.T) {
	events := make(chan Event, 16)
	var touched int32
	hooks := Hooks{
		SecondsSinceLastProactive: func() float64 { return 9999 },
		DecideProactive:           func(idleSeconds float64) (any, bool) { return "share_thought", true },
		BuildProactivePrompt:      func(decision any) (any, bool) { return []string{"hello"}, true },
		TouchActivity:             func() { atomic.AddInt32(&touched, 1) },
	}
	hb := New(Config{TickInterval: 5 * time.Millisecond, SnapshotEveryTicks: 1000, ProactiveCooldown: time.Millisecond}, hooks, nil, func(e Event) {
		events <- e
	})

	ctx, cancel := context.WithCancel(context.Background())
	hb.Start(ctx)
	defer hb.Stop()
	defer cancel()

	select {
	case e := <-events:
		if e.Name != "proactive-trigger" {
			t.Fatalf("expected proactive-trigger event, got %q", e.Name)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for proactive-trigger event")
	}
	if atomic.LoadInt32(&touched) == 0 {
		t.Fatalf("expected TouchActivity called after firing")
	}
}
