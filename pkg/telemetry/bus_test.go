package telemetry_test

import (
	"sync"
	"testing"
	"time"

	"github.com/tombee/waitcore/pkg/telemetry"
)

func TestEmitRun_DeliversImmediatelyToAllListeners(t *testing.T) {
	b := telemetry.NewBus(nil)
	var got []telemetry.RunEvent
	var mu sync.Mutex
	b.OnRun(func(e telemetry.RunEvent) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
	})

	b.EmitRun(telemetry.RunEvent{RunID: "r1", Status: "success"})

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].RunID != "r1" {
		t.Fatalf("expected one immediate run event, got %v", got)
	}
}

func TestEmitStep_BatchesAndFlushesOnTimer(t *testing.T) {
	b := telemetry.NewBus(nil)
	done := make(chan []telemetry.StepEvent, 1)
	b.OnStep(func(batch []telemetry.StepEvent) {
		done <- batch
	})

	b.EmitStep(telemetry.StepEvent{RunID: "r1", StepID: "s1", Status: telemetry.StepAttempt})
	b.EmitStep(telemetry.StepEvent{RunID: "r1", StepID: "s1", Status: telemetry.StepSuccess})

	select {
	case batch := <-done:
		if len(batch) != 2 {
			t.Fatalf("expected batch of 2, got %d", len(batch))
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timed out waiting for batched flush")
	}
}

func TestFlush_IsNoOpWhenNothingPending(t *testing.T) {
	b := telemetry.NewBus(nil)
	called := false
	b.OnStep(func(batch []telemetry.StepEvent) { called = true })
	b.Flush("no-such-run")
	if called {
		t.Fatal("expected no listener call for an empty batch")
	}
}

func TestEmitStep_SeparatesBatchesByRun(t *testing.T) {
	b := telemetry.NewBus(nil)
	var mu sync.Mutex
	batches := make(map[string]int)
	doneOnce := make(chan struct{}, 2)
	b.OnStep(func(batch []telemetry.StepEvent) {
		mu.Lock()
		for _, e := range batch {
			batches[e.RunID]++
		}
		mu.Unlock()
		doneOnce <- struct{}{}
	})

	b.EmitStep(telemetry.StepEvent{RunID: "r1"})
	b.EmitStep(telemetry.StepEvent{RunID: "r2"})

	for i := 0; i < 2; i++ {
		select {
		case <-doneOnce:
		case <-time.After(200 * time.Millisecond):
			t.Fatal("timed out waiting for per-run flush")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if batches["r1"] != 1 || batches["r2"] != 1 {
		t.Fatalf("expected one event per run, got %v", batches)
	}
}

func TestListenerPanic_IsSwallowed(t *testing.T) {
	b := telemetry.NewBus(nil)
	b.OnRun(func(e telemetry.RunEvent) { panic("boom") })

	called := false
	b.OnRun(func(e telemetry.RunEvent) { called = true })

	b.EmitRun(telemetry.RunEvent{RunID: "r1"})

	if !called {
		t.Fatal("expected subsequent listener to still be called after a panicking one")
	}
}
