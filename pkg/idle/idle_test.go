package idle_test

import (
	"context"
	"testing"
	"time"

	"github.com/tombee/waitcore/pkg/domshim"
	"github.com/tombee/waitcore/pkg/domshim/memdom"
	"github.com/tombee/waitcore/pkg/idle"
)

func TestRun_ZeroIdleMsReturnsImmediately(t *testing.T) {
	doc := memdom.NewDocument()
	res, err := idle.Run(context.Background(), nil, idle.Options{Root: doc, IdleMs: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Snapshot.Settled {
		t.Fatal("expected immediate settle for idleMs=0")
	}
	if res.Snapshot.Statistics.TotalMutations != 0 {
		t.Fatal("expected empty statistics")
	}
}

func TestRun_SettlesAfterIdleWindowWithNoMutations(t *testing.T) {
	doc := memdom.NewDocument()
	start := time.Now()
	res, err := idle.Run(context.Background(), nil, idle.Options{Root: doc, IdleMs: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Snapshot.Settled {
		t.Fatal("expected settled result")
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Fatal("expected Run to wait at least idleMs")
	}
}

func TestRun_MutationResetsIdleTimer(t *testing.T) {
	doc := memdom.NewDocument()
	factory := memdom.NewMutationObserverFactory(doc)
	n := memdom.NewNode("div")
	doc.AppendChild(n)

	start := time.Now()
	done := make(chan idle.Result, 1)
	errCh := make(chan error, 1)
	go func() {
		res, err := idle.Run(context.Background(), factory, idle.Options{
			Root: doc, Targets: []domshim.Node{n}, IdleMs: 60, CaptureStats: true,
		})
		if err != nil {
			errCh <- err
			return
		}
		done <- res
	}()

	time.Sleep(20 * time.Millisecond)
	n.SetAttr("data-x", "1")

	select {
	case err := <-errCh:
		t.Fatalf("unexpected error: %v", err)
	case res := <-done:
		if time.Since(start) < 80*time.Millisecond {
			t.Fatalf("expected the mutation to push settle past idleMs, elapsed %v", time.Since(start))
		}
		if res.Snapshot.Statistics.TotalMutations == 0 {
			t.Fatal("expected the mutation to be counted")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Run to settle")
	}
}

func TestRun_MaxWindowExceeded(t *testing.T) {
	doc := memdom.NewDocument()
	factory := memdom.NewMutationObserverFactory(doc)
	n := memdom.NewNode("div")
	doc.AppendChild(n)

	errCh := make(chan error, 1)
	go func() {
		_, err := idle.Run(context.Background(), factory, idle.Options{
			Root: doc, Targets: []domshim.Node{n}, IdleMs: 1000, MaxWindowMs: 30,
		})
		errCh <- err
	}()

	// keep mutating faster than idleMs so it never settles naturally
	for i := 0; i < 10; i++ {
		time.Sleep(5 * time.Millisecond)
		n.SetAttr("data-x", "v")
	}

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected an idle-window-exceeded error")
		}
		if _, ok := err.(*idle.WindowExceededError); !ok {
			t.Fatalf("expected *idle.WindowExceededError, got %T", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for window-exceeded error")
	}
}

func TestRun_CancelledContextReturnsError(t *testing.T) {
	doc := memdom.NewDocument()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := idle.Run(ctx, nil, idle.Options{Root: doc, IdleMs: 1000})
	if err == nil {
		t.Fatal("expected a cancellation error")
	}
}

func TestRun_DegradedWithoutObserverStillHonorsIdleTimer(t *testing.T) {
	doc := memdom.NewDocument()
	res, err := idle.Run(context.Background(), nil, idle.Options{Root: doc, IdleMs: 25})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Snapshot.Settled {
		t.Fatal("expected settle via timer alone when no observer factory is supplied")
	}
}

func TestRun_HeartbeatFiresAtMostOncePerInterval(t *testing.T) {
	doc := memdom.NewDocument()
	var count int
	_, err := idle.Run(context.Background(), nil, idle.Options{
		Root: doc, IdleMs: 55, HeartbeatMs: 20,
		Heartbeat: func(idle.Heartbeat) { count++ },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count < 1 || count > 4 {
		t.Fatalf("expected a small number of heartbeats, got %d", count)
	}
}
