// Package idle implements the mutation idle gate (spec.md §4.2): wait
// for a DOM subtree to stop mutating for a settling window, bounded by
// an optional hard deadline.
package idle

import (
	"context"
	"time"

	"github.com/tombee/waitcore/pkg/domshim"
)

// Options configures one idle-gate invocation.
type Options struct {
	Root          domshim.Node
	Targets       []domshim.Node
	ObserveConfig domshim.ObserveConfig
	IdleMs        int64
	MaxWindowMs   int64 // 0 means unbounded
	HeartbeatMs   int64 // 0 defaults to 1000
	CaptureStats  bool
	Heartbeat     func(Heartbeat)
}

// Statistics accumulates mutation counts observed during one gate
// invocation, with capped detail maps per spec.md §4.2.
type Statistics struct {
	TotalMutations int            `json:"totalMutations"`
	ByKind         map[string]int `json:"byKind"`
	AttributeNames map[string]int `json:"attributeNames,omitempty"`
	TargetNames    map[string]int `json:"targetNames,omitempty"`
}

const statsDetailCap = 20

// Snapshot is the idle gate's WaitPredicateSnapshot.idle shape.
type Snapshot struct {
	Statistics Statistics `json:"statistics"`
	Settled    bool       `json:"settled"`
}

// Result is the successful outcome of Run.
type Result struct {
	Snapshot   Snapshot
	StartedAt  time.Time
	FinishedAt time.Time
	DurationMs int64
}

// Heartbeat is emitted at most once per HeartbeatMs while the gate is
// still waiting.
type Heartbeat struct {
	Snapshot        Snapshot
	StartedAt       time.Time
	Timestamp       time.Time
	ElapsedMs       int64
	IdleRemainingMs int64
	WindowRemainingMs *int64
}

// Run blocks until opts.IdleMs elapses with no observed mutation, the
// max window expires, or ctx is cancelled. factory may be nil (or
// !factory.Capable()), in which case the gate still honors the idle
// timer and max window but can never be reset by a mutation, per
// spec.md §4.2's degraded-platform edge case.
func Run(ctx context.Context, factory domshim.MutationObserverFactory, opts Options) (Result, error) {
	startedAt := time.Now()

	if opts.IdleMs <= 0 {
		return Result{
			Snapshot:   Snapshot{Statistics: newStatistics(opts.CaptureStats), Settled: true},
			StartedAt:  startedAt,
			FinishedAt: startedAt,
			DurationMs: 0,
		}, nil
	}

	stats := newStatistics(opts.CaptureStats)
	mutCh := make(chan []domshim.Mutation, 16)

	var observer domshim.MutationObserver
	if factory.Capable() {
		observer = factory(func(batch []domshim.Mutation) {
			select {
			case mutCh <- batch:
			default:
			}
		})
		observeConfig := opts.ObserveConfig
		if observeConfig == (domshim.ObserveConfig{}) {
			observeConfig = domshim.DefaultObserveConfig()
		}
		targets := opts.Targets
		if len(targets) == 0 {
			targets = []domshim.Node{opts.Root}
		}
		for _, t := range targets {
			observer.Observe(t, observeConfig)
		}
		defer observer.Disconnect()
	}

	idleMs := time.Duration(opts.IdleMs) * time.Millisecond
	idleDeadline := startedAt.Add(idleMs)
	idleTimer := time.NewTimer(idleMs)
	defer idleTimer.Stop()

	heartbeatMs := opts.HeartbeatMs
	if heartbeatMs <= 0 {
		heartbeatMs = 1000
	}
	heartbeatTicker := time.NewTicker(time.Duration(heartbeatMs) * time.Millisecond)
	defer heartbeatTicker.Stop()

	var windowDeadline time.Time
	var windowCh <-chan time.Time
	if opts.MaxWindowMs > 0 {
		windowDeadline = startedAt.Add(time.Duration(opts.MaxWindowMs) * time.Millisecond)
		windowTimer := time.NewTimer(time.Duration(opts.MaxWindowMs) * time.Millisecond)
		defer windowTimer.Stop()
		windowCh = windowTimer.C
	}

	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()

		case <-windowCh:
			return Result{}, &WindowExceededError{
				MaxWindowMs: opts.MaxWindowMs,
				ElapsedMs:   time.Since(startedAt).Milliseconds(),
				Snapshot:    Snapshot{Statistics: stats, Settled: false},
			}

		case batch := <-mutCh:
			accumulate(&stats, batch)
			if !idleTimer.Stop() {
				drainTimer(idleTimer)
			}
			idleTimer.Reset(idleMs)
			idleDeadline = time.Now().Add(idleMs)

		case <-idleTimer.C:
			finishedAt := time.Now()
			return Result{
				Snapshot:   Snapshot{Statistics: stats, Settled: true},
				StartedAt:  startedAt,
				FinishedAt: finishedAt,
				DurationMs: finishedAt.Sub(startedAt).Milliseconds(),
			}, nil

		case tick := <-heartbeatTicker.C:
			if opts.Heartbeat == nil {
				continue
			}
			hb := Heartbeat{
				Snapshot:        Snapshot{Statistics: stats, Settled: false},
				StartedAt:       startedAt,
				Timestamp:       tick,
				ElapsedMs:       tick.Sub(startedAt).Milliseconds(),
				IdleRemainingMs: msUntil(idleDeadline, tick),
			}
			if !windowDeadline.IsZero() {
				w := msUntil(windowDeadline, tick)
				hb.WindowRemainingMs = &w
			}
			opts.Heartbeat(hb)
		}
	}
}

func newStatistics(capture bool) Statistics {
	s := Statistics{ByKind: map[string]int{}}
	if capture {
		s.AttributeNames = map[string]int{}
		s.TargetNames = map[string]int{}
	}
	return s
}

func accumulate(s *Statistics, batch []domshim.Mutation) {
	for _, m := range batch {
		s.TotalMutations++
		s.ByKind[string(m.Kind)]++
		if s.AttributeNames != nil && m.AttributeName != "" {
			capInsert(s.AttributeNames, m.AttributeName)
		}
		if s.TargetNames != nil && m.TargetTag != "" {
			capInsert(s.TargetNames, m.TargetTag)
		}
	}
}

// capInsert increments dest[key] if key is already tracked, or adds it
// only while dest has fewer than statsDetailCap entries. The map keeps
// the first statsDetailCap distinct names seen; a name first seen after
// the map is full is not counted, however often it recurs, and no
// tracked entry is ever evicted in its favour.
func capInsert(dest map[string]int, key string) {
	if _, ok := dest[key]; ok {
		dest[key]++
		return
	}
	if len(dest) >= statsDetailCap {
		return
	}
	dest[key] = 1
}

func drainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}

func msUntil(deadline, now time.Time) int64 {
	d := deadline.Sub(now).Milliseconds()
	if d < 0 {
		return 0
	}
	return d
}
