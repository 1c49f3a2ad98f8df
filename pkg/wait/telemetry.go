package wait

import (
	"time"

	"github.com/tombee/waitcore/pkg/predicate"
	"github.com/tombee/waitcore/pkg/selector"
)

// Phase is a wait telemetry envelope's lifecycle tag (spec.md §4.4/§4.10).
// Telemetry is emitted inline, never batched: start precedes any attempt,
// attempt precedes its heartbeat, and exactly one of success/failure
// terminates a wait.
type Phase string

const (
	PhaseStart     Phase = "start"
	PhaseAttempt   Phase = "attempt"
	PhaseHeartbeat Phase = "heartbeat"
	PhaseSuccess   Phase = "success"
	PhaseFailure   Phase = "failure"
)

// Event is one wait-scheduler telemetry envelope.
type Event struct {
	Phase           Phase
	Key             string
	Timestamp       time.Time
	PollCount       int
	ElapsedMs       int64
	StrategyHistory []string
	StaleRecoveries int
	RemainingMs     int64
	Snapshot        *predicate.Snapshot
	ResolveResult   *selector.ResolveResult
	Error           error
	Metadata        map[string]any
}

// Emitter receives wait telemetry events. Implementations must not
// block the scheduler for long; a slow sink should hand events off
// asynchronously itself.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event)

// Emit implements Emitter.
func (f EmitterFunc) Emit(e Event) {
	if f != nil {
		f(e)
	}
}

// NopEmitter discards every event.
var NopEmitter Emitter = EmitterFunc(func(Event) {})
