package wfcore

import (
	"fmt"
	"sync"
)

// EventKind names a general-purpose workflow event, independent of the
// telemetry.Bus's run/step broadcast split. It exists for callers that
// want to subscribe to a named lifecycle moment (a step completing, a
// run changing status, an error surfacing) without depending on the
// Bus's batching and flush-timer behavior.
type EventKind string

const (
	EventRunStatusChanged EventKind = "run_status_changed"
	EventStepCompleted    EventKind = "step_completed"
	EventError            EventKind = "error"
)

// WorkflowEvent is the payload delivered to an EventEmitter listener.
type WorkflowEvent struct {
	Kind     EventKind
	RunID    string
	StepID   string
	Duration int64
	Data     map[string]any
	Err      error
}

// EventListener handles one WorkflowEvent.
type EventListener func(WorkflowEvent)

// EventEmitter is a synchronous, named-event pub/sub: On registers a
// listener for a kind, and Emit calls every listener for that kind in
// registration order on the caller's goroutine. Listeners return
// nothing; a listener that panics stops the listeners after it.
type EventEmitter struct {
	mu        sync.RWMutex
	listeners map[EventKind][]EventListener
}

// NewEventEmitter constructs an emitter with no listeners registered.
func NewEventEmitter() *EventEmitter {
	return &EventEmitter{listeners: make(map[EventKind][]EventListener)}
}

// On registers a listener for kind.
func (e *EventEmitter) On(kind EventKind, listener EventListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[kind] = append(e.listeners[kind], listener)
}

// Off removes every listener registered for kind.
func (e *EventEmitter) Off(kind EventKind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.listeners, kind)
}

// Emit calls every listener registered for ev.Kind, in registration
// order. A listener panicking is not recovered here: telemetry.Bus
// already demonstrates the swallow-and-log pattern for a broadcaster
// whose listeners must never affect scheduling; EventEmitter is for a
// caller's own in-process subscriptions, where a panicking listener is
// a programming error that should surface.
func (e *EventEmitter) Emit(ev WorkflowEvent) {
	e.mu.RLock()
	listeners := make([]EventListener, len(e.listeners[ev.Kind]))
	copy(listeners, e.listeners[ev.Kind])
	e.mu.RUnlock()

	for _, l := range listeners {
		l(ev)
	}
}

// EmitStepCompleted is a convenience wrapper for the common step
// completion notification.
func (e *EventEmitter) EmitStepCompleted(runID, stepID string, durationMs int64, result map[string]any) {
	e.Emit(WorkflowEvent{Kind: EventStepCompleted, RunID: runID, StepID: stepID, Duration: durationMs, Data: result})
}

// EmitError is a convenience wrapper for reporting an error against a
// run, optionally scoped to a step.
func (e *EventEmitter) EmitError(runID, stepID string, err error) {
	e.Emit(WorkflowEvent{Kind: EventError, RunID: runID, StepID: stepID, Err: err})
}

// ListenerCount returns how many listeners are registered for kind.
func (e *EventEmitter) ListenerCount(kind EventKind) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[kind])
}

// String renders an event for logging.
func (ev WorkflowEvent) String() string {
	if ev.Err != nil {
		return fmt.Sprintf("%s run=%s step=%s err=%v", ev.Kind, ev.RunID, ev.StepID, ev.Err)
	}
	return fmt.Sprintf("%s run=%s step=%s", ev.Kind, ev.RunID, ev.StepID)
}
