// Package telemetry implements the two-broadcaster event bus and
// payload sanitizer of spec.md §4.10: step-batch and run-phase
// listeners, flushed on a timer or on demand, with listener failures
// swallowed rather than propagated.
package telemetry

import (
	"log/slog"
	"sync"
	"time"
)

// StepStatus is a step event's lifecycle tag (spec.md §6).
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepAttempt StepStatus = "attempt"
	StepSuccess StepStatus = "success"
	StepFailure StepStatus = "failure"
	StepSkipped StepStatus = "skipped"
)

// RunEvent is a run-phase telemetry envelope (spec.md §6).
type RunEvent struct {
	RunID          string
	WorkflowID     string
	Status         string
	StartedAt      time.Time
	FinishedAt     *time.Time
	DurationMs     *int64
	CompletedSteps *int
	Error          error
	Metadata       map[string]any
}

// StepEvent is a step telemetry envelope (spec.md §6).
type StepEvent struct {
	RunID      string
	WorkflowID string
	StepIndex  int
	StepID     string
	StepKind   string
	LogicalKey string
	Status     StepStatus
	Attempt    int
	Timestamp  time.Time
	DurationMs *int64
	Data       map[string]any
	Error      error
	Notes      []string
}

// RunListener receives run-phase events.
type RunListener func(RunEvent)

// StepListener receives a flushed batch of step events, in timestamp
// order within the batch.
type StepListener func([]StepEvent)

const defaultBatchIntervalMs = 16

// Bus is the process-wide telemetry broadcaster. One Bus may serve
// many concurrent runs.
type Bus struct {
	mu            sync.Mutex
	runListeners  []RunListener
	stepListeners []StepListener
	pending       map[string][]StepEvent
	timers        map[string]*time.Timer
	batchInterval time.Duration
	logger        *slog.Logger
}

// NewBus constructs a Bus. logger may be nil.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		pending:       make(map[string][]StepEvent),
		timers:        make(map[string]*time.Timer),
		batchInterval: defaultBatchIntervalMs * time.Millisecond,
		logger:        logger,
	}
}

// OnRun registers a run-phase listener.
func (b *Bus) OnRun(l RunListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runListeners = append(b.runListeners, l)
}

// OnStep registers a step-batch listener.
func (b *Bus) OnStep(l StepListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stepListeners = append(b.stepListeners, l)
}

// EmitRun broadcasts a run-phase event immediately, unbatched, per
// spec.md §5's wait/run telemetry ordering guarantees.
func (b *Bus) EmitRun(e RunEvent) {
	b.mu.Lock()
	listeners := append([]RunListener(nil), b.runListeners...)
	b.mu.Unlock()

	for _, l := range listeners {
		b.safeCallRun(l, e)
	}
}

// EmitStep buffers e for runId and arms a flush timer (batchIntervalMs,
// default 16ms) if one is not already pending for that run.
func (b *Bus) EmitStep(e StepEvent) {
	b.mu.Lock()
	runID := e.RunID
	b.pending[runID] = append(b.pending[runID], e)
	if _, armed := b.timers[runID]; !armed {
		b.timers[runID] = time.AfterFunc(b.batchInterval, func() { b.Flush(runID) })
	}
	b.mu.Unlock()
}

// Flush delivers and clears any buffered step events for runId.
func (b *Bus) Flush(runID string) {
	b.mu.Lock()
	batch := b.pending[runID]
	delete(b.pending, runID)
	if t, ok := b.timers[runID]; ok {
		t.Stop()
		delete(b.timers, runID)
	}
	listeners := append([]StepListener(nil), b.stepListeners...)
	b.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	for _, l := range listeners {
		b.safeCallStep(l, batch)
	}
}

func (b *Bus) safeCallRun(l RunListener, e RunEvent) {
	defer b.recoverListener("run")
	l(e)
}

func (b *Bus) safeCallStep(l StepListener, batch []StepEvent) {
	defer b.recoverListener("step")
	l(batch)
}

// recoverListener swallows a panicking listener, logging it at debug
// level rather than ever propagating into the scheduler (spec.md
// §4.10: "Listener exceptions are caught and logged at debug level").
func (b *Bus) recoverListener(kind string) {
	if r := recover(); r != nil && b.logger != nil {
		b.logger.Debug("telemetry listener panicked", "kind", kind, "recovered", r)
	}
}
