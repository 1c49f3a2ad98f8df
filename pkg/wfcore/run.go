package wfcore

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/tombee/waitcore/internal/log"
	"github.com/tombee/waitcore/pkg/domshim"
	"github.com/tombee/waitcore/pkg/selector"
	"github.com/tombee/waitcore/pkg/telemetry"
	"github.com/tombee/waitcore/pkg/wctx"
	"github.com/tombee/waitcore/pkg/werrors"
)

// Scheduler owns the shared, cross-run collaborators spec.md §5
// allows to be shared: the selector map, the resolver bridge cache,
// the telemetry bus, and the active-run registry. Construct one per
// process (or per selector-map generation); Run may be called
// concurrently for independent runs.
type Scheduler struct {
	Document    domshim.Document
	SelectorMap selector.SelectorMap
	Resolver    *selector.Resolver
	Handlers    HandlerRegistry
	Telemetry   *telemetry.Bus
	Events      *EventEmitter
	Logger      *slog.Logger
	Exprs       *ExprEvaluator
	CurrentURL  CurrentURLFunc

	bridge *ResolverBridge
	runs   *RunRegistry
}

// NewScheduler constructs a Scheduler, mirroring the teacher's
// NewExecutor(toolRegistry, llmProvider)-plus-With...-builders shape.
func NewScheduler(doc domshim.Document, selMap selector.SelectorMap, resolver *selector.Resolver, handlers HandlerRegistry) *Scheduler {
	s := &Scheduler{
		Document:    doc,
		SelectorMap: selMap,
		Resolver:    resolver,
		Handlers:    handlers,
		Exprs:       NewExprEvaluator(),
		runs:        NewRunRegistry(),
	}
	s.bridge = NewResolverBridge(resolver, doc, selMap, nil)
	return s
}

func (s *Scheduler) WithTelemetry(bus *telemetry.Bus) *Scheduler {
	s.Telemetry = bus
	return s
}

// WithEvents attaches an EventEmitter for ad hoc run-status-changed/
// error notifications, separate from the telemetry bus.
func (s *Scheduler) WithEvents(emitter *EventEmitter) *Scheduler {
	s.Events = emitter
	return s
}

func (s *Scheduler) WithLogger(logger *slog.Logger) *Scheduler {
	s.Logger = logger
	s.bridge = NewResolverBridge(s.Resolver, s.Document, s.SelectorMap, logger)
	return s
}

func (s *Scheduler) WithCurrentURL(fn CurrentURLFunc) *Scheduler {
	s.CurrentURL = fn
	return s
}

// CancelRun requests cancellation of an active run (spec.md §6).
func (s *Scheduler) CancelRun(runID string) bool {
	return s.runs.CancelRun(runID)
}

// GetRunMetadata returns a copy of an active run's metadata (spec.md §6).
func (s *Scheduler) GetRunMetadata(runID string) (RunMetadata, bool) {
	return s.runs.GetRunMetadata(runID)
}

// ListActiveRuns returns a snapshot of every run this Scheduler
// currently has in flight, for dashboards and CLI inspection rather
// than control flow (a run may complete between this call returning
// and the caller acting on it).
func (s *Scheduler) ListActiveRuns() []RunMetadata {
	return s.runs.ListActiveRuns()
}

// RunOptions configures one runWorkflow invocation.
type RunOptions struct {
	RunID    string // optional; generated via uuid when empty
	Context  *wctx.Manager // optional; a fresh Manager is created when nil
	Timing   TimingConfig  // caller overrides, layered over Definition.Defaults
	Metadata map[string]any
	Rand     *rand.Rand // injectable for deterministic tests
}

// Run is runWorkflow(definition, options) -> Promise<WorkflowRunOutcome>
// (spec.md §6), driving def.Steps to completion, cancellation, or
// first unrecovered error.
func (s *Scheduler) Run(ctx context.Context, def Definition, opts RunOptions) (Outcome, error) {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctxMgr := opts.Context
	if ctxMgr == nil {
		ctxMgr = wctx.New()
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	timing := DefaultTimingConfig().Merge(def.Defaults).Merge(opts.Timing)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	meta := &RunMetadata{
		ID:         runID,
		WorkflowID: def.ID,
		Status:     RunRunning,
		StartedAt:  time.Now(),
		Timing:     timing,
		Context:    ContextSnapshots{Initial: ctxMgr.Snapshot()},
		Metadata:   opts.Metadata,
	}
	s.runs.insert(runID, cancel, meta)
	defer s.runs.remove(runID)
	defer s.bridge.Clear(runID)

	runLogger := s.Logger
	if runLogger != nil {
		runLogger = log.WithRunContext(runLogger, runID, def.ID)
	}

	env := &runEnv{
		runID: runID, workflowID: def.ID,
		ctxMgr: ctxMgr, bridge: s.bridge, handlers: s.Handlers,
		bus: s.Telemetry, logger: runLogger, rnd: rnd, timing: timing,
		exprs: s.Exprs, currentURL: s.CurrentURL, runs: s.runs,
	}

	if s.Telemetry != nil {
		s.Telemetry.EmitRun(telemetry.RunEvent{
			RunID: runID, WorkflowID: def.ID, Status: "started", StartedAt: meta.StartedAt,
		})
	}

	runErr := executeSteps(runCtx, def.Steps, env)

	finishedAt := time.Now()
	durationMs := finishedAt.Sub(meta.StartedAt).Milliseconds()

	status := RunSuccess
	if runErr != nil {
		se := werrors.AsStepError(runErr, runID, "", 0)
		if se.Code == werrors.CodeCancelled {
			status = RunCancelled
		} else {
			status = RunFailed
		}
	}

	finalSnapshot := ctxMgr.Snapshot()
	var completedSteps int
	s.runs.mutate(runID, func(m *RunMetadata) {
		m.Status = status
		m.FinishedAt = &finishedAt
		m.DurationMs = &durationMs
		m.Context.Final = finalSnapshot
		m.Error = runErr
		completedSteps = m.CompletedSteps
	})

	if s.Telemetry != nil {
		s.Telemetry.EmitRun(telemetry.RunEvent{
			RunID: runID, WorkflowID: def.ID, Status: string(status),
			StartedAt: meta.StartedAt, FinishedAt: &finishedAt, DurationMs: &durationMs,
			CompletedSteps: &completedSteps, Error: runErr,
		})
		s.Telemetry.Flush(runID)
	}

	if s.Events != nil {
		s.Events.Emit(WorkflowEvent{
			Kind: EventRunStatusChanged, RunID: runID,
			Data: map[string]any{"workflowId": def.ID, "status": string(status)},
		})
		if runErr != nil {
			s.Events.EmitError(runID, "", runErr)
		}
	}

	return Outcome{
		Status: status, StartedAt: meta.StartedAt, FinishedAt: finishedAt,
		CompletedSteps: completedSteps, Error: runErr, ContextSnapshot: finalSnapshot,
	}, runErr
}
