package wfcore

import (
	"log/slog"
	"math/rand"

	"github.com/tombee/waitcore/pkg/telemetry"
	"github.com/tombee/waitcore/pkg/wctx"
)

// runEnv is everything one Run call's step dispatch needs, threaded
// through executeSteps/executeStep without a package-level global
// (spec.md §5: "no shared mutable state across runs except the
// selector map, the telemetry bus, and the active-run registry").
type runEnv struct {
	runID      string
	workflowID string
	ctxMgr     *wctx.Manager
	bridge     *ResolverBridge
	handlers   HandlerRegistry
	bus        *telemetry.Bus
	logger     *slog.Logger
	rnd        *rand.Rand
	timing     TimingConfig
	exprs      *ExprEvaluator
	currentURL CurrentURLFunc
	runs       *RunRegistry
}

func (e *runEnv) conditionEnv(stepID string, attempt int) Env {
	return Env{
		Context:    e.ctxMgr,
		Bridge:     e.bridge,
		RunID:      e.runID,
		WorkflowID: e.workflowID,
		StepID:     stepID,
		Attempt:    attempt,
		CurrentURL: e.currentURL,
		Logger:     e.logger,
		Exprs:      e.exprs,
	}
}
