package wfcore

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/tombee/waitcore/pkg/selector"
	"github.com/tombee/waitcore/pkg/telemetry"
	"github.com/tombee/waitcore/pkg/wctx"
	"github.com/tombee/waitcore/pkg/werrors"
)

// executeSteps runs steps in declaration order, stopping at the first
// error (spec.md §4.8: "Scheduler as tagged state, not inheritance" —
// one dispatcher, no virtual dispatch, control-flow recurses).
func executeSteps(ctx context.Context, steps []Step, env *runEnv) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return werrors.NewStepCancelled(env.runID, step.ID, 0, err)
		}
		if err := executeStep(ctx, step, env); err != nil {
			return err
		}
	}
	return nil
}

func executeStep(ctx context.Context, step Step, env *runEnv) error {
	switch step.Kind {
	case KindAtomic:
		return executeAtomic(ctx, step, env)
	case KindIf:
		return executeIf(ctx, step, env)
	case KindForeach:
		return executeForeach(ctx, step, env)
	case KindRetry:
		return executeRetry(ctx, step, env)
	default:
		return fmt.Errorf("wfcore: unknown step kind %q", step.Kind)
	}
}

// executeAtomic is spec.md §4.8's atomic step loop.
func executeAtomic(ctx context.Context, step Step, env *runEnv) error {
	timing := resolveStepTiming(env.timing, step)
	maxAttempts := timing.Retries + 1

	env.emitStep(step, telemetry.StepPending, 0, nil, nil, nil)

	if err := ctx.Err(); err != nil {
		env.emitStep(step, telemetry.StepSkipped, 0, nil, err, nil)
		return werrors.NewStepCancelled(env.runID, step.ID, 0, err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return werrors.NewStepCancelled(env.runID, step.ID, attempt, err)
		}

		env.emitStep(step, telemetry.StepAttempt, attempt, nil, nil, nil)
		retriesRemaining := maxAttempts - attempt

		var resolveResult *selector.ResolveResult
		if step.Key != "" {
			rr, err := env.bridge.Resolve(ctx, env.runID, env.workflowID, step.ID, string(step.Kind), step.Key, attempt)
			if err != nil {
				abort, normalized := shouldAbortRetry(ctx, err, env, step, attempt, timing, maxAttempts)
				lastErr = normalized
				if abort {
					return normalized
				}
				continue
			}
			resolveResult = &rr
		}

		handler, ok := env.handlers.Lookup(step.Handler)
		if !ok {
			err := &werrors.StepError{
				Code:    werrors.CodeUnknown,
				Message: fmt.Sprintf("no handler registered for %q", step.Handler),
				RunID:   env.runID, StepID: step.ID, Attempt: attempt,
			}
			lastErr = err
			env.emitStep(step, telemetry.StepFailure, attempt, nil, err, nil)
			return err
		}

		in := HandlerInput{
			Step: step, Attempt: attempt, RetriesRemaining: retriesRemaining,
			Context: env.ctxMgr, RunID: env.runID, WorkflowID: env.workflowID,
			Logger:        stepLogger{env, step, attempt},
			ResolveResult: resolveResult,
			ResolveLogicalKey: func(key string) (selector.ResolveResult, error) {
				return env.bridge.Resolve(ctx, env.runID, env.workflowID, step.ID, "probe", key, attempt)
			},
		}

		sr, err := callHandlerWithTimeout(ctx, timing.TimeoutMs, handler, in)
		if err != nil {
			abort, normalized := shouldAbortRetry(ctx, err, env, step, attempt, timing, maxAttempts)
			lastErr = normalized
			if abort {
				return normalized
			}
			continue
		}

		applyStepResult(env, sr)
		env.runs.mutate(env.runID, func(m *RunMetadata) { m.CompletedSteps++ })
		status := telemetry.StepSuccess
		if sr.Skipped {
			status = telemetry.StepSkipped
		}
		env.emitStep(step, status, attempt, sr.Data, nil, notesFromLogs(sr.Logs))
		return nil
	}
	return lastErr
}

// shouldAbortRetry normalizes err, emits failure telemetry, and either
// sleeps for the next backoff (returning abort=false to continue the
// retry loop) or reports the loop should stop (cancellation, or no
// attempts remain). The returned error is always the normalized
// *werrors.StepError, so a cancellation detected here is never lost
// behind the handler's original (possibly plain context.Canceled) error.
func shouldAbortRetry(ctx context.Context, err error, env *runEnv, step Step, attempt int, timing TimingConfig, maxAttempts int) (abort bool, normalized error) {
	se := werrors.AsStepError(err, env.runID, step.ID, attempt)
	if se.Code != werrors.CodeCancelled && ctx.Err() != nil {
		se = werrors.NewStepCancelled(env.runID, step.ID, attempt, err)
	}
	env.emitStep(step, telemetry.StepFailure, attempt, nil, se, nil)
	if se.Code == werrors.CodeCancelled {
		return true, se
	}
	if attempt == maxAttempts {
		return true, se
	}
	delay := computeBackoffDelay(attempt+1, timing, env.rnd)
	if serr := sleepCtx(ctx, delay); serr != nil {
		return true, werrors.NewStepCancelled(env.runID, step.ID, attempt, serr)
	}
	return false, se
}

func applyStepResult(env *runEnv, sr StepResult) {
	for _, u := range sr.ContextUpdates {
		env.ctxMgr.Set(u.Path, u.Value, u.TTL)
	}
}

// callHandlerWithTimeout races a handler invocation against timeoutMs
// (spec.md §4.8 step 2c). timeoutMs<=0 disables the race.
func callHandlerWithTimeout(ctx context.Context, timeoutMs int64, h Handler, in HandlerInput) (StepResult, error) {
	if timeoutMs <= 0 {
		return h(ctx, in)
	}
	cctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	type outcome struct {
		sr  StepResult
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		sr, err := h(cctx, in)
		ch <- outcome{sr, err}
	}()

	select {
	case o := <-ch:
		return o.sr, o.err
	case <-cctx.Done():
		if ctx.Err() != nil {
			return StepResult{}, werrors.NewStepCancelled(in.RunID, in.Step.ID, in.Attempt, ctx.Err())
		}
		return StepResult{}, werrors.NewStepTimeout(in.RunID, in.Step.ID, in.Attempt, timeoutMs)
	}
}

// executeIf evaluates step.When and runs the chosen branch inside a
// child scope (spec.md §4.8's if control-flow step).
func executeIf(ctx context.Context, step Step, env *runEnv) error {
	ok, err := Evaluate(ctx, step.When, env.conditionEnv(step.ID, 0))
	if err != nil {
		return werrors.AsStepError(err, env.runID, step.ID, 0)
	}
	branch := step.Then
	if !ok {
		branch = step.Else
	}
	if branch == nil {
		return nil
	}
	return env.ctxMgr.WithScope("if:"+step.ID, func(h *wctx.ScopeHandle) error {
		return executeSteps(ctx, branch, env)
	})
}

// executeForeach reads step.List from context, iterating with a
// fresh child scope per item (spec.md §4.8's foreach control-flow
// step); abort is honored between iterations.
func executeForeach(ctx context.Context, step Step, env *runEnv) error {
	raw, ok := env.ctxMgr.Get(step.List)
	if !ok {
		return nil
	}
	items, err := toSlice(raw)
	if err != nil {
		return werrors.AsStepError(err, env.runID, step.ID, 0)
	}

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return werrors.NewStepCancelled(env.runID, step.ID, i, err)
		}
		idx := i
		current := item
		label := fmt.Sprintf("foreach:%s:%d", step.ID, idx)
		err := env.ctxMgr.WithScope(label, func(h *wctx.ScopeHandle) error {
			env.ctxMgr.Set(step.As, current, 0)
			if step.IndexVar != "" {
				env.ctxMgr.Set(step.IndexVar, idx, 0)
			}
			return executeSteps(ctx, step.Steps, env)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// toSlice adapts a context value into a []any for foreach iteration.
// Context values come from arbitrary handler context updates, so this
// uses reflection rather than a fixed set of concrete slice types;
// no third-party generic-collection library appears in the corpus for
// this, and the teacher's own loop.go iterates plain Go slices too.
func toSlice(v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.([]any); ok {
		return s, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("wfcore: foreach list is not iterable (got %T)", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// executeRetry wraps step.Steps in a scope, retrying the whole branch
// on failure per the merged backoff policy (spec.md §4.8's retry
// control-flow step).
func executeRetry(ctx context.Context, step Step, env *runEnv) error {
	timing := resolveRetryTiming(env.timing, step.Policy)
	maxAttempts := timing.Retries + 1

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return werrors.NewStepCancelled(env.runID, step.ID, attempt, err)
		}

		label := fmt.Sprintf("retry:%s:%d", step.ID, attempt)
		err := env.ctxMgr.WithScope(label, func(h *wctx.ScopeHandle) error {
			return executeSteps(ctx, step.Steps, env)
		})
		if err == nil {
			return nil
		}
		lastErr = err

		se := werrors.AsStepError(err, env.runID, step.ID, attempt)
		if se.Code == werrors.CodeCancelled || attempt == maxAttempts {
			return err
		}
		delay := computeBackoffDelay(attempt+1, timing, env.rnd)
		if serr := sleepCtx(ctx, delay); serr != nil {
			return werrors.NewStepCancelled(env.runID, step.ID, attempt, serr)
		}
	}
	return lastErr
}

// sleepCtx sleeps for d, returning ctx.Err() if it is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func notesFromLogs(logs []LogEntry) []string {
	if len(logs) == 0 {
		return nil
	}
	out := make([]string, len(logs))
	for i, l := range logs {
		out[i] = l.Msg
	}
	return out
}
