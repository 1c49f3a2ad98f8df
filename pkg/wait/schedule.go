package wait

import (
	"context"
	"math/rand"
	"time"

	"github.com/tombee/waitcore/pkg/domshim"
	"github.com/tombee/waitcore/pkg/predicate"
	"github.com/tombee/waitcore/pkg/selector"
	"github.com/tombee/waitcore/pkg/werrors"
)

// scheduler holds the per-call mutable state spec.md §4.4 lists:
// pollCount, staleRecoveries, lastResolverResult, lastPredicateSnapshot,
// lastHeartbeatAt, attempts, strategyHistory.
type scheduler struct {
	opts Options
	rnd  *rand.Rand
	hb   *heartbeatGate

	startedAt       time.Time
	pollCount       int
	staleRecoveries int
	attempts        []selector.ResolveAttempt
	strategyHistory []string
	lastResolve     selector.ResolveResult
	lastSnapshot    predicate.Snapshot
}

// For waits for opts to resolve and be satisfied, per spec.md §4.4.
func For(ctx context.Context, opts Options) (Result, error) {
	if opts.TimeoutMs == 0 {
		opts.TimeoutMs = defaultTimeoutMs
	}
	if opts.IntervalMs == 0 {
		opts.IntervalMs = defaultIntervalMs
	}
	if opts.IntervalMs < minIntervalMs {
		opts.IntervalMs = minIntervalMs
	}
	if opts.MaxResolverRetries == 0 {
		opts.MaxResolverRetries = defaultMaxResolverRetries
	}
	if opts.Telemetry == nil {
		opts.Telemetry = NopEmitter
	}
	if opts.Resolver == nil {
		opts.Resolver = selector.NewResolver(opts.Logger)
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s := &scheduler{opts: opts, rnd: rnd, hb: newHeartbeatGate(), startedAt: time.Now()}

	var scroll *scrollIntegration
	if opts.Hints.ScrollerKey != "" {
		scroll = newScrollIntegration(opts.Document, opts.SelectorMap, opts.Resolver, opts.Hints.ScrollerKey, opts.Hints.PresenceThreshold)
	}
	afterResolve := opts.AfterResolve
	if afterResolve == nil && scroll != nil {
		afterResolve = scroll.afterResolve
	}

	s.emit(PhaseStart, nil)

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, s.cancelled(err)
		}

		s.pollCount++
		if s.pollCount > 1 {
			elapsed := time.Since(s.startedAt).Milliseconds()
			if elapsed >= opts.TimeoutMs {
				return Result{}, s.terminalError()
			}
		}
		if opts.MaxAttempts > 0 && s.pollCount > opts.MaxAttempts {
			return Result{}, s.terminalError()
		}

	resolveAgain:
		rr, err := s.resolveOnce(ctx)
		if err != nil {
			return Result{}, err
		}
		s.lastResolve = rr
		s.attempts = append(s.attempts, rr.Attempts...)
		for _, a := range rr.Attempts {
			s.strategyHistory = append(s.strategyHistory, string(a.Strategy))
		}
		s.emit(PhaseAttempt, nil)

		if afterResolve != nil {
			directive, err := afterResolve(ctx, rr)
			if err != nil {
				return Result{}, s.cancelled(err)
			}
			if directive == DirectiveRetry {
				goto resolveAgain
			}
		}

		if rr.Found() && !rr.Element.IsConnected() {
			if done, res, err := s.escalateStale(); done {
				return res, err
			}
			if err := s.sleep(ctx); err != nil {
				return Result{}, s.cancelled(err)
			}
			continue
		}

		if opts.Predicate != nil && rr.Found() {
			pres, err := opts.Predicate(ctx, predicate.EvalInput{
				Element:   rr.Element,
				Document:  opts.Document,
				PollCount: s.pollCount,
				ElapsedMs: time.Since(s.startedAt).Milliseconds(),
			})
			if err != nil {
				return Result{}, werrors.Wrap(err, "predicate evaluation")
			}
			s.lastSnapshot = s.lastSnapshot.Merge(pres.Snapshot)
			if pres.Stale {
				if done, res, err := s.escalateStale(); done {
					return res, err
				}
				if err := s.sleep(ctx); err != nil {
					return Result{}, s.cancelled(err)
				}
				continue
			}
			if pres.Satisfied {
				return s.success(), nil
			}
		} else if opts.Predicate == nil && rr.Found() {
			return s.success(), nil
		}

		s.hb.fire(func() { s.emit(PhaseHeartbeat, nil) })

		if err := s.sleep(ctx); err != nil {
			return Result{}, s.cancelled(err)
		}
	}
}

// resolveOnce implements spec.md §4.4 step 3: scope resolution, keyed
// resolution, then css/xpath/text fallback strategies in order,
// merging into one ResolveResult (fallback's resolvedBy wins when set).
func (s *scheduler) resolveOnce(ctx context.Context) (selector.ResolveResult, error) {
	opts := s.opts
	var scopeRoot domshim.Node
	if opts.ScopeKey != "" {
		scopeResult, err := opts.Resolver.Resolve(opts.Document, opts.SelectorMap, opts.ScopeKey, nil)
		if err != nil {
			return selector.ResolveResult{}, err
		}
		if scopeResult.Found() {
			scopeRoot = scopeResult.Element
		}
	}

	var merged selector.ResolveResult
	if opts.Key != "" {
		rr, err := opts.Resolver.Resolve(opts.Document, opts.SelectorMap, opts.Key, scopeRoot)
		if err != nil {
			return selector.ResolveResult{}, err
		}
		merged = rr
	} else {
		merged = selector.ResolveResult{Key: opts.Key}
	}

	if !merged.Found() {
		fallbacks := s.fallbackTries()
		for _, try := range fallbacks {
			node, count := opts.Resolver.TryOne(opts.Document, scopeRoot, try)
			merged.Attempts = append(merged.Attempts, selector.ResolveAttempt{Strategy: try.Type, Success: node != nil, Elements: count})
			if node != nil {
				merged.Element = node
				merged.ResolvedBy = try.Type
				break
			}
		}
	}
	return merged, nil
}

func (s *scheduler) fallbackTries() []selector.SelectorTry {
	opts := s.opts
	var tries []selector.SelectorTry
	if opts.CSS != "" {
		tries = append(tries, selector.SelectorTry{Type: selector.StrategyCSS, CSS: opts.CSS})
	}
	if opts.XPath != "" {
		tries = append(tries, selector.SelectorTry{Type: selector.StrategyXPath, XPath: opts.XPath})
	}
	if opts.Text != "" || opts.TextPattern != "" {
		text := opts.Text
		if text == "" {
			text = opts.TextPattern
		}
		tries = append(tries, selector.SelectorTry{Type: selector.StrategyText, Text: text, Exact: opts.Exact})
	}
	return tries
}

// escalateStale increments staleRecoveries and, if it now exceeds the
// configured cap, returns the terminal timeout error.
func (s *scheduler) escalateStale() (bool, Result, error) {
	s.staleRecoveries++
	capN := s.staleCap()
	if s.staleRecoveries > capN {
		elapsed := time.Since(s.startedAt).Milliseconds()
		err := werrors.NewStaleExceeded(s.opts.Key, s.staleRecoveries, capN, elapsed, s.pollCount, s.strategyHistory)
		s.emit(PhaseFailure, err)
		return true, Result{}, err
	}
	return false, Result{}, nil
}

func (s *scheduler) staleCap() int {
	if s.opts.Hints.StaleRetryCap > 0 {
		return s.opts.Hints.StaleRetryCap
	}
	if s.opts.MaxResolverRetries > 0 {
		return s.opts.MaxResolverRetries
	}
	return defaultMaxResolverRetries
}

func (s *scheduler) sleep(ctx context.Context) error {
	elapsed := time.Since(s.startedAt).Milliseconds()
	remaining := s.opts.TimeoutMs - elapsed
	return delayWithRemaining(ctx, s.rnd, s.opts.IntervalMs, remaining)
}

// terminalError implements spec.md §4.4's "Termination error
// selection": timeout if the last resolver result had an element
// (failure was predicate/stale-driven), resolver-miss otherwise.
func (s *scheduler) terminalError() error {
	elapsed := time.Since(s.startedAt).Milliseconds()
	if s.lastResolve.Found() {
		err := werrors.NewTimeout(s.opts.Key, s.opts.TimeoutMs, elapsed, s.pollCount, s.strategyHistory)
		s.emit(PhaseFailure, err)
		return err
	}
	summary := &werrors.ResolveResultSummary{Key: s.opts.Key, ResolvedBy: string(s.lastResolve.ResolvedBy), Found: false}
	err := werrors.NewResolverMiss(s.opts.Key, summary, elapsed, s.pollCount, s.strategyHistory)
	s.emit(PhaseFailure, err)
	return err
}

func (s *scheduler) cancelled(cause error) error {
	elapsed := time.Since(s.startedAt).Milliseconds()
	err := werrors.NewCancelled(s.opts.Key, elapsed, s.pollCount, cause)
	s.emit(PhaseFailure, err)
	return err
}

func (s *scheduler) success() Result {
	finishedAt := time.Now()
	snap := s.lastSnapshot
	res := Result{
		Key:               s.opts.Key,
		ResolveResult:     s.lastResolve,
		Target:            s.lastResolve.Element,
		Attempts:          s.attempts,
		PollCount:         s.pollCount,
		ElapsedMs:         finishedAt.Sub(s.startedAt).Milliseconds(),
		StrategyHistory:   s.strategyHistory,
		StaleRecoveries:   s.staleRecoveries,
		PredicateSnapshot: &snap,
		StartedAt:         s.startedAt,
		FinishedAt:        finishedAt,
	}
	s.emit(PhaseSuccess, nil)
	return res
}

func (s *scheduler) emit(phase Phase, err error) {
	snap := s.lastSnapshot
	s.opts.Telemetry.Emit(Event{
		Phase:           phase,
		Key:             s.opts.Key,
		Timestamp:       time.Now(),
		PollCount:       s.pollCount,
		ElapsedMs:       time.Since(s.startedAt).Milliseconds(),
		StrategyHistory: s.strategyHistory,
		StaleRecoveries: s.staleRecoveries,
		RemainingMs:     s.opts.TimeoutMs - time.Since(s.startedAt).Milliseconds(),
		Snapshot:        &snap,
		ResolveResult:   &s.lastResolve,
		Error:           err,
		Metadata:        s.opts.TelemetryMetadata,
	})
}
