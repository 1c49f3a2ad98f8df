package wfcore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tombee/waitcore/internal/log"
	"github.com/tombee/waitcore/pkg/domshim"
	"github.com/tombee/waitcore/pkg/selector"
	"github.com/tombee/waitcore/pkg/werrors"
)

// ResolverBridge wraps the selector resolver with a per-(runId,
// workflowId, stepId-or-kind+key, attempt) cache, per spec.md §4.9.
// One bridge instance is shared by every step of a single run.
type ResolverBridge struct {
	mu       sync.Mutex
	resolver *selector.Resolver
	doc      domshim.Document
	selMap   selector.SelectorMap
	logger   *slog.Logger
	cache    map[string]selector.ResolveResult
}

// NewResolverBridge constructs a bridge over an already-built
// Resolver, mirroring pkg/workflow/store.go's MemoryStore shape
// (mutex-guarded map) generalized to a cache rather than a store.
func NewResolverBridge(resolver *selector.Resolver, doc domshim.Document, selMap selector.SelectorMap, logger *slog.Logger) *ResolverBridge {
	return &ResolverBridge{
		resolver: resolver,
		doc:      doc,
		selMap:   selMap,
		logger:   logger,
		cache:    make(map[string]selector.ResolveResult),
	}
}

func cacheKey(runID, workflowID, stepID, kind, key string, attempt int) string {
	ident := stepID
	if ident == "" {
		ident = kind + ":" + key
	}
	return strings.Join([]string{runID, workflowID, ident, fmt.Sprint(attempt)}, "|")
}

// Resolve resolves key for one step attempt, checking (and populating)
// the per-attempt cache first. Pre/post cancellation checks translate
// a cancelled context into a cancellation error rather than a
// resolver-miss; any other resolver error is translated to a
// StepError{resolver-miss}.
func (b *ResolverBridge) Resolve(ctx context.Context, runID, workflowID, stepID, kind, key string, attempt int) (selector.ResolveResult, error) {
	if err := ctx.Err(); err != nil {
		return selector.ResolveResult{Key: key}, werrors.NewStepCancelled(runID, stepID, attempt, err)
	}

	ck := cacheKey(runID, workflowID, stepID, kind, key, attempt)
	b.mu.Lock()
	if cached, ok := b.cache[ck]; ok {
		b.mu.Unlock()
		return cached, nil
	}
	b.mu.Unlock()

	rr, err := b.resolver.Resolve(b.doc, b.selMap, key, nil)
	if err != nil {
		b.logKey(key, slog.LevelWarn, "resolver bridge miss", "runId", runID, "err", err)
		return rr, werrors.NewStepResolverMiss(runID, stepID, key, attempt)
	}
	if !rr.Found() {
		b.logKey(key, slog.LevelWarn, "resolver bridge miss", "runId", runID)
		return rr, werrors.NewStepResolverMiss(runID, stepID, key, attempt)
	}

	if err := ctx.Err(); err != nil {
		return rr, werrors.NewStepCancelled(runID, stepID, attempt, err)
	}

	b.mu.Lock()
	b.cache[ck] = rr
	b.mu.Unlock()

	stability := 0.0
	if rr.Entry != nil {
		stability = rr.Entry.StabilityScore
	}
	b.logResolved(key, string(rr.ResolvedBy), "resolver bridge resolved", "runId", runID,
		"attempt", attempt, "stabilityScore", stability)
	return rr, nil
}

// logKey logs msg with the logical selector key attached via
// log.WithSelectorKey, for resolver-bridge lines reporting a miss.
func (b *ResolverBridge) logKey(key string, level slog.Level, msg string, args ...any) {
	if b.logger == nil {
		return
	}
	log.WithSelectorKey(b.logger, key).Log(context.Background(), level, msg, args...)
}

// logResolved logs msg with both the logical selector key and the
// resolved strategy attached, for resolver-bridge lines that report
// which fallback satisfied a logical key.
func (b *ResolverBridge) logResolved(key, strategy, msg string, args ...any) {
	if b.logger == nil {
		return
	}
	log.WithStrategy(log.WithSelectorKey(b.logger, key), strategy).Info(msg, args...)
}

// Clear evicts every cache entry belonging to runID (spec.md §4.9's
// "cache eviction by run prefix on clear(runId)").
func (b *ResolverBridge) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	prefix := runID + "|"
	for k := range b.cache {
		if strings.HasPrefix(k, prefix) {
			delete(b.cache, k)
		}
	}
}
