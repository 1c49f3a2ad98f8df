package wait

import (
	"context"
	"math"
	"time"

	"github.com/tombee/waitcore/pkg/domshim"
	"github.com/tombee/waitcore/pkg/selector"
)

const scrollSettleDelayMs = 50

// scrollIntegration implements the scroll-based recovery schedule
// integration of spec.md §4.5: lazily resolve and cache a scroll
// container, and on a resolver miss, advance its scrollTop and request
// a same-iteration retry.
type scrollIntegration struct {
	doc               domshim.Document
	selectorMap       selector.SelectorMap
	resolver          *selector.Resolver
	scrollerKey       string
	presenceThreshold float64

	container   domshim.Node
	attempts    int
	maxAttempts int
}

func newScrollIntegration(doc domshim.Document, m selector.SelectorMap, r *selector.Resolver, scrollerKey string, presenceThreshold float64) *scrollIntegration {
	attemptCap := int(math.Floor(presenceThreshold)) * 3
	if attemptCap < 6 {
		attemptCap = 6
	}
	if attemptCap > 24 {
		attemptCap = 24
	}
	return &scrollIntegration{
		doc: doc, selectorMap: m, resolver: r,
		scrollerKey: scrollerKey, presenceThreshold: presenceThreshold,
		maxAttempts: attemptCap,
	}
}

// afterResolve implements the AfterResolve hook signature.
func (s *scrollIntegration) afterResolve(ctx context.Context, rr selector.ResolveResult) (Directive, error) {
	if rr.Found() {
		s.attempts = 0
		return DirectiveContinue, nil
	}

	container, ok := s.resolveContainer()
	if !ok {
		return DirectiveContinue, nil
	}

	if s.attempts >= s.maxAttempts {
		return DirectiveContinue, nil
	}

	if container.ScrollHeight() <= container.ClientHeight()+1 {
		return DirectiveContinue, nil
	}

	top := container.ScrollTop()
	maxTop := container.ScrollHeight() - container.ClientHeight()
	if top >= maxTop {
		return DirectiveContinue, nil
	}

	advance := math.Max(40, math.Floor(container.ClientHeight()*0.75))
	next := math.Min(top+advance, maxTop)
	container.ScrollTo(next)
	s.attempts++

	select {
	case <-ctx.Done():
		return DirectiveContinue, ctx.Err()
	case <-time.After(scrollSettleDelayMs * time.Millisecond):
	}
	return DirectiveRetry, nil
}

// resolveContainer lazily resolves and caches the scroll container,
// dropping the cache if it has become disconnected.
func (s *scrollIntegration) resolveContainer() (domshim.Node, bool) {
	if s.container != nil {
		if !s.container.IsConnected() {
			s.container = nil
		} else {
			return s.container, true
		}
	}
	rr, err := s.resolver.Resolve(s.doc, s.selectorMap, s.scrollerKey, nil)
	if err != nil || !rr.Found() {
		return nil, false
	}
	s.container = rr.Element
	return s.container, true
}
