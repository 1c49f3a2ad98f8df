package wait

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/tombee/waitcore/pkg/domshim"
	"github.com/tombee/waitcore/pkg/idle"
	"github.com/tombee/waitcore/pkg/predicate"
	"github.com/tombee/waitcore/pkg/selector"
)

const (
	defaultTimeoutMs          = 8000
	defaultIntervalMs         = 150
	minIntervalMs             = 25
	defaultMaxResolverRetries = 3
	heartbeatIntervalMs       = 1000
	jitterFraction            = 0.2
)

// Hints carries the optional scroll/stale-recovery tuning knobs of
// spec.md §4.4.
type Hints struct {
	ScrollerKey       string
	PresenceThreshold float64
	StaleRetryCap     int
}

// Options configures one waitFor invocation (spec.md §4.4).
type Options struct {
	Document   domshim.Document
	SelectorMap selector.SelectorMap
	Resolver   *selector.Resolver

	Key         string
	CSS         string
	XPath       string
	Text        string
	TextPattern string
	TextMode    predicate.TextMode
	Exact       bool

	Predicate predicate.Predicate

	Idle *idle.Options

	TimeoutMs          int64
	IntervalMs         int64
	MaxAttempts        int
	MaxResolverRetries int
	Hints              Hints
	ScopeKey           string

	// AfterResolve implements the optional schedule-integration hook
	// (spec.md §4.4's "Schedule integration"). Scroll recovery is
	// implemented on top of this hook in scroll.go.
	AfterResolve func(ctx context.Context, rr selector.ResolveResult) (Directive, error)

	Telemetry         Emitter
	TelemetryMetadata map[string]any
	SanitizeLogs      bool
	Debug             bool
	Logger            *slog.Logger

	// Rand, if nil, is replaced by a new source seeded from the current
	// time on each call. Injectable so
	// tests can assert on exact backoff timings.
	Rand *rand.Rand
}

// Directive is the schedule-integration hook's verdict.
type Directive string

const (
	DirectiveContinue Directive = "continue"
	DirectiveRetry    Directive = "retry"
)

// Result is the successful outcome of a wait (spec.md §3's WaitResult).
type Result struct {
	Key               string
	ResolveResult     selector.ResolveResult
	Target            domshim.Node
	Attempts          []selector.ResolveAttempt
	PollCount         int
	ElapsedMs         int64
	StrategyHistory   []string
	StaleRecoveries   int
	PredicateSnapshot *predicate.Snapshot
	IdleSnapshot      *idle.Snapshot
	StartedAt         time.Time
	FinishedAt        time.Time
}
