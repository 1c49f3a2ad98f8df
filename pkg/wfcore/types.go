// Package wfcore implements the workflow step scheduler of spec.md
// §4.8: atomic and control-flow steps executed against a layered
// context store, with per-step timeout/retry/backoff and a resolver
// bridge shared across steps of one run.
package wfcore

import (
	"context"
	"time"

	"github.com/tombee/waitcore/pkg/selector"
	"github.com/tombee/waitcore/pkg/wctx"
)

// StepKind tags a Step's dispatch path.
type StepKind string

const (
	KindAtomic  StepKind = "atomic"
	KindIf      StepKind = "if"
	KindForeach StepKind = "foreach"
	KindRetry   StepKind = "retry"
)

// Step is a tagged variant (spec.md §3's WorkflowStep): atomic steps
// are dispatched to a registered Handler by Handler name; if/foreach/
// retry recurse into nested Steps.
type Step struct {
	ID   string   `yaml:"id" json:"id"`
	Kind StepKind `yaml:"kind" json:"kind"`

	// Atomic fields.
	Key     string         `yaml:"key,omitempty" json:"key,omitempty"` // logical selector-map key, optional
	Handler string         `yaml:"handler,omitempty" json:"handler,omitempty"`
	Params  map[string]any `yaml:"params,omitempty" json:"params,omitempty"`

	// Per-step timing overrides (nil means inherit).
	TimeoutMs    *int64 `yaml:"timeoutMs,omitempty" json:"timeoutMs,omitempty"`
	Retries      *int   `yaml:"retries,omitempty" json:"retries,omitempty"`
	BackoffMs    *int64 `yaml:"backoffMs,omitempty" json:"backoffMs,omitempty"`
	MaxBackoffMs *int64 `yaml:"maxBackoffMs,omitempty" json:"maxBackoffMs,omitempty"`
	JitterMs     *int64 `yaml:"jitterMs,omitempty" json:"jitterMs,omitempty"`

	// if fields.
	When *Condition `yaml:"when,omitempty" json:"when,omitempty"`
	Then []Step     `yaml:"then,omitempty" json:"then,omitempty"`
	Else []Step     `yaml:"else,omitempty" json:"else,omitempty"`

	// foreach fields.
	List     string `yaml:"list,omitempty" json:"list,omitempty"` // context key holding the iterable
	As       string `yaml:"as,omitempty" json:"as,omitempty"`
	IndexVar string `yaml:"indexVar,omitempty" json:"indexVar,omitempty"`
	Steps    []Step `yaml:"steps,omitempty" json:"steps,omitempty"`

	// retry fields (wraps Steps in a transactional scope with its own policy).
	Policy *RetryPolicy `yaml:"policy,omitempty" json:"policy,omitempty"`
}

// RetryPolicy is the retry{policy, steps} control-flow step's policy,
// merged the same way a per-step TimingConfig override is.
type RetryPolicy struct {
	Retries      *int   `yaml:"retries,omitempty" json:"retries,omitempty"`
	BackoffMs    *int64 `yaml:"backoffMs,omitempty" json:"backoffMs,omitempty"`
	MaxBackoffMs *int64 `yaml:"maxBackoffMs,omitempty" json:"maxBackoffMs,omitempty"`
	JitterMs     *int64 `yaml:"jitterMs,omitempty" json:"jitterMs,omitempty"`
}

// TimingConfig is spec.md §3's merged timing envelope: definition
// defaults -> caller overrides -> per-step overrides.
type TimingConfig struct {
	TimeoutMs    int64 `yaml:"timeoutMs,omitempty" json:"timeoutMs,omitempty"`
	IntervalMs   int64 `yaml:"intervalMs,omitempty" json:"intervalMs,omitempty"`
	Retries      int   `yaml:"retries,omitempty" json:"retries,omitempty"`
	BackoffMs    int64 `yaml:"backoffMs,omitempty" json:"backoffMs,omitempty"`
	MaxBackoffMs int64 `yaml:"maxBackoffMs,omitempty" json:"maxBackoffMs,omitempty"`
	JitterMs     int64 `yaml:"jitterMs,omitempty" json:"jitterMs,omitempty"`
}

// DefaultTimingConfig mirrors spec.md §3's fixed defaults.
func DefaultTimingConfig() TimingConfig {
	return TimingConfig{
		TimeoutMs:    8000,
		IntervalMs:   150,
		Retries:      0,
		BackoffMs:    200,
		MaxBackoffMs: 5000,
		JitterMs:     0,
	}
}

// Merge layers override on top of t, taking any non-zero/non-nil
// field from override.
func (t TimingConfig) Merge(override TimingConfig) TimingConfig {
	out := t
	if override.TimeoutMs != 0 {
		out.TimeoutMs = override.TimeoutMs
	}
	if override.IntervalMs != 0 {
		out.IntervalMs = override.IntervalMs
	}
	if override.Retries != 0 {
		out.Retries = override.Retries
	}
	if override.BackoffMs != 0 {
		out.BackoffMs = override.BackoffMs
	}
	if override.MaxBackoffMs != 0 {
		out.MaxBackoffMs = override.MaxBackoffMs
	}
	if override.JitterMs != 0 {
		out.JitterMs = override.JitterMs
	}
	return out
}

// resolveStepTiming applies a step's own overrides (the last, most
// specific layer) onto an already-merged run TimingConfig.
func resolveStepTiming(base TimingConfig, step Step) TimingConfig {
	out := base
	if step.TimeoutMs != nil {
		out.TimeoutMs = *step.TimeoutMs
	}
	if step.BackoffMs != nil {
		out.BackoffMs = *step.BackoffMs
	}
	if step.MaxBackoffMs != nil {
		out.MaxBackoffMs = *step.MaxBackoffMs
	}
	if step.JitterMs != nil {
		out.JitterMs = *step.JitterMs
	}
	if step.Retries != nil {
		out.Retries = *step.Retries
	}
	return out
}

func resolveRetryTiming(base TimingConfig, p *RetryPolicy) TimingConfig {
	if p == nil {
		return base
	}
	out := base
	if p.Retries != nil {
		out.Retries = *p.Retries
	}
	if p.BackoffMs != nil {
		out.BackoffMs = *p.BackoffMs
	}
	if p.MaxBackoffMs != nil {
		out.MaxBackoffMs = *p.MaxBackoffMs
	}
	if p.JitterMs != nil {
		out.JitterMs = *p.JitterMs
	}
	return out
}

// Definition is spec.md §3's WorkflowDefinition.
type Definition struct {
	ID       string       `yaml:"id" json:"id"`
	Label    string       `yaml:"label,omitempty" json:"label,omitempty"`
	Version  string       `yaml:"version,omitempty" json:"version,omitempty"`
	Tags     []string     `yaml:"tags,omitempty" json:"tags,omitempty"`
	Steps    []Step       `yaml:"steps" json:"steps"`
	Defaults TimingConfig `yaml:"defaults,omitempty" json:"defaults,omitempty"`
}

// RunStatus is RunMetadata's lifecycle tag.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSuccess   RunStatus = "success"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// ContextSnapshots captures the context manager's flattened state at
// run boundaries, per spec.md §3's RunMetadata.contextSnapshots.
type ContextSnapshots struct {
	Initial map[string]any
	Final   map[string]any
}

// RunMetadata is spec.md §3's RunMetadata record.
type RunMetadata struct {
	ID              string
	WorkflowID      string
	Status          RunStatus
	StartedAt       time.Time
	FinishedAt      *time.Time
	DurationMs      *int64
	CompletedSteps  int
	CancelRequested bool
	Timing          TimingConfig
	Context         ContextSnapshots
	Error           error
	Metadata        map[string]any
}

// Outcome is runWorkflow's return value (spec.md §6).
type Outcome struct {
	Status         RunStatus
	StartedAt      time.Time
	FinishedAt     time.Time
	CompletedSteps int
	Error          error
	ContextSnapshot map[string]any
}

// ContextUpdate is one StepResult.contextUpdates entry (spec.md §4.8
// step 2d).
type ContextUpdate struct {
	Path  string
	Value any
	TTL   time.Duration
}

// LogEntry is one log line a handler asks the scheduler to forward
// (spec.md §4.8 step 2d: "forward logs to the logger at their
// declared level").
type LogEntry struct {
	Level string // matches slog level names: debug, info, warn, error
	Msg   string
	Args  []any
}

// StepResult is what a Handler returns on success.
type StepResult struct {
	ContextUpdates []ContextUpdate
	Logs           []LogEntry
	Data           map[string]any
	Skipped        bool
}

// HandlerInput is everything a Handler needs, per spec.md §4.8 step
// 2c's invocation shape.
type HandlerInput struct {
	Step            Step
	Attempt         int
	RetriesRemaining int
	Context         *wctx.Manager
	ResolveResult   *selector.ResolveResult
	RunID           string
	WorkflowID      string
	Logger          HandlerLogger
	ResolveLogicalKey func(key string) (selector.ResolveResult, error)
}

// HandlerLogger is the narrow logging surface exposed to handlers.
type HandlerLogger interface {
	Log(level string, msg string, args ...any)
}

// Handler executes one atomic step's side effect.
type Handler func(ctx context.Context, in HandlerInput) (StepResult, error)

// HandlerRegistry looks up a Handler by name (spec.md §4.8's handler
// invocation, generalized the way the teacher's OperationRegistry
// generalizes action/integration dispatch).
type HandlerRegistry interface {
	Lookup(name string) (Handler, bool)
}

// MapRegistry is the default in-memory HandlerRegistry.
type MapRegistry map[string]Handler

func (r MapRegistry) Lookup(name string) (Handler, bool) {
	h, ok := r[name]
	return h, ok
}
