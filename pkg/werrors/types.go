// Package werrors defines the structured error taxonomy shared by the wait
// scheduler and the workflow step scheduler.
package werrors

import (
	"fmt"
)

// Code is a stable, switchable error tag. Callers should branch on Code
// rather than on concrete Go types, since both WaitError and StepError
// carry the same set of codes.
type Code string

const (
	// CodeTimeout means a wait or step ran past its deadline, or stale
	// recovery attempts were exhausted (message distinguishes the two).
	CodeTimeout Code = "timeout"

	// CodeResolverMiss means no selector strategy produced a node.
	CodeResolverMiss Code = "resolver-miss"

	// CodeIdleWindowExceeded means the idle gate's maxWindow elapsed
	// before the subtree settled.
	CodeIdleWindowExceeded Code = "idle-window-exceeded"

	// CodeVisibilityMismatch is reserved: an element never satisfied the
	// visibility predicate. Currently surfaced as CodeTimeout; kept as a
	// distinct tag for callers that want to branch on it once the
	// scheduler starts emitting it directly.
	CodeVisibilityMismatch Code = "visibility-mismatch"

	// CodeCancelled means a signal aborted the operation.
	CodeCancelled Code = "cancelled"

	// CodeUnknown is an unclassified handler failure.
	CodeUnknown Code = "unknown"
)

// guidance holds a short human-readable suggestion per reason code. It is
// advisory only; narrative UIs may surface it alongside the structured
// error, never in place of it.
var guidance = map[Code]string{
	CodeTimeout:            "Increase timeoutMs, verify the predicate can ever be satisfied, or raise staleRetryCap.",
	CodeResolverMiss:       "Check the selector map for the key, or add a fallback css/xpath/text strategy.",
	CodeIdleWindowExceeded: "Increase idleMs or maxWindowMs, or verify mutation sources before retrying.",
	CodeVisibilityMismatch: "Confirm the target's display/visibility/opacity actually reaches the requested state.",
	CodeCancelled:          "The operation was aborted by its caller; no retry will help unless cancellation is lifted.",
	CodeUnknown:            "Inspect the wrapped cause for details.",
}

// Guidance returns a short human-readable suggestion for code, or "" if
// none is registered.
func Guidance(code Code) string {
	return guidance[code]
}

// WaitError is returned by the wait scheduler and the wait helpers facade.
// It mirrors the variant-specific extras spec.md §3 describes for each
// code: Timeout carries TimeoutMs, ResolverMiss carries ResolveSummary,
// IdleWindowExceeded carries IdleSnapshot, VisibilityMismatch carries
// VisibilitySnapshot.
type WaitError struct {
	Code     Code
	Message  string
	Key      string
	ElapsedMs int64
	PollCount int
	Attempts  []ResolveAttemptSummary
	StrategyHistory []string
	StaleRecoveries int

	// Variant-specific extras. Only the field matching Code is populated.
	TimeoutMs          int64
	ResolveSummary      *ResolveResultSummary
	IdleSnapshot        any
	VisibilitySnapshot  any
	PredicateSnapshot   any

	// staleExceeded marks a timeout caused by exhausting stale-recovery
	// attempts (spec.md §8: message must contain "stale").
	staleExceeded bool

	Cause error
}

// ResolveAttemptSummary is a compact record of one resolver strategy try,
// carried on WaitError so failure telemetry/log lines can show what was
// attempted without retaining live DOM references.
type ResolveAttemptSummary struct {
	Strategy string
	Success  bool
	Elements int
}

// ResolveResultSummary is a compact, loggable projection of a resolve
// result, attached to resolver-miss errors.
type ResolveResultSummary struct {
	Key        string
	ResolvedBy string
	Found      bool
}

// Error implements the error interface.
func (e *WaitError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("wait %s: key %q: %s", e.Code, e.Key, e.Message)
	}
	return fmt.Sprintf("wait %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *WaitError) Unwrap() error {
	return e.Cause
}

// StaleExceeded reports whether this error represents stale-recovery
// exhaustion rather than an ordinary predicate/resolver timeout. Callers
// that want the "message contains stale" contract from spec.md §8 should
// prefer this accessor over substring matching.
func (e *WaitError) StaleExceeded() bool {
	return e.Code == CodeTimeout && e.staleExceeded
}
