// Package predicate implements the pure text/visibility/composite
// evaluators spec.md §4.3 describes: functions of (element, context) ->
// {satisfied, stale?, snapshot?}.
package predicate

import (
	"context"

	"github.com/tombee/waitcore/pkg/domshim"
)

// EvalInput is everything a predicate may read about the current poll,
// mirroring the object the wait scheduler invokes a predicate with
// (spec.md §4.4 step 6).
type EvalInput struct {
	Element   domshim.Node
	Document  domshim.Document
	PollCount int
	ElapsedMs int64
}

// Result is a predicate's verdict for one poll.
type Result struct {
	Satisfied bool
	Stale     bool
	Snapshot  Snapshot
}

// Snapshot carries the disjoint subfields spec.md §3 describes for
// WaitPredicateSnapshot. Only the fields the invoked predicate(s) set are
// non-nil; Composite merges by taking whichever component set each field.
type Snapshot struct {
	Text            *TextSnapshot       `json:"text,omitempty"`
	Visibility      *VisibilitySnapshot `json:"visibility,omitempty"`
	Idle            any                 `json:"idle,omitempty"`
	StaleRecoveries *int                `json:"staleRecoveries,omitempty"`
}

// Merge copies every field set on other over s (other wins where both
// set a field), returning the merged snapshot. Both sides keep their own identity; this never
// mutates its arguments.
func (s Snapshot) Merge(other Snapshot) Snapshot {
	out := s
	if other.Text != nil {
		out.Text = other.Text
	}
	if other.Visibility != nil {
		out.Visibility = other.Visibility
	}
	if other.Idle != nil {
		out.Idle = other.Idle
	}
	if other.StaleRecoveries != nil {
		out.StaleRecoveries = other.StaleRecoveries
	}
	return out
}

// Predicate is a pure evaluator: same inputs, same verdict, no side
// effects beyond its own computation. The wait scheduler treats ctx
// cancellation as advisory — evaluators that do no I/O, like Text and
// Visibility, ignore it; a predicate that must await something (a
// network probe, say) should respect ctx.Done().
type Predicate func(ctx context.Context, in EvalInput) (Result, error)
