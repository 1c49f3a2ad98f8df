package wait

import (
	"context"
	"fmt"

	"github.com/tombee/waitcore/pkg/domshim"
	"github.com/tombee/waitcore/pkg/idle"
	"github.com/tombee/waitcore/pkg/predicate"
)

// Helpers facade (spec.md §4.6): composes predicates and the idle
// follow-up on top of the bare For scheduler.

// Text requires opts.Text or opts.TextPattern and attaches a text
// predicate in opts.TextMode, or, when that is unset, regex mode for a
// TextPattern, exact mode for Exact and contains mode otherwise. The
// predicate's normalization options are left at their defaults.
func Text(ctx context.Context, opts Options) (Result, error) {
	if opts.Text == "" && opts.TextPattern == "" {
		return Result{}, fmt.Errorf("wait: waitText requires Text or TextPattern")
	}
	mode := opts.TextMode
	if mode == "" {
		if opts.TextPattern != "" {
			mode = predicate.TextModeRegex
		} else if opts.Exact {
			mode = predicate.TextModeExact
		} else {
			mode = predicate.TextModeContains
		}
	}
	expected := opts.Text
	pattern := opts.TextPattern
	opts.Predicate = predicate.Text(predicate.TextOptions{
		Mode:     mode,
		Expected: expected,
		Pattern:  pattern,
	})
	return For(ctx, opts)
}

// Visible attaches a visibility predicate pinned to "visible".
func Visible(ctx context.Context, opts Options, vis predicate.VisibilityOptions) (Result, error) {
	vis.Target = predicate.VisibilityTargetVisible
	opts.Predicate = predicate.Visibility(vis)
	return For(ctx, opts)
}

// Hidden attaches a visibility predicate pinned to "hidden".
func Hidden(ctx context.Context, opts Options, vis predicate.VisibilityOptions) (Result, error) {
	vis.Target = predicate.VisibilityTargetHidden
	opts.Predicate = predicate.Visibility(vis)
	return For(ctx, opts)
}

// ForIdle requires opts.Idle, runs the ordinary scheduler to locate a
// target (when selector parameters are supplied), then invokes the
// idle gate scoped to, in order: the resolved target, the resolve
// result's scope root, or the document — per spec.md §4.6's fall-through.
func ForIdle(ctx context.Context, opts Options, factory domshim.MutationObserverFactory) (Result, error) {
	if opts.Idle == nil {
		return Result{}, fmt.Errorf("wait: waitForIdle requires Idle options")
	}

	res, err := For(ctx, opts)
	if err != nil {
		return Result{}, err
	}

	idleOpts := *opts.Idle
	switch {
	case res.Target != nil:
		idleOpts.Root = res.Target
	case res.ResolveResult.Scope != nil && res.ResolveResult.Scope.Root != nil:
		idleOpts.Root = res.ResolveResult.Scope.Root
	default:
		idleOpts.Root = opts.Document
	}

	idleRes, err := idle.Run(ctx, factory, idleOpts)
	if err != nil {
		return Result{}, err
	}
	res.IdleSnapshot = &idleRes.Snapshot
	return res, nil
}
