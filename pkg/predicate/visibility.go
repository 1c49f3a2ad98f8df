package predicate

import (
	"context"

	"github.com/tombee/waitcore/pkg/domshim"
)

// VisibilityTarget is the state the predicate asserts against.
type VisibilityTarget string

const (
	VisibilityTargetVisible VisibilityTarget = "visible"
	VisibilityTargetHidden  VisibilityTarget = "hidden"
)

// VisibilitySnapshot is the WaitPredicateSnapshot.visibility shape
// (spec.md §3).
type VisibilitySnapshot struct {
	Satisfied         bool    `json:"satisfied"`
	Display           string  `json:"display"`
	Visibility        string  `json:"visibility"`
	Opacity           float64 `json:"opacity"`
	Area              float64 `json:"area"`
	IntersectionRatio float64 `json:"intersectionRatio"`
	Stale             bool    `json:"stale"`
}

// VisibilityOptions configures the Visibility predicate (spec.md §4.3).
// display≠none and a positive bounding-box area are unconditional parts
// of the visibility formula, not opt-in checks, so there is no
// RequireDisplayed flag here: visibility always requires both.
type VisibilityOptions struct {
	Target               VisibilityTarget
	RequireInViewport    bool
	MinOpacity           *float64
	MinIntersectionRatio *float64
	MinBoundingBoxArea   *float64
}

// Visibility builds a predicate asserting an element's rendered state
// against opts. An element that has left the document (IsConnected ==
// false) is always reported stale and never satisfied.
func Visibility(opts VisibilityOptions) Predicate {
	return func(_ context.Context, in EvalInput) (Result, error) {
		if in.Element == nil {
			snap := &VisibilitySnapshot{Stale: true}
			return Result{Satisfied: false, Stale: true, Snapshot: Snapshot{Visibility: snap}}, nil
		}

		stale := !in.Element.IsConnected()
		style := in.Element.Style()
		rect := in.Element.BoundingRect()
		area := rect.Area()

		displayed := style.Display != "none"
		notHidden := style.Visibility != "hidden" && style.Visibility != "collapse"

		opacityOK := style.Opacity > 0
		if opts.MinOpacity != nil {
			opacityOK = style.Opacity >= *opts.MinOpacity
		}

		areaOK := area > 0
		if opts.MinBoundingBoxArea != nil {
			areaOK = area >= *opts.MinBoundingBoxArea
		}

		ratio := intersectionRatio(in.Document, rect)
		ratioOK := true
		if opts.MinIntersectionRatio != nil {
			ratioOK = ratio >= *opts.MinIntersectionRatio
		} else if opts.RequireInViewport {
			ratioOK = ratio > 0
		}

		visible := displayed && notHidden && opacityOK && areaOK && ratioOK

		var satisfied bool
		switch opts.Target {
		case VisibilityTargetHidden:
			satisfied = !visible
		default:
			satisfied = visible
		}
		satisfied = satisfied && !stale

		snap := &VisibilitySnapshot{
			Satisfied:         satisfied,
			Display:           style.Display,
			Visibility:        style.Visibility,
			Opacity:           style.Opacity,
			Area:              area,
			IntersectionRatio: ratio,
			Stale:             stale,
		}
		return Result{Satisfied: satisfied, Stale: stale, Snapshot: Snapshot{Visibility: snap}}, nil
	}
}

// intersectionRatio computes how much of rect falls inside the
// document's viewport, 1 when no viewport is known (headless/no
// container case, per spec.md §4.3 treating an unknown viewport as
// non-restrictive unless a ratio threshold was explicitly requested).
func intersectionRatio(doc domshim.Document, rect domshim.Rect) float64 {
	if doc == nil {
		return 1
	}
	vp, ok := doc.Viewport()
	if !ok || rect.Area() == 0 {
		return 1
	}

	left := max(rect.Left, 0)
	top := max(rect.Top, 0)
	right := min(rect.Left+rect.Width, vp.Width)
	bottom := min(rect.Top+rect.Height, vp.Height)

	if right <= left || bottom <= top {
		return 0
	}
	visibleArea := (right - left) * (bottom - top)
	return visibleArea / rect.Area()
}
