package predicate_test

import (
	"context"
	"testing"

	"github.com/tombee/waitcore/pkg/domshim"
	"github.com/tombee/waitcore/pkg/domshim/memdom"
	"github.com/tombee/waitcore/pkg/predicate"
)

func TestVisibility_DefaultVisibleElementSatisfiesVisibleTarget(t *testing.T) {
	n := memdom.NewNode("div")
	p := predicate.Visibility(predicate.VisibilityOptions{Target: predicate.VisibilityTargetVisible})
	res, err := p(context.Background(), predicate.EvalInput{Element: n})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Satisfied {
		t.Fatal("expected default-styled node to be visible")
	}
}

func TestVisibility_DisplayNoneAlwaysFailsRegardlessOfOtherOptions(t *testing.T) {
	n := memdom.NewNode("div")
	n.SetStyle(domshim.ComputedStyle{Display: "none", Visibility: "visible", Opacity: 1})
	p := predicate.Visibility(predicate.VisibilityOptions{Target: predicate.VisibilityTargetVisible})
	res, err := p(context.Background(), predicate.EvalInput{Element: n})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Satisfied {
		t.Fatal("display:none must always fail visibility, with no opt-in flag required")
	}
}

func TestVisibility_ZeroAreaAlwaysFailsByDefault(t *testing.T) {
	n := memdom.NewNode("div")
	n.SetStyle(domshim.ComputedStyle{Display: "block", Visibility: "visible", Opacity: 1})
	n.SetRect(domshim.Rect{Width: 0, Height: 0})
	p := predicate.Visibility(predicate.VisibilityOptions{Target: predicate.VisibilityTargetVisible})
	res, err := p(context.Background(), predicate.EvalInput{Element: n})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Satisfied {
		t.Fatal("a zero-area element must fail visibility by default, with no opt-in flag required")
	}
}

func TestVisibility_HiddenTargetSatisfiedWhenElementHidden(t *testing.T) {
	n := memdom.NewNode("div")
	n.SetStyle(domshim.ComputedStyle{Display: "block", Visibility: "hidden", Opacity: 1})
	p := predicate.Visibility(predicate.VisibilityOptions{Target: predicate.VisibilityTargetHidden})
	res, err := p(context.Background(), predicate.EvalInput{Element: n})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Satisfied {
		t.Fatal("expected hidden element to satisfy hidden target")
	}
}

func TestVisibility_MinOpacityThreshold(t *testing.T) {
	n := memdom.NewNode("div")
	n.SetStyle(domshim.ComputedStyle{Display: "block", Visibility: "visible", Opacity: 0.05})
	minOpacity := 0.5
	p := predicate.Visibility(predicate.VisibilityOptions{Target: predicate.VisibilityTargetVisible, MinOpacity: &minOpacity})
	res, err := p(context.Background(), predicate.EvalInput{Element: n})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Satisfied {
		t.Fatal("expected opacity below threshold to fail")
	}
}

func TestVisibility_DisconnectedElementIsStaleAndUnsatisfied(t *testing.T) {
	n := memdom.NewNode("div")
	n.SetConnected(false)
	p := predicate.Visibility(predicate.VisibilityOptions{Target: predicate.VisibilityTargetVisible})
	res, err := p(context.Background(), predicate.EvalInput{Element: n})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Stale {
		t.Fatal("expected disconnected element to be reported stale")
	}
	if res.Satisfied {
		t.Fatal("a stale element must never satisfy")
	}
}

func TestVisibility_NilElementIsStale(t *testing.T) {
	p := predicate.Visibility(predicate.VisibilityOptions{Target: predicate.VisibilityTargetVisible})
	res, err := p(context.Background(), predicate.EvalInput{Element: nil})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Stale || res.Satisfied {
		t.Fatal("expected nil element to be stale and unsatisfied")
	}
}

func TestVisibility_IntersectionRatioBelowThresholdFails(t *testing.T) {
	doc := memdom.NewDocument()
	doc.SetViewport(&domshim.Viewport{Width: 100, Height: 100})
	n := memdom.NewNode("div")
	n.SetRect(domshim.Rect{Top: 90, Left: 90, Width: 50, Height: 50})
	doc.AppendChild(n)

	minRatio := 0.5
	p := predicate.Visibility(predicate.VisibilityOptions{Target: predicate.VisibilityTargetVisible, MinIntersectionRatio: &minRatio})
	res, err := p(context.Background(), predicate.EvalInput{Element: n, Document: doc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Satisfied {
		t.Fatal("expected a mostly-offscreen element to fail the intersection ratio threshold")
	}
}
