package wait_test

import (
	"context"
	"testing"

	"github.com/tombee/waitcore/pkg/domshim"
	"github.com/tombee/waitcore/pkg/domshim/memdom"
	"github.com/tombee/waitcore/pkg/idle"
	"github.com/tombee/waitcore/pkg/predicate"
	"github.com/tombee/waitcore/pkg/wait"
)

func TestText_RequiresTextOrPattern(t *testing.T) {
	doc := memdom.NewDocument()
	_, err := wait.Text(context.Background(), wait.Options{Document: doc, CSS: "span"})
	if err == nil {
		t.Fatal("expected an error when neither Text nor TextPattern is set")
	}
}

func TestText_MatchesExpectedContent(t *testing.T) {
	doc := memdom.NewDocument()
	n := memdom.NewNode("span")
	n.SetText("Submit")
	doc.AppendChild(n)

	res, err := wait.Text(context.Background(), wait.Options{
		Document: doc, CSS: "span", Text: "Submit", Exact: true,
		TimeoutMs: 500, IntervalMs: 20, Rand: testRand(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Target == nil {
		t.Fatal("expected a resolved target")
	}
}

func TestVisible_PinsTargetToVisible(t *testing.T) {
	doc := memdom.NewDocument()
	n := memdom.NewNode("div").WithID("x")
	doc.AppendChild(n)

	res, err := wait.Visible(context.Background(), wait.Options{
		Document: doc, CSS: "#x", TimeoutMs: 500, IntervalMs: 20, Rand: testRand(),
	}, predicate.VisibilityOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Target == nil {
		t.Fatal("expected a resolved target")
	}
}

func TestHidden_PinsTargetToHidden(t *testing.T) {
	doc := memdom.NewDocument()
	n := memdom.NewNode("div").WithID("x")
	n.SetStyle(domshim.ComputedStyle{Display: "block", Visibility: "hidden", Opacity: 1})
	doc.AppendChild(n)

	res, err := wait.Hidden(context.Background(), wait.Options{
		Document: doc, CSS: "#x", TimeoutMs: 500, IntervalMs: 20, Rand: testRand(),
	}, predicate.VisibilityOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Target == nil {
		t.Fatal("expected a resolved target")
	}
}

func TestForIdle_RequiresIdleOptions(t *testing.T) {
	doc := memdom.NewDocument()
	_, err := wait.ForIdle(context.Background(), wait.Options{Document: doc, CSS: "#x"}, nil)
	if err == nil {
		t.Fatal("expected an error when Idle options are missing")
	}
}

func TestForIdle_PopulatesIdleSnapshotAfterSuccess(t *testing.T) {
	doc := memdom.NewDocument()
	n := memdom.NewNode("div").WithID("x")
	doc.AppendChild(n)

	idleOpts := idle.Options{IdleMs: 10}
	res, err := wait.ForIdle(context.Background(), wait.Options{
		Document: doc, CSS: "#x", TimeoutMs: 500, IntervalMs: 20, Rand: testRand(),
		Idle: &idleOpts,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IdleSnapshot == nil {
		t.Fatal("expected an idle snapshot to be populated")
	}
}
