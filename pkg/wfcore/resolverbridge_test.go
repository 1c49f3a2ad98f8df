package wfcore

import (
	"context"
	"strings"
	"testing"

	"github.com/tombee/waitcore/pkg/domshim/memdom"
	"github.com/tombee/waitcore/pkg/selector"
)

func buildBridgeFixture() (*ResolverBridge, *memdom.Document) {
	doc := memdom.NewDocument()
	btn := memdom.NewNode("button").WithID("submit")
	btn.SetText("Submit")
	doc.AppendChild(btn)

	m := selector.SelectorMap{
		"submit-button": {
			Tries: []selector.SelectorTry{{Type: selector.StrategyID, ID: "submit"}},
		},
	}
	resolver := selector.NewResolver(nil)
	return NewResolverBridge(resolver, doc, m, nil), doc
}

func TestResolverBridge_ResolvesAndCaches(t *testing.T) {
	b, _ := buildBridgeFixture()
	ctx := context.Background()

	rr, err := b.Resolve(ctx, "run1", "wf1", "step1", "atomic", "submit-button", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rr.Found() {
		t.Fatal("expected element to be found")
	}

	key := cacheKey("run1", "wf1", "step1", "atomic", "submit-button", 1)
	if _, ok := b.cache[key]; !ok {
		t.Fatal("expected cache entry after resolve")
	}
}

func TestResolverBridge_MissingKeyTranslatesToStepError(t *testing.T) {
	b, _ := buildBridgeFixture()
	ctx := context.Background()

	_, err := b.Resolve(ctx, "run1", "wf1", "step1", "atomic", "does-not-exist", 1)
	if err == nil {
		t.Fatal("expected an error for an unknown logical key")
	}
	if !strings.Contains(err.Error(), "does-not-exist") && !strings.Contains(err.Error(), "resolver") {
		t.Fatalf("expected resolver-miss style error, got: %v", err)
	}
}

func TestResolverBridge_ClearEvictsOnlyMatchingRun(t *testing.T) {
	b, _ := buildBridgeFixture()
	ctx := context.Background()

	if _, err := b.Resolve(ctx, "run1", "wf1", "step1", "atomic", "submit-button", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := b.Resolve(ctx, "run2", "wf1", "step1", "atomic", "submit-button", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b.Clear("run1")

	k1 := cacheKey("run1", "wf1", "step1", "atomic", "submit-button", 1)
	k2 := cacheKey("run2", "wf1", "step1", "atomic", "submit-button", 1)
	if _, ok := b.cache[k1]; ok {
		t.Error("expected run1's cache entry to be evicted")
	}
	if _, ok := b.cache[k2]; !ok {
		t.Error("expected run2's cache entry to survive")
	}
}

func TestResolverBridge_CancelledContextShortCircuits(t *testing.T) {
	b, _ := buildBridgeFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Resolve(ctx, "run1", "wf1", "step1", "atomic", "submit-button", 1)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
