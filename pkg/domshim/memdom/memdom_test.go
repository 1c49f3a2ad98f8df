package memdom_test

import (
	"testing"

	"github.com/tombee/waitcore/pkg/domshim"
	"github.com/tombee/waitcore/pkg/domshim/memdom"
)

var (
	_ domshim.Document = (*memdom.Document)(nil)
	_ domshim.Node     = (*memdom.Node)(nil)
)

func buildDoc() (*memdom.Document, *memdom.Node) {
	doc := memdom.NewDocument()
	btn := memdom.NewNode("button").WithID("submit")
	btn.SetAttr("role", "button")
	btn.SetAttr("data-testid", "submit-btn")
	btn.SetText("Submit")
	doc.AppendChild(btn)
	return doc, btn
}

func TestQuerySelector_ByID(t *testing.T) {
	doc, btn := buildDoc()
	got, ok := doc.QuerySelector(nil, "#submit")
	if !ok {
		t.Fatal("expected match")
	}
	if got != domshim.Node(btn) {
		t.Error("expected the button node")
	}
}

func TestQuerySelector_ByAttr(t *testing.T) {
	doc, _ := buildDoc()
	got, ok := doc.QuerySelector(nil, `[data-testid="submit-btn"]`)
	if !ok || got.NodeID() != "submit" {
		t.Fatalf("expected to resolve by data-testid, got %v ok=%v", got, ok)
	}
}

func TestGetElementByID(t *testing.T) {
	doc, _ := buildDoc()
	n, ok := doc.GetElementByID("submit")
	if !ok || n.NodeID() != "submit" {
		t.Fatal("expected to find node by id")
	}
	if _, ok := doc.GetElementByID("missing"); ok {
		t.Error("expected missing id to be absent")
	}
}

func TestEvaluateXPath_TextExact(t *testing.T) {
	doc, _ := buildDoc()
	nodes := doc.EvaluateXPathAll(nil, `descendant-or-self::*[text()="Submit"]`)
	if len(nodes) != 1 {
		t.Fatalf("expected 1 match, got %d", len(nodes))
	}
}

func TestEvaluateXPath_Contains(t *testing.T) {
	doc, _ := buildDoc()
	nodes := doc.EvaluateXPathAll(nil, `descendant-or-self::*[contains(text(), "Sub")]`)
	if len(nodes) != 1 {
		t.Fatalf("expected 1 match, got %d", len(nodes))
	}
}

func TestMutationObserver_DeliversOnAttrChange(t *testing.T) {
	doc, btn := buildDoc()
	var got []domshim.Mutation
	factory := memdom.NewMutationObserverFactory(doc)
	obs := factory(func(m []domshim.Mutation) { got = append(got, m...) })
	obs.Observe(doc, domshim.DefaultObserveConfig())

	btn.SetAttr("aria-pressed", "true")

	if len(got) == 0 {
		t.Fatal("expected a mutation to be delivered")
	}
	if got[0].Kind != domshim.MutationAttributes {
		t.Errorf("Kind = %v, want attributes", got[0].Kind)
	}
	obs.Disconnect()
}

func TestIsConnected(t *testing.T) {
	doc, btn := buildDoc()
	_ = doc
	if !btn.IsConnected() {
		t.Fatal("expected newly attached node to be connected")
	}
	btn.SetConnected(false)
	if btn.IsConnected() {
		t.Fatal("expected node to report disconnected")
	}
}
