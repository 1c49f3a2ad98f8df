package memdom

import (
	"sync"

	"github.com/tombee/waitcore/pkg/domshim"
)

// Document is an in-memory domshim.Document rooted at a single synthetic
// <html> node.
type Document struct {
	*Node

	mu        sync.RWMutex
	byID      map[string]*Node
	viewport  *domshim.Viewport
	observers []*observer
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	root := NewNode("html")
	d := &Document{
		Node: root,
		byID: make(map[string]*Node),
	}
	root.doc = d
	return d
}

// SetViewport configures the viewport the visibility predicate's
// intersection-ratio fallback reads (§4.3). Pass nil to simulate an
// embedder with no viewport concept.
func (d *Document) SetViewport(v *domshim.Viewport) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.viewport = v
}

func (d *Document) Viewport() (domshim.Viewport, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.viewport == nil {
		return domshim.Viewport{}, false
	}
	return *d.viewport, true
}

// index registers n (and its current subtree) in the id index. Called
// whenever a node is appended anywhere in the document.
func (d *Document) index(n *Node) {
	d.mu.Lock()
	if n.id != "" {
		d.byID[n.id] = n
	}
	d.mu.Unlock()
	for _, c := range n.childNodes() {
		d.index(c)
	}
}

func (d *Document) GetElementByID(id string) (domshim.Node, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.byID[id]
	if !ok {
		return nil, false
	}
	return n, true
}

// dispatch fans a mutation out to every observer whose watched subtree
// covers target, honoring each observer's ObserveConfig.
func (d *Document) dispatch(target *Node, m domshim.Mutation) {
	d.mu.RLock()
	obs := make([]*observer, len(d.observers))
	copy(obs, d.observers)
	d.mu.RUnlock()

	for _, o := range obs {
		if o.covers(target, m) {
			o.enqueue(m)
		}
	}
}

func (d *Document) addObserver(o *observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, o)
}

func (d *Document) removeObserver(o *observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, existing := range d.observers {
		if existing == o {
			d.observers = append(d.observers[:i], d.observers[i+1:]...)
			return
		}
	}
}

func asNode(n domshim.Node) *Node {
	if n == nil {
		return nil
	}
	if mn, ok := n.(*Node); ok {
		return mn
	}
	if d, ok := n.(*Document); ok {
		return d.Node
	}
	return nil
}
