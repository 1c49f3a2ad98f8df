// Package memdom is an in-memory domshim.Document implementation. It
// backs the package's unit/integration tests and the bundled demo CLI; a
// production embedder driving a real browser engine implements
// pkg/domshim.Document against its own transport instead.
package memdom

import (
	"strings"
	"sync"

	"github.com/tombee/waitcore/pkg/domshim"
)

// Node is an in-memory domshim.Node.
type Node struct {
	mu sync.RWMutex

	tag      string
	id       string
	attrs    map[string]string
	text     string
	children []*Node
	parent   *Node
	doc      *Document

	connected bool
	rect      domshim.Rect
	style     domshim.ComputedStyle

	scrollTop    float64
	scrollHeight float64
	clientHeight float64
}

// NewNode constructs a detached node with the given tag. Attach it to a
// Document (or another Node already in one) via AppendChild.
func NewNode(tag string) *Node {
	return &Node{
		tag:       strings.ToLower(tag),
		attrs:     make(map[string]string),
		connected: true,
		style:     domshim.ComputedStyle{Display: "block", Visibility: "visible", Opacity: 1},
		rect:      domshim.Rect{Width: 100, Height: 20},
	}
}

// WithID sets the id attribute and returns the node for chaining.
func (n *Node) WithID(id string) *Node {
	n.id = id
	n.SetAttr("id", id)
	return n
}

// SetAttr sets an attribute value, creating it if absent.
func (n *Node) SetAttr(name, value string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attrs[name] = value
	n.notifyMutation(domshim.MutationAttributes, name)
}

// RemoveAttr removes an attribute.
func (n *Node) RemoveAttr(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.attrs, name)
	n.notifyMutation(domshim.MutationAttributes, name)
}

// SetText sets the node's text content, emitting a characterData
// mutation.
func (n *Node) SetText(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.text = text
	n.notifyMutation(domshim.MutationCharacterData, "")
}

// SetStyle overwrites the node's computed style.
func (n *Node) SetStyle(s domshim.ComputedStyle) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.style = s
}

// SetRect overwrites the node's bounding rect.
func (n *Node) SetRect(r domshim.Rect) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rect = r
}

// SetConnected flips IsConnected(), simulating detachment/reattachment.
func (n *Node) SetConnected(connected bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.connected = connected
}

// SetScroll configures the scroll-container dimensions read by the scroll
// integration (§4.5).
func (n *Node) SetScroll(top, height, clientHeight float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scrollTop = top
	n.scrollHeight = height
	n.clientHeight = clientHeight
}

// AppendChild attaches child under n, wiring it into n's owning document
// (if any) and emitting a childList mutation.
func (n *Node) AppendChild(child *Node) {
	n.mu.Lock()
	child.parent = n
	child.doc = n.doc
	n.children = append(n.children, child)
	n.notifyMutation(domshim.MutationChildList, "")
	n.mu.Unlock()
	if n.doc != nil {
		n.doc.index(child)
	}
}

// notifyMutation must be called with n.mu held. It walks to the owning
// document and fans the mutation out to every observer whose subtree
// covers n.
func (n *Node) notifyMutation(kind domshim.MutationKind, attrName string) {
	if n.doc == nil {
		return
	}
	m := domshim.Mutation{Kind: kind, AttributeName: attrName, TargetTag: n.tag, TargetID: n.id}
	n.doc.dispatch(n, m)
}

func (n *Node) TagName() string { n.mu.RLock(); defer n.mu.RUnlock(); return n.tag }
func (n *Node) NodeID() string  { n.mu.RLock(); defer n.mu.RUnlock(); return n.id }

func (n *Node) Attr(name string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.attrs[name]
	return v, ok
}

func (n *Node) attrsSnapshot() map[string]string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[string]string, len(n.attrs))
	for k, v := range n.attrs {
		out[k] = v
	}
	return out
}

func (n *Node) TextContent() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if len(n.children) == 0 {
		return n.text
	}
	var b strings.Builder
	b.WriteString(n.text)
	for _, c := range n.children {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

func (n *Node) Children() []domshim.Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]domshim.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *Node) childNodes() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

func (n *Node) IsConnected() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.connected
}

func (n *Node) BoundingRect() domshim.Rect {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.rect
}

func (n *Node) Style() domshim.ComputedStyle {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.style
}

func (n *Node) ScrollTop() float64     { n.mu.RLock(); defer n.mu.RUnlock(); return n.scrollTop }
func (n *Node) ScrollHeight() float64  { n.mu.RLock(); defer n.mu.RUnlock(); return n.scrollHeight }
func (n *Node) ClientHeight() float64  { n.mu.RLock(); defer n.mu.RUnlock(); return n.clientHeight }

func (n *Node) ScrollTo(top float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scrollTop = top
	n.notifyMutation(domshim.MutationAttributes, "scrollTop")
}
