// Package domshim is the platform-agnostic seam the selector resolver,
// idle gate, and predicates are built against. Go has no DOM; rather than
// hard-coding a browser binding, the rest of this module is written
// against these small interfaces, and a real embedder plugs in whatever
// drives the actual page (a CDP/WebDriver bridge, or — in tests, and in
// the bundled demo CLI — the in-memory implementation in pkg/domshim/memdom).
package domshim

// Rect is a bounding box in viewport coordinates, the Go analogue of
// Element.getBoundingClientRect().
type Rect struct {
	Top    float64
	Left   float64
	Width  float64
	Height float64
}

// Area returns Width*Height, clamped to zero for degenerate rects.
func (r Rect) Area() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// ComputedStyle is the subset of getComputedStyle() the visibility
// predicate needs.
type ComputedStyle struct {
	Display    string // "none" hides the element entirely
	Visibility string // "hidden" or "collapse" hides the element
	Opacity    float64
}

// Viewport mirrors globalThis.innerWidth/innerHeight.
type Viewport struct {
	Width  float64
	Height float64
}

// Node is the Go analogue of a DOM Element/Node.
type Node interface {
	// TagName is the element's tag name, lowercased.
	TagName() string
	// NodeID returns the element's id attribute, or "".
	NodeID() string
	// Attr returns an attribute's value and whether it is present at all
	// (distinguishing an empty value from an absent attribute).
	Attr(name string) (string, bool)
	// TextContent is the node's (and descendants') concatenated text.
	TextContent() string
	// Children returns direct child element nodes, in document order.
	Children() []Node
	// IsConnected reports whether the node is still attached to its
	// owning document's tree.
	IsConnected() bool
	// BoundingRect is the Go analogue of getBoundingClientRect().
	BoundingRect() Rect
	// Style is the Go analogue of getComputedStyle(element).
	Style() ComputedStyle
	// ScrollTop, ScrollHeight, ClientHeight mirror the same-named DOM
	// properties for scroll-container recovery (§4.5).
	ScrollTop() float64
	ScrollHeight() float64
	ClientHeight() float64
	// ScrollTo sets ScrollTop to top (the Go analogue of
	// element.scrollTo({top, behavior:"auto"})).
	ScrollTo(top float64)
}

// Document is the root scope a resolve() call defaults to, and the home
// of id-lookup, querySelector(All), and a minimal XPath evaluator.
type Document interface {
	Node

	// GetElementByID mirrors document.getElementById, scoped to nodes
	// reachable from this document.
	GetElementByID(id string) (Node, bool)

	// QuerySelector mirrors {document,Element}.querySelector, evaluated
	// under root (nil root means the whole document).
	QuerySelector(root Node, selector string) (Node, bool)

	// QuerySelectorAll mirrors querySelectorAll.
	QuerySelectorAll(root Node, selector string) []Node

	// EvaluateXPathAll mirrors document.evaluate with
	// ORDERED_NODE_SNAPSHOT_TYPE.
	EvaluateXPathAll(root Node, expr string) []Node

	// EvaluateXPathFirst mirrors document.evaluate with
	// FIRST_ORDERED_NODE_TYPE.
	EvaluateXPathFirst(root Node, expr string) (Node, bool)

	// Viewport mirrors globalThis.innerWidth/innerHeight; ok is false
	// when the embedder has no viewport concept (headless/off-screen).
	Viewport() (Viewport, bool)
}
