package memdom

import (
	"regexp"
	"strings"

	"github.com/tombee/waitcore/pkg/domshim"
)

// This is a deliberately small XPath subset, not a general engine: it
// covers exactly the forms spec.md §4.1 and §6 name — the resolver's own
// generated text-strategy expressions
// (descendant-or-self::*[text()="…"] / [contains(text(), "…")]) plus the
// handful of tag/@attr predicates a hand-authored xpath SelectorTry would
// realistically use. No XPath library appears anywhere in the retrieved
// example corpus (it is entirely backend/CLI tooling with no HTML/XML
// traversal need), so there is nothing to wire here instead — see
// DESIGN.md.
var stepPattern = regexp.MustCompile(`^(\*|[A-Za-z][\w-]*)(?:\[(.+)\])?$`)

type xpathPredicate struct {
	kind     string // "text-exact", "text-contains", "attr-exists", "attr-equals"
	text     string
	attrName string
}

func parseXPathStep(expr string) (tag string, pred *xpathPredicate, ok bool) {
	expr = strings.TrimPrefix(expr, "descendant-or-self::")
	expr = strings.TrimPrefix(expr, "descendant::")
	expr = strings.TrimPrefix(expr, "//")
	expr = strings.TrimPrefix(expr, "/")
	m := stepPattern.FindStringSubmatch(expr)
	if m == nil {
		return "", nil, false
	}
	tag = strings.ToLower(m[1])
	if m[2] == "" {
		return tag, nil, true
	}
	predExpr := strings.TrimSpace(m[2])
	switch {
	case strings.HasPrefix(predExpr, "text()="):
		return tag, &xpathPredicate{kind: "text-exact", text: unquote(predExpr[len("text()="):])}, true
	case strings.HasPrefix(predExpr, "contains(text(),"):
		inner := strings.TrimSuffix(strings.TrimPrefix(predExpr, "contains(text(),"), ")")
		return tag, &xpathPredicate{kind: "text-contains", text: unquote(strings.TrimSpace(inner))}, true
	case strings.HasPrefix(predExpr, "@"):
		rest := predExpr[1:]
		if eq := strings.IndexByte(rest, '='); eq >= 0 {
			return tag, &xpathPredicate{
				kind:     "attr-equals",
				attrName: strings.TrimSpace(rest[:eq]),
				text:     unquote(strings.TrimSpace(rest[eq+1:])),
			}, true
		}
		return tag, &xpathPredicate{kind: "attr-exists", attrName: strings.TrimSpace(rest)}, true
	}
	return tag, nil, true
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func (p *xpathPredicate) matches(n *Node) bool {
	if p == nil {
		return true
	}
	switch p.kind {
	case "text-exact":
		return strings.TrimSpace(ownText(n)) == p.text
	case "text-contains":
		return strings.Contains(ownText(n), p.text)
	case "attr-exists":
		_, ok := n.Attr(p.attrName)
		return ok
	case "attr-equals":
		v, ok := n.Attr(p.attrName)
		return ok && v == p.text
	default:
		return true
	}
}

// EvaluateXPathAll implements domshim.Document.
func (d *Document) EvaluateXPathAll(root domshim.Node, expr string) []domshim.Node {
	start := d.startNode(root)
	tag, pred, ok := parseXPathStep(expr)
	if !ok {
		return nil
	}
	var out []domshim.Node
	walk(start, func(n *Node) bool {
		if tagMatches(n, tag) && pred.matches(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// EvaluateXPathFirst implements domshim.Document.
func (d *Document) EvaluateXPathFirst(root domshim.Node, expr string) (domshim.Node, bool) {
	all := d.EvaluateXPathAll(root, expr)
	if len(all) == 0 {
		return nil, false
	}
	return all[0], true
}

// ownText is the node's own text, excluding descendants, which is what
// XPath's text() selects.
func ownText(n *Node) string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.text
}

func tagMatches(n *Node, tag string) bool {
	return tag == "*" || tag == "" || n.TagName() == tag
}
