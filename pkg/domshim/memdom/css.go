package memdom

import "strings"

// compound is one simple-selector component: tag?, #id?, .class*, and
// [attr] / [attr="value"] pairs. A CSS selector is a descendant chain of
// compounds separated by whitespace; this engine supports that plus
// comma-separated alternatives, which covers every selector shape
// spec.md §4.1's strategies actually produce (role/name attribute
// selectors, dataAttr selectors, plain tag/class/id selectors).
type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrMatch
}

type attrMatch struct {
	name     string
	value    string
	hasValue bool
}

func parseCompound(s string) compound {
	var c compound
	for len(s) > 0 {
		switch s[0] {
		case '#':
			end := indexOfAny(s[1:], ".[#")
			if end < 0 {
				c.id, s = s[1:], ""
			} else {
				c.id, s = s[1:1+end], s[1+end:]
			}
		case '.':
			end := indexOfAny(s[1:], ".[#")
			var cls string
			if end < 0 {
				cls, s = s[1:], ""
			} else {
				cls, s = s[1:1+end], s[1+end:]
			}
			c.classes = append(c.classes, cls)
		case '[':
			close := strings.IndexByte(s, ']')
			if close < 0 {
				s = ""
				break
			}
			inner := s[1:close]
			s = s[close+1:]
			if eq := strings.IndexByte(inner, '='); eq >= 0 {
				name := strings.TrimSpace(inner[:eq])
				val := strings.Trim(strings.TrimSpace(inner[eq+1:]), `"'`)
				c.attrs = append(c.attrs, attrMatch{name: name, value: val, hasValue: true})
			} else {
				c.attrs = append(c.attrs, attrMatch{name: strings.TrimSpace(inner)})
			}
		default:
			end := indexOfAny(s, ".[#")
			if end < 0 {
				c.tag, s = strings.ToLower(s), ""
			} else {
				c.tag, s = strings.ToLower(s[:end]), s[end:]
			}
		}
	}
	return c
}

func indexOfAny(s, chars string) int {
	return strings.IndexAny(s, chars)
}

func (c compound) matches(n *Node) bool {
	if c.tag != "" && c.tag != "*" && n.TagName() != c.tag {
		return false
	}
	if c.id != "" && n.NodeID() != c.id {
		return false
	}
	if len(c.classes) > 0 {
		classAttr, _ := n.Attr("class")
		have := strings.Fields(classAttr)
		for _, want := range c.classes {
			if !containsStr(have, want) {
				return false
			}
		}
	}
	for _, am := range c.attrs {
		v, ok := n.Attr(am.name)
		if !ok {
			return false
		}
		if am.hasValue && v != am.value {
			return false
		}
	}
	return true
}

func containsStr(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

// selectorChain is one comma-separated alternative: a sequence of
// compounds read left to right, each a descendant of the previous.
type selectorChain []compound

func parseSelector(selector string) []selectorChain {
	var chains []selectorChain
	for _, alt := range strings.Split(selector, ",") {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}
		var chain selectorChain
		for _, part := range strings.Fields(alt) {
			chain = append(chain, parseCompound(part))
		}
		if len(chain) > 0 {
			chains = append(chains, chain)
		}
	}
	return chains
}

// matchesChain reports whether n matches the final compound of chain and
// has ancestors matching each preceding compound, in order, somewhere
// above it (a relaxed descendant-combinator semantics sufficient for
// selector-map authoring).
func matchesChain(n *Node, chain selectorChain) bool {
	if len(chain) == 0 {
		return false
	}
	last := chain[len(chain)-1]
	if !last.matches(n) {
		return false
	}
	ancestor := n.parent
	for i := len(chain) - 2; i >= 0; i-- {
		want := chain[i]
		found := false
		for a := ancestor; a != nil; a = a.parent {
			if want.matches(a) {
				ancestor = a.parent
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func walk(n *Node, visit func(*Node) bool) bool {
	if !visit(n) {
		return false
	}
	for _, c := range n.childNodes() {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}
