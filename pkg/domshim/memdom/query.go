package memdom

import "github.com/tombee/waitcore/pkg/domshim"

func (d *Document) startNode(root domshim.Node) *Node {
	if root == nil {
		return d.Node
	}
	if n := asNode(root); n != nil {
		return n
	}
	return d.Node
}

// QuerySelector implements domshim.Document.
func (d *Document) QuerySelector(root domshim.Node, selector string) (domshim.Node, bool) {
	all := d.QuerySelectorAll(root, selector)
	if len(all) == 0 {
		return nil, false
	}
	return all[0], true
}

// QuerySelectorAll implements domshim.Document.
func (d *Document) QuerySelectorAll(root domshim.Node, selector string) []domshim.Node {
	start := d.startNode(root)
	chains := parseSelector(selector)
	if len(chains) == 0 {
		return nil
	}
	var out []domshim.Node
	walk(start, func(n *Node) bool {
		if n != start {
			for _, chain := range chains {
				if matchesChain(n, chain) {
					out = append(out, n)
					break
				}
			}
		}
		return true
	})
	return out
}
