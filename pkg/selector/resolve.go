package selector

import (
	"fmt"
	"log/slog"

	"github.com/tombee/waitcore/pkg/domshim"
)

// ScopeInfo records which entry's resolution supplied the effective scope
// root for a resolve() call (spec.md §3's ResolveResult.scope).
type ScopeInfo struct {
	Key  string
	Root domshim.Node
}

// ResolveAttempt is one attempt strategy's outcome (spec.md §3).
type ResolveAttempt struct {
	Strategy StrategyType
	Success  bool
	Elements int
}

// ResolveResult is the outcome of resolving one logical key (spec.md §3).
type ResolveResult struct {
	Key        string
	Element    domshim.Node
	Attempts   []ResolveAttempt
	ResolvedBy StrategyType
	Scope      *ScopeInfo
	Entry      *SelectorEntry
}

// Found reports whether resolution produced an element.
func (r ResolveResult) Found() bool {
	return r.Element != nil
}

// Resolver resolves logical keys against a domshim.Document, per
// spec.md §4.1.
type Resolver struct {
	Logger *slog.Logger
}

// NewResolver constructs a Resolver. logger may be nil, in which case
// resolution proceeds without emitting log records.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{Logger: logger}
}

// Resolve resolves key against m under root (nil root means the whole
// document). It returns an error only when key is absent from m;
// resolver misses are a zero-Element ResolveResult, not an error, per
// spec.md §4.1 ("emit a warning on overall miss").
func (r *Resolver) Resolve(doc domshim.Document, m SelectorMap, key string, root domshim.Node) (ResolveResult, error) {
	entry, ok := m[key]
	if !ok {
		return ResolveResult{Key: key}, fmt.Errorf("selector: unknown key %q", key)
	}
	return r.resolveEntry(doc, m, key, entry, root), nil
}

func (r *Resolver) resolveEntry(doc domshim.Document, m SelectorMap, key string, entry SelectorEntry, root domshim.Node) ResolveResult {
	effectiveRoot := root
	var scopeInfo *ScopeInfo

	if entry.ScopeKey != "" {
		scopeEntry, ok := m[entry.ScopeKey]
		if ok {
			scopeResult := r.resolveEntry(doc, m, entry.ScopeKey, scopeEntry, root)
			if !scopeResult.Found() {
				r.log(slog.LevelWarn, "selector scope miss", "key", key, "scopeKey", entry.ScopeKey)
				return ResolveResult{Key: key, Entry: &entry, Scope: &ScopeInfo{Key: entry.ScopeKey, Root: root}}
			}
			effectiveRoot = scopeResult.Element
		}
		scopeInfo = &ScopeInfo{Key: entry.ScopeKey, Root: effectiveRoot}
	}

	var attempts []ResolveAttempt
	for _, try := range entry.Tries {
		node, count := r.tryStrategy(doc, effectiveRoot, try)
		attempts = append(attempts, ResolveAttempt{Strategy: try.Type, Success: node != nil, Elements: count})
		if node != nil {
			r.log(slog.LevelDebug, "selector resolved", "key", key, "strategy", string(try.Type))
			return ResolveResult{
				Key: key, Element: node, Attempts: attempts,
				ResolvedBy: try.Type, Scope: scopeInfo, Entry: &entry,
			}
		}
	}

	r.log(slog.LevelWarn, "selector miss", "key", key)
	return ResolveResult{Key: key, Attempts: attempts, Scope: scopeInfo, Entry: &entry}
}

// TryOne evaluates a single ad hoc SelectorTry against root, without
// going through a SelectorMap entry. The wait scheduler uses this for
// its css/xpath/text fallback parameters (spec.md §4.4 step 3).
func (r *Resolver) TryOne(doc domshim.Document, root domshim.Node, try SelectorTry) (domshim.Node, int) {
	return r.tryStrategy(doc, root, try)
}

func (r *Resolver) tryStrategy(doc domshim.Document, root domshim.Node, try SelectorTry) (domshim.Node, int) {
	switch try.Type {
	case StrategyRole:
		sel := fmt.Sprintf(`[role="%s"]`, try.Role)
		if try.AriaLabel != "" {
			sel += fmt.Sprintf(`[aria-label="%s"]`, try.AriaLabel)
		}
		return queryFirst(doc, root, sel)
	case StrategyName:
		return queryFirst(doc, root, fmt.Sprintf(`[name="%s"]`, try.Name))
	case StrategyLabel:
		return queryFirst(doc, root, fmt.Sprintf(`[aria-label="%s"]`, try.Label))
	case StrategyTestID:
		return queryFirst(doc, root, fmt.Sprintf(`[data-testid="%s"]`, try.TestID))
	case StrategyDataAttr:
		if try.Value != "" {
			return queryFirst(doc, root, fmt.Sprintf(`[%s="%s"]`, try.Key, try.Value))
		}
		return queryFirst(doc, root, fmt.Sprintf(`[%s]`, try.Key))
	case StrategyID:
		return idLookup(doc, root, try.ID)
	case StrategyCSS:
		return queryFirst(doc, root, try.CSS)
	case StrategyText:
		return evalFirst(doc, root, textXPath(try))
	case StrategyXPath:
		return evalFirst(doc, root, try.XPath)
	default:
		return nil, 0
	}
}

func textXPath(try SelectorTry) string {
	if try.Exact {
		return fmt.Sprintf(`descendant-or-self::*[text()="%s"]`, try.Text)
	}
	return fmt.Sprintf(`descendant-or-self::*[contains(text(), "%s")]`, try.Text)
}

// idLookup resolves an id strategy via Document.GetElementByID rather than
// re-deriving a "#id" CSS query, then confirms the match falls under root
// so an id strategy still honors scoping like every other strategy.
func idLookup(doc domshim.Document, root domshim.Node, id string) (domshim.Node, int) {
	node, ok := doc.GetElementByID(id)
	if !ok || !contains(root, node) {
		return nil, 0
	}
	return node, 1
}

// contains reports whether target is root itself or one of its
// descendants. A nil root means the whole document, so everything
// qualifies.
func contains(root, target domshim.Node) bool {
	if target == nil {
		return false
	}
	if root == nil || root == target {
		return true
	}
	for _, c := range root.Children() {
		if contains(c, target) {
			return true
		}
	}
	return false
}

func queryFirst(doc domshim.Document, root domshim.Node, sel string) (domshim.Node, int) {
	all := doc.QuerySelectorAll(root, sel)
	if len(all) == 0 {
		return nil, 0
	}
	return all[0], len(all)
}

func evalFirst(doc domshim.Document, root domshim.Node, expr string) (domshim.Node, int) {
	all := doc.EvaluateXPathAll(root, expr)
	if len(all) == 0 {
		return nil, 0
	}
	return all[0], len(all)
}

func (r *Resolver) log(level slog.Level, msg string, args ...any) {
	if r.Logger == nil {
		return
	}
	r.Logger.Log(nil, level, msg, args...)
}
