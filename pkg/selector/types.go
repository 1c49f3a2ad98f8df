// Package selector implements the logical-key selector resolver
// (spec.md §3-4.1): SelectorMap/SelectorEntry/SelectorTry data types, map
// validation, and the resolve() operation that walks a selector's ordered
// fallback strategies against a domshim.Document.
package selector

import "fmt"

// StrategyType is one of the nine fallback-strategy variants spec.md §3
// names, tagged so a SelectorTry can be a small closed sum type without
// reaching for an interface per variant.
type StrategyType string

// Canonical priority ordering, decreasing semantic weight, per spec.md §6:
// "role < name < label < testId < text < dataAttr < id < css < xpath".
const (
	StrategyRole     StrategyType = "role"
	StrategyName     StrategyType = "name"
	StrategyLabel    StrategyType = "label"
	StrategyTestID   StrategyType = "testId"
	StrategyText     StrategyType = "text"
	StrategyDataAttr StrategyType = "dataAttr"
	StrategyID       StrategyType = "id"
	StrategyCSS      StrategyType = "css"
	StrategyXPath    StrategyType = "xpath"
)

// priorityOrder maps each strategy type to its canonical rank; lower
// ranks must not appear after higher ranks within one entry's Tries.
var priorityOrder = map[StrategyType]int{
	StrategyRole:     0,
	StrategyName:     1,
	StrategyLabel:    2,
	StrategyTestID:   3,
	StrategyText:     4,
	StrategyDataAttr: 5,
	StrategyID:       6,
	StrategyCSS:      7,
	StrategyXPath:    8,
}

// Priority returns t's canonical rank, or -1 for an unknown type.
func (t StrategyType) Priority() int {
	if p, ok := priorityOrder[t]; ok {
		return p
	}
	return -1
}

// Valid reports whether t is a known strategy type.
func (t StrategyType) Valid() bool {
	_, ok := priorityOrder[t]
	return ok
}

// SelectorTry is one attempt strategy within a SelectorEntry's fallback
// chain. Only the fields relevant to Type are meaningful; the rest are
// zero. This mirrors a tagged union using a flat struct, the idiomatic Go
// shape for a small closed set of variants that all travel through the
// same YAML/JSON document.
type SelectorTry struct {
	Type StrategyType `yaml:"type" json:"type"`

	// role
	Role      string `yaml:"role,omitempty" json:"role,omitempty"`
	AriaLabel string `yaml:"ariaLabel,omitempty" json:"ariaLabel,omitempty"`

	// name / label / testId — each a single required string parameter
	// matched against name/aria-label/data-testid respectively.
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
	TestID string `yaml:"testId,omitempty" json:"testId,omitempty"`

	// text
	Text               string `yaml:"text,omitempty" json:"text,omitempty"`
	Exact              bool   `yaml:"exact,omitempty" json:"exact,omitempty"`
	CaseSensitive      bool   `yaml:"caseSensitive,omitempty" json:"caseSensitive,omitempty"`
	CollapseWhitespace bool   `yaml:"collapseWhitespace,omitempty" json:"collapseWhitespace,omitempty"`

	// dataAttr
	Key   string `yaml:"key,omitempty" json:"key,omitempty"`
	Value string `yaml:"value,omitempty" json:"value,omitempty"`

	// id / css / xpath
	ID    string `yaml:"id,omitempty" json:"id,omitempty"`
	CSS   string `yaml:"css,omitempty" json:"css,omitempty"`
	XPath string `yaml:"xpath,omitempty" json:"xpath,omitempty"`
}

// RequiredParam returns the value of whichever field Type requires, for
// validation and for diagnostic messages. ok is false for an unknown
// Type.
func (t SelectorTry) RequiredParam() (value string, ok bool) {
	switch t.Type {
	case StrategyRole:
		return t.Role, true
	case StrategyName:
		return t.Name, true
	case StrategyLabel:
		return t.Label, true
	case StrategyTestID:
		return t.TestID, true
	case StrategyText:
		return t.Text, true
	case StrategyDataAttr:
		return t.Key, true
	case StrategyID:
		return t.ID, true
	case StrategyCSS:
		return t.CSS, true
	case StrategyXPath:
		return t.XPath, true
	default:
		return "", false
	}
}

// SelectorEntry describes how to locate one logical key.
type SelectorEntry struct {
	Description    string        `yaml:"description,omitempty" json:"description,omitempty"`
	ScopeKey       string        `yaml:"scopeKey,omitempty" json:"scopeKey,omitempty"`
	Tags           []string      `yaml:"tags,omitempty" json:"tags,omitempty"`
	StabilityScore float64       `yaml:"stabilityScore,omitempty" json:"stabilityScore,omitempty"`
	Tries          []SelectorTry `yaml:"tries" json:"tries"`
}

// SelectorMap maps a logical key to its SelectorEntry.
type SelectorMap map[string]SelectorEntry

// Issue is one validation failure, carrying a JSON-pointer-ish path for
// diagnostics.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// Error is the error Load/Validate return when issues are non-empty.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("selector map invalid: %s", e.Issues[0])
	}
	return fmt.Sprintf("selector map invalid: %d issues, first: %s", len(e.Issues), e.Issues[0])
}
