package predicate

import (
	"context"
	"regexp"
	"strings"
)

// TextMode selects how Expected/Pattern is compared against the
// element's normalized text content (spec.md §4.3).
type TextMode string

const (
	TextModeExact    TextMode = "exact"
	TextModeContains TextMode = "contains"
	TextModeRegex    TextMode = "regex"
)

// TextSnapshot is the WaitPredicateSnapshot.text shape (spec.md §3).
// NormalizedValue is replaced by a fixed mask whenever the owning
// TextOptions asked for sanitization, so it never lands in logs or
// telemetry.
type TextSnapshot struct {
	Mode            TextMode `json:"mode"`
	Expected        string   `json:"expected,omitempty"`
	Pattern         string   `json:"pattern,omitempty"`
	NormalizedValue string   `json:"normalizedValue,omitempty"`
	Matches         bool     `json:"matches"`
}

const maskedText = "[***masked***]"

// TextOptions configures the Text predicate.
type TextOptions struct {
	Mode               TextMode
	Expected           string
	Pattern            string
	CaseSensitive      bool
	CollapseWhitespace bool
	// Sanitize, when true, replaces the raw normalized text and the
	// expected value in the returned snapshot with a fixed mask and drops
	// the pattern entirely — for text predicates evaluated against sensitive fields
	// (passwords, tokens) that must never reach telemetry verbatim.
	Sanitize bool
}

// Text builds a predicate comparing an element's text content against
// opts. Stale is never set by Text; staleness is a visibility concern.
func Text(opts TextOptions) Predicate {
	var compiled *regexp.Regexp
	if opts.Mode == TextModeRegex {
		pattern := opts.Pattern
		flags := ""
		if !opts.CaseSensitive {
			flags = "(?i)"
		}
		if pattern == "" {
			// spec.md §4.3: regex mode without an explicit pattern falls
			// back to a case-insensitive match against Expected itself.
			pattern = regexp.QuoteMeta(opts.Expected)
			flags = "(?i)"
		}
		compiled = regexp.MustCompile(flags + pattern)
	}

	return func(_ context.Context, in EvalInput) (Result, error) {
		raw := ""
		if in.Element != nil {
			raw = in.Element.TextContent()
		}
		normalized := normalizeText(raw, opts.CollapseWhitespace)

		compareValue := normalized
		compareExpected := opts.Expected
		if !opts.CaseSensitive && opts.Mode != TextModeRegex {
			compareValue = strings.ToLower(compareValue)
			compareExpected = strings.ToLower(compareExpected)
		}

		matches := false
		switch opts.Mode {
		case TextModeExact:
			matches = compareValue == compareExpected
		case TextModeContains:
			matches = strings.Contains(compareValue, compareExpected)
		case TextModeRegex:
			matches = compiled != nil && compiled.MatchString(normalized)
		}

		snap := &TextSnapshot{
			Mode:            opts.Mode,
			Expected:        opts.Expected,
			Pattern:         opts.Pattern,
			NormalizedValue: normalized,
			Matches:         matches,
		}
		if opts.Sanitize {
			snap.NormalizedValue = maskedText
			snap.Expected = maskedText
			snap.Pattern = ""
		}

		return Result{
			Satisfied: matches,
			Snapshot:  Snapshot{Text: snap},
		}, nil
	}
}
