package selector

import "fmt"

// Validate enforces spec.md §4.1's invariants and returns every issue
// found (never stops at the first), so a caller can report them all at
// once. A nil/empty result means m is valid.
func Validate(m SelectorMap) []Issue {
	var issues []Issue

	if len(m) == 0 {
		issues = append(issues, Issue{Path: "$", Message: "selector map must not be empty"})
		return issues
	}

	for key, entry := range m {
		if key == "" {
			issues = append(issues, Issue{Path: "$", Message: "keys must be non-empty strings"})
			continue
		}
		path := fmt.Sprintf("$.%s", key)
		issues = append(issues, validateEntry(m, path, key, entry)...)
	}

	return issues
}

func validateEntry(m SelectorMap, path, key string, entry SelectorEntry) []Issue {
	var issues []Issue

	if len(entry.Tries) == 0 {
		issues = append(issues, Issue{Path: path + ".tries", Message: "tries must be non-empty"})
	}

	if entry.ScopeKey != "" {
		if entry.ScopeKey == key {
			issues = append(issues, Issue{
				Path:    path + ".scopeKey",
				Message: fmt.Sprintf("scopeKey %q must not reference itself", entry.ScopeKey),
			})
		} else if _, ok := m[entry.ScopeKey]; !ok {
			issues = append(issues, Issue{
				Path:    path + ".scopeKey",
				Message: fmt.Sprintf("scopeKey %q does not reference an existing entry", entry.ScopeKey),
			})
		}
	}

	lastPriority := -1
	for i, try := range entry.Tries {
		tryPath := fmt.Sprintf("%s.tries[%d]", path, i)

		if !try.Type.Valid() {
			issues = append(issues, Issue{Path: tryPath + ".type", Message: fmt.Sprintf("unknown strategy type %q", try.Type)})
			continue
		}

		if val, ok := try.RequiredParam(); ok && val == "" {
			issues = append(issues, Issue{
				Path:    tryPath,
				Message: fmt.Sprintf("strategy %q requires a non-empty parameter", try.Type),
			})
		}

		p := try.Type.Priority()
		if p < lastPriority {
			issues = append(issues, Issue{
				Path: tryPath + ".type",
				Message: fmt.Sprintf(
					"tries must be in non-decreasing priority order; %q follows a higher-priority strategy",
					try.Type,
				),
			})
		}
		lastPriority = p
	}

	return issues
}

// MustBeValid returns an *Error wrapping issues if non-empty, else nil.
// This is the shape Load uses so a single err covers both parse and
// validation failures.
func MustBeValid(issues []Issue) error {
	if len(issues) == 0 {
		return nil
	}
	return &Error{Issues: issues}
}
