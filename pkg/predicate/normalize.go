package predicate

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeText applies Unicode NFC normalization and, when collapse is
// true, folds runs of whitespace down to single spaces and trims the
// ends — spec.md §4.3's "collapseWhitespace" text-predicate option.
func normalizeText(s string, collapse bool) string {
	s = norm.NFC.String(s)
	if !collapse {
		return s
	}
	return strings.Join(strings.Fields(s), " ")
}
