package telemetry

import "regexp"

// sensitiveKeyPattern matches payload field names the default
// sanitizer masks (spec.md §4.10).
var sensitiveKeyPattern = regexp.MustCompile(`(?i)password|secret|token|auth|cookie|session|key`)

// CustomSanitizer overrides the default mask for a field whose key
// matches the sensitive pattern (or any field, if it chooses to). It
// returns the replacement value and whether it handled the field; when
// handled is false the default masking rule applies.
type CustomSanitizer func(key string, value any) (replacement any, handled bool)

// Sanitize returns a copy of v with every map[string]any key matching
// sensitiveKeyPattern masked, recursing through map[string]any values
// and []any slices. Any other value, including structs and maps of
// other types, is returned unchanged. custom, if non-nil, is consulted
// first for each matching key.
func Sanitize(v any, custom CustomSanitizer) any {
	return sanitizeValue("", v, custom)
}

func sanitizeValue(key string, v any, custom CustomSanitizer) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = sanitizeField(k, val, custom)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = sanitizeValue(key, val, custom)
		}
		return out
	default:
		return v
	}
}

func sanitizeField(key string, value any, custom CustomSanitizer) any {
	if !sensitiveKeyPattern.MatchString(key) {
		return sanitizeValue(key, value, custom)
	}
	if custom != nil {
		if replacement, handled := custom(key, value); handled {
			return replacement
		}
	}
	return mask(value)
}

// mask replaces a sensitive value per spec.md §4.10: "****" for
// nullish values, numbers, or strings of length <= 4; "********"
// otherwise.
func mask(value any) string {
	if value == nil {
		return "****"
	}
	if s, ok := value.(string); ok {
		if len(s) <= 4 {
			return "****"
		}
		return "********"
	}
	return "****"
}
