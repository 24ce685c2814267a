package strategicfilter

import "strings"

// matchAny reports whether any of needles appears as a substring of
// normalized (already-lowercased, whitespace-collapsed) text. The spec's
// mechanical stage describes allow/stop/keyword lists as plain phrase
// matches, not regex — so substring containment is the right tool, the
// same way `pkg/masking/pattern.go` matches literal families before falling
// back to compiled patterns for the harder cases.
func matchAny(normalized string, needles []string) (string, bool) {
	for _, n := range needles {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if strings.Contains(normalized, n) {
			return n, true
		}
	}
	return "", false
}
