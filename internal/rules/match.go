package rules

import "strings"

// MatchesSignal reports whether the app pattern matches the context signal.
//
// Pattern semantics: a trailing '*' makes the remainder a prefix match, a
// leading '*' a suffix match, anything else requires an exact match. The
// comparison is case-insensitive and runs against both the bundle id and the
// display name; either matching satisfies the pattern.
func MatchesSignal(pattern string, signal ContextSignal) bool {
	p := strings.ToLower(strings.TrimSpace(pattern))
	if p == "" {
		return false
	}
	return matchesValue(p, strings.ToLower(signal.BundleID)) ||
		matchesValue(p, strings.ToLower(signal.AppName))
}

func matchesValue(pattern, value string) bool {
	if value == "" {
		return false
	}
	switch {
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(value, strings.TrimSuffix(pattern, "*"))
	case strings.HasPrefix(pattern, "*"):
		return strings.HasSuffix(value, strings.TrimPrefix(pattern, "*"))
	default:
		return value == pattern
	}
}
