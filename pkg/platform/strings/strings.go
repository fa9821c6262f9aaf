// Package strings provides string helpers shared by query and listing code.
package strings

import (
	"strings"
	"unicode/utf8"
)

// Fold trims surrounding whitespace and lowercases s, the canonical form for
// case-insensitive comparisons.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RuneLen counts characters rather than bytes, so "Ö" has length 1.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  Anna ", "Bernd", "Anna", "", "  "})
//	// Returns: []string{"Anna", "Bernd"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}
