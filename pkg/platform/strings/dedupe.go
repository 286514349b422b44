// Package strings holds small list helpers for configuration and CLI input.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each element and drops blanks and repeats, keeping
// first-seen order.
//
// Example:
//
//	DedupeAndTrim([]string{"  a:9092 ", "b:9092", "a:9092", ""})
//	// Returns: []string{"a:9092", "b:9092"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	var result []string
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

// SplitList splits raw on sep and applies DedupeAndTrim. An empty raw yields nil.
func SplitList(raw, sep string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(raw, sep))
}
