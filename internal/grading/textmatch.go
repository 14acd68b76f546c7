package grading

import (
	"sort"
	"strings"
)

// NormalizeAnswer turns an answer or answer key into its canonical form:
// comma-separated tokens, trimmed, upper-cased, empties dropped, sorted and
// re-joined with ",". "c, b" and "B,C" both become "B,C".
func NormalizeAnswer(s string) string {
	parts := strings.Split(s, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	sort.Strings(tokens)
	return strings.Join(tokens, ",")
}
