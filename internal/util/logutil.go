package util

import "strings"

// Preview flattens s onto one line and cuts it to limit runes, so descriptions
// and model replies can be logged as a single field. Cut text ends in "...".
func Preview(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
