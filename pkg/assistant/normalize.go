package assistant

import "strings"

// Normalize lower-cases and trims raw input before it is matched. Interior punctuation
// and runs of whitespace are left alone.
func Normalize(raw string) string {
	return strings.TrimSpace(strings.ToLower(raw))
}

func containsAny(query string, needles []string) bool {
	for _, needle := range needles {
		if needle != "" && strings.Contains(query, needle) {
			return true
		}
	}
	return false
}
