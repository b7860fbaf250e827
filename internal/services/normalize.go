package services

import "strings"

// NormalizeFullName lowercases and collapses internal whitespace so that
// "  Ali   REZA " and "ali reza" refer to the same customer.
func NormalizeFullName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NormalizePhone strips everything except digits. "+98 912-123 4567"
// becomes "989121234567".
func NormalizePhone(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
