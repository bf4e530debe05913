package http

import (
	"fmt"
	"strings"
)

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// periodKey is the list cache key of a period.
func periodKey(year, month int) string {
	return fmt.Sprintf("contas:%d-%02d", year, month)
}
