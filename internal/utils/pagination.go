// Package utils holds small helpers with no knowledge of audits or HTTP,
// shared across layers.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or not a
// number. The audit listing's page and page_size query parameters go through
// this, so a malformed value falls back to the handler's default rather than
// failing the request.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
