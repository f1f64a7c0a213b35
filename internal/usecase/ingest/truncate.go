package ingest

import "unicode/utf8"

// Field limits, counted in runes.
const (
	MaxTitleLength  = 500
	MaxBodyLength   = 2000
	MaxAuthorLength = 200
	MaxSourceLength = 200
	MaxURLLength    = 1000
)

const ellipsis = "..."

// Truncate shortens s to at most limit runes. A cut value is exactly limit
// runes long and ends with "...".
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	if limit <= len(ellipsis) {
		return string(runes[:limit])
	}
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}
