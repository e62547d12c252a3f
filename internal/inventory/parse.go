package inventory

import (
	"strconv"
	"strings"
)

// ParseCount parses a string-encoded stock count from the upstream feed.
// The feed is not contractually clean: counts arrive empty, non-numeric,
// padded, or negative. Anything unparseable is zero, and parsed values are
// clamped to >= 0 so a bad row can never subtract from an aggregate.
func ParseCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
