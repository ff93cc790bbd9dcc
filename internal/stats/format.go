package stats

import (
	"fmt"
	"regexp"
	"strings"
)

// gameTypeRe matches the human-readable version token inside the tuple-like
// game type dump mgz produces, e.g. "(<Version.DE: 21>, 'VER 9.4', ...)".
var gameTypeRe = regexp.MustCompile(`'(VER[^']*)'`)

// CleanGameType extracts the first single-quoted VER token from a raw game
// type descriptor. Descriptors without one pass through unchanged.
func CleanGameType(raw string) string {
	if m := gameTypeRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

// FormatDuration renders a duration in whole seconds as e.g.
// "1 hour 1 minute 1 second". Zero units are omitted; a zero duration renders
// as "0 seconds".
func FormatDuration(totalSeconds int) string {
	h := totalSeconds / 3600
	m := totalSeconds % 3600 / 60
	s := totalSeconds % 60

	parts := make([]string, 0, 3)
	if h > 0 {
		parts = append(parts, pluralize(h, "hour"))
	}
	if m > 0 {
		parts = append(parts, pluralize(m, "minute"))
	}
	if s > 0 || len(parts) == 0 {
		parts = append(parts, pluralize(s, "second"))
	}
	return strings.Join(parts, " ")
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// MatchLabel names a match card. The first (most recent) record is the
// distinguished latest match; the rest count down from the total.
func MatchLabel(index, total int) string {
	if index == 0 {
		return "Latest Match"
	}
	return fmt.Sprintf("Match #%d", total-index)
}
