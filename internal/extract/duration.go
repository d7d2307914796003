// README: Trip length extraction with hard bounds on accepted values.
package extract

import (
	"regexp"
	"strings"

	"tripflow/internal/intent"
)

var (
	nightsPat = regexp.MustCompile(`\b` + numberPattern + `[- ]nights?\b`)
	daysPat   = regexp.MustCompile(`\b` + numberPattern + `[- ]days?\b`)
	weeksPat  = regexp.MustCompile(`\b` + numberPattern + `[- ]weeks?\b`)
)

// parseDuration resolves the first duration phrase in the lowercase text
// to a day count. Out-of-bound values are dropped, not clamped, so a
// nonsense "90 days" leaves the field unset for a follow-up question.
// "in 3 days" is a start offset, not a duration, and is skipped here.
func parseDuration(text string) (int, float64, bool) {
	if n, ok := firstCount(nightsPat, text); ok {
		if days := n + 1; intent.ValidTripDays(days) {
			return days, 0.9, true
		}
	}
	if n, ok := firstCount(daysPat, text); ok && intent.ValidTripDays(n) {
		return n, 0.95, true
	}
	if n, ok := firstCount(weeksPat, text); ok {
		if days := n * 7; intent.ValidTripDays(days) {
			return days, 0.95, true
		}
	}
	if containsWord(text, "long weekend") {
		return 4, 0.85, true
	}
	if containsWord(text, "weekend") {
		return 3, 0.7, true
	}
	if containsWord(text, "a few days") {
		return 3, 0.5, true
	}
	return 0, 0, false
}

// firstCount returns the first pattern match whose number parses and that
// is not part of an "in N units" start-offset phrase.
func firstCount(pat *regexp.Regexp, text string) (int, bool) {
	for _, loc := range pat.FindAllStringSubmatchIndex(text, -1) {
		start := loc[0]
		if strings.HasSuffix(text[:start], "in ") || strings.HasSuffix(text[:start], "within ") {
			continue
		}
		n, ok := parseCount(text[loc[2]:loc[3]])
		if !ok || n <= 0 {
			continue
		}
		return n, true
	}
	return 0, false
}
