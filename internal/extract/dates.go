// README: Date phrase resolution against an injected clock.
package extract

import (
	"regexp"
	"time"

	"tripflow/internal/intent"
)

const monthPattern = `(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)`

const weekdayPattern = `(monday|tuesday|wednesday|thursday|friday|saturday|sunday)`

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sept": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
	"sunday": time.Sunday,
}

var (
	isoDatePat    = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	monthDayRange = regexp.MustCompile(`\b` + monthPattern + `\.? (\d{1,2})(?:st|nd|rd|th)?\s*(?:-|to|through|until)\s*(?:` + monthPattern + `\.? )?(\d{1,2})(?:st|nd|rd|th)?\b`)
	monthDayPat   = regexp.MustCompile(`\b` + monthPattern + `\.? (\d{1,2})(?:st|nd|rd|th)?(?:,? (\d{4}))?\b`)
	dayMonthPat   = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)? (?:of )?` + monthPattern + `(?:,? (\d{4}))?\b`)
	inUnitsPat    = regexp.MustCompile(`\bin ` + numberPattern + ` (day|week|month)s?\b`)
	nextWdPat     = regexp.MustCompile(`\bnext ` + weekdayPattern + `\b`)
	weekdayPat    = regexp.MustCompile(`\b(?:on |this )?` + weekdayPattern + `\b`)
	inMonthPat    = regexp.MustCompile(`\b(?:in|during|for) ` + monthPattern + `\b`)
	seasonPat     = regexp.MustCompile(`\b(?:in|during|for|this|next) (?:the )?(summer|winter|spring|autumn|fall)\b`)
)

// seasonStarts are the northern-hemisphere season opening dates.
var seasonStarts = map[string]struct {
	month time.Month
	day   int
}{
	"spring": {time.March, 20},
	"summer": {time.June, 21},
	"autumn": {time.September, 22},
	"fall":   {time.September, 22},
	"winter": {time.December, 21},
}

// parseDates resolves the first date phrase in the lowercase text to a
// concrete window. Absolute forms are tried before relative ones and the
// confidence reflects how literal the phrase was.
func parseDates(text string, now time.Time) (intent.DateWindow, float64, bool) {
	today := midnight(now)

	if m := isoDatePat.FindStringSubmatch(text); m != nil {
		y, _ := parseCount(m[1])
		mo, _ := parseCount(m[2])
		d, _ := parseCount(m[3])
		if mo >= 1 && mo <= 12 && validDay(d) {
			start := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
			return intent.DateWindow{Start: &start}, 0.98, true
		}
	}

	if m := monthDayRange.FindStringSubmatch(text); m != nil {
		m1 := months[m[1]]
		d1, _ := parseCount(m[2])
		m2 := m1
		if m[3] != "" {
			m2 = months[m[3]]
		}
		d2, _ := parseCount(m[4])
		if validDay(d1) && validDay(d2) {
			start := nextMonthDay(today, m1, d1)
			end := time.Date(start.Year(), m2, d2, 0, 0, 0, 0, time.UTC)
			if end.Before(start) {
				end = end.AddDate(1, 0, 0)
			}
			return intent.DateWindow{Start: &start, End: &end}, 0.95, true
		}
	}

	if w, ok := parseMonthDay(text, today); ok {
		return w, 0.9, true
	}

	if w, ok := parseRelative(text, today); ok {
		return w, 0.9, true
	}

	if m := nextWdPat.FindStringSubmatch(text); m != nil {
		start := nextWeekday(today, weekdays[m[1]]).AddDate(0, 0, 7)
		return intent.DateWindow{Start: &start}, 0.85, true
	}
	if m := weekdayPat.FindStringSubmatch(text); m != nil {
		start := nextWeekday(today, weekdays[m[1]])
		return intent.DateWindow{Start: &start}, 0.85, true
	}

	if m := inMonthPat.FindStringSubmatch(text); m != nil {
		mo := months[m[1]]
		var start time.Time
		if mo == today.Month() {
			start = today
		} else {
			start = nextMonthDay(today, mo, 1)
		}
		return intent.DateWindow{Start: &start}, 0.6, true
	}

	if m := seasonPat.FindStringSubmatch(text); m != nil {
		s := seasonStarts[m[1]]
		start := nextMonthDay(today, s.month, s.day)
		return intent.DateWindow{Start: &start}, 0.5, true
	}

	return intent.DateWindow{}, 0, false
}

// parseMonthDay handles "june 10", "10th of june", and year-qualified forms.
func parseMonthDay(text string, today time.Time) (intent.DateWindow, bool) {
	var mo time.Month
	var day, year int
	if m := monthDayPat.FindStringSubmatch(text); m != nil {
		mo = months[m[1]]
		day, _ = parseCount(m[2])
		if m[3] != "" {
			year, _ = parseCount(m[3])
		}
	} else if m := dayMonthPat.FindStringSubmatch(text); m != nil {
		day, _ = parseCount(m[1])
		mo = months[m[2]]
		if m[3] != "" {
			year, _ = parseCount(m[3])
		}
	} else {
		return intent.DateWindow{}, false
	}
	if !validDay(day) {
		return intent.DateWindow{}, false
	}

	var start time.Time
	if year > 0 {
		start = time.Date(year, mo, day, 0, 0, 0, 0, time.UTC)
	} else {
		start = nextMonthDay(today, mo, day)
	}
	return intent.DateWindow{Start: &start}, true
}

// parseRelative handles today, tomorrow, weekend and week phrases, and
// "in N days" style offsets.
func parseRelative(text string, today time.Time) (intent.DateWindow, bool) {
	window := func(t time.Time) (intent.DateWindow, bool) {
		return intent.DateWindow{Start: &t}, true
	}

	switch {
	case containsWord(text, "day after tomorrow"):
		return window(today.AddDate(0, 0, 2))
	case containsWord(text, "tomorrow"):
		return window(today.AddDate(0, 0, 1))
	case containsWord(text, "today") || containsWord(text, "tonight"):
		return window(today)
	case containsWord(text, "next weekend"):
		return window(nextWeekendStart(today))
	case containsWord(text, "this weekend"):
		return window(thisWeekendStart(today))
	case containsWord(text, "next week"):
		return window(nextWeekday(today, time.Monday))
	case containsWord(text, "next month"):
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return window(first.AddDate(0, 1, 0))
	}

	if m := inUnitsPat.FindStringSubmatch(text); m != nil {
		n, ok := parseCount(m[1])
		if !ok || n <= 0 {
			return intent.DateWindow{}, false
		}
		switch m[2] {
		case "day":
			return window(today.AddDate(0, 0, n))
		case "week":
			return window(today.AddDate(0, 0, 7*n))
		case "month":
			return window(today.AddDate(0, n, 0))
		}
	}
	return intent.DateWindow{}, false
}

// midnight truncates t to a UTC calendar date.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// nextWeekday returns the next occurrence of wd strictly after today.
func nextWeekday(today time.Time, wd time.Weekday) time.Time {
	days := (int(wd) - int(today.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return today.AddDate(0, 0, days)
}

// thisWeekendStart is the coming Saturday, or today when the weekend has
// already begun.
func thisWeekendStart(today time.Time) time.Time {
	wd := today.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return today
	}
	return nextWeekday(today, time.Saturday)
}

// nextWeekendStart is the Saturday after the current week's weekend.
func nextWeekendStart(today time.Time) time.Time {
	if today.Weekday() == time.Sunday {
		return nextWeekday(today, time.Saturday)
	}
	return thisWeekendStart(today).AddDate(0, 0, 7)
}

// nextMonthDay returns month/day in the current year, or the following
// year when that date has already passed.
func nextMonthDay(today time.Time, m time.Month, d int) time.Time {
	t := time.Date(today.Year(), m, d, 0, 0, 0, 0, time.UTC)
	if t.Before(today) {
		t = t.AddDate(1, 0, 0)
	}
	return t
}

func validDay(d int) bool {
	return d >= 1 && d <= 31
}
