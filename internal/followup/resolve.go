package followup

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

const monthAlt = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`

var (
	numericDateRe = regexp.MustCompile(`\b(?:(on|by|after|before|until|till|from)\s+)?(\d{1,2})/(\d{1,2})(?:/(\d{4}|\d{2}))?\b`)
	monthDayRe    = regexp.MustCompile(`\b(` + monthAlt + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(\d{4}))?`)
	bareMonthRe   = regexp.MustCompile(`\b(?:in|by|around|until|after|early|mid|late|end of)[\s-]+(` + monthAlt + `)\b`)
	weekdayRe     = regexp.MustCompile(`\b(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
	phraseRe      = regexp.MustCompile(`\b(after\s+)?(tomorrow|next week|next month|spring|summer|fall|autumn|winter|new year'?s?|easter|thanksgiving|christmas)\b`)
)

// BareMonthDay is the day used when a prospect names a month without a day.
const BareMonthDay = 20

// Resolve applies the deterministic timing rules to text and returns the most future
// date referenced, or nil when text has no timing reference.
func Resolve(text string, today time.Time) *time.Time {
	today = Day(today)
	lower := strings.ToLower(text)
	anchors := anchorIndex(today)

	var candidates []time.Time

	for _, m := range numericDateRe.FindAllStringSubmatch(lower, -1) {
		if d, ok := numericDate(m, today); ok {
			candidates = append(candidates, d)
		}
	}
	for _, m := range monthDayRe.FindAllStringSubmatch(lower, -1) {
		if d, ok := monthDay(m, today); ok {
			candidates = append(candidates, d)
		}
	}
	for _, m := range bareMonthRe.FindAllStringSubmatch(lower, -1) {
		month := months[m[1]]
		candidates = append(candidates, nextOccurrence(today, func(year int) time.Time {
			return time.Date(year, month, BareMonthDay, 0, 0, 0, 0, time.UTC)
		}))
	}
	for _, m := range weekdayRe.FindAllStringSubmatch(lower, -1) {
		wd := weekdays[m[1]]
		ahead := (int(wd) - int(today.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		candidates = append(candidates, today.AddDate(0, 0, ahead))
	}
	for _, m := range phraseRe.FindAllStringSubmatch(lower, -1) {
		d, ok := anchors[phraseAnchor(m[2])]
		if !ok {
			continue
		}
		if m[1] != "" {
			d = d.AddDate(0, 0, 1)
		}
		candidates = append(candidates, d)
	}

	if len(candidates) == 0 {
		return nil
	}
	latest := candidates[0]
	for _, c := range candidates[1:] {
		if c.After(latest) {
			latest = c
		}
	}
	return &latest
}

func anchorIndex(today time.Time) map[string]time.Time {
	index := make(map[string]time.Time)
	for _, a := range Anchors(today) {
		index[strings.ToLower(a.Name)] = a.Date
	}
	return index
}

func phraseAnchor(phrase string) string {
	switch {
	case phrase == "autumn":
		return "fall"
	case strings.HasPrefix(phrase, "new year"):
		return "new year"
	default:
		return phrase
	}
}

// numericDate accepts M/D/YYYY or M/D/YY anywhere, and a yearless M/D only after a
// preposition so fractions like "1/2" are not read as dates.
func numericDate(m []string, today time.Time) (time.Time, bool) {
	prep, monthStr, dayStr, yearStr := m[1], m[2], m[3], m[4]
	if yearStr != "" {
		if len(yearStr) == 2 {
			yearStr = "20" + yearStr
		}
		t, err := dateparse.ParseIn(fmt.Sprintf("%s/%s/%s", monthStr, dayStr, yearStr), time.UTC)
		if err != nil {
			return time.Time{}, false
		}
		return Day(t), true
	}
	if prep == "" {
		return time.Time{}, false
	}
	month, err1 := strconv.Atoi(monthStr)
	day, err2 := strconv.Atoi(dayStr)
	if err1 != nil || err2 != nil || !validDay(time.Month(month), day) {
		return time.Time{}, false
	}
	return nextOccurrence(today, func(year int) time.Time {
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	}), true
}

func monthDay(m []string, today time.Time) (time.Time, bool) {
	month := months[m[1]]
	day, err := strconv.Atoi(m[2])
	if err != nil || !validDay(month, day) {
		return time.Time{}, false
	}
	if m[3] != "" {
		t, err := dateparse.ParseIn(fmt.Sprintf("%s %d, %s", month, day, m[3]), time.UTC)
		if err != nil {
			return time.Time{}, false
		}
		return Day(t), true
	}
	return nextOccurrence(today, func(year int) time.Time {
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	}), true
}

// validDay allows Feb 29 in any year; time.Date normalizes it in non-leap years.
func validDay(month time.Month, day int) bool {
	if month < time.January || month > time.December || day < 1 {
		return false
	}
	return day <= time.Date(2024, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
