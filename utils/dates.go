package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// JST is the canonical zone for all event dates and user-facing times.
var JST = time.FixedZone("JST", 9*60*60)

// datePattern matches "YYYY/M/D" or "M/D" with either "/" or "-" as the
// separator, optionally annotated with a single-kanji weekday in full- or
// half-width parentheses, e.g. "9/6（土）" or "2025-09-19".
var datePattern = regexp.MustCompile(`(?:(\d{4})[/-])?(\d{1,2})[/-](\d{1,2})(?:[（(]([日月火水木金土])[)）])?`)

var weekdayKanji = [7]string{"日", "月", "火", "水", "木", "金", "土"}

// ResolveDate extracts the first date expression from text and returns it
// normalized as "YYYY/MM/DD". A date without a year is assumed to be the
// next occurrence: this year if not yet past relative to now, else next year.
// Month and day are range-checked (1-12, 1-31) but not calendar-validated;
// lookup against real events rejects impossible dates downstream.
func ResolveDate(text string, now time.Time) (string, bool) {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}

	if m[1] != "" {
		year, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%04d/%02d/%02d", year, month, day), true
	}

	now = now.In(JST)
	year := now.Year()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, JST)
	candidate := time.Date(year, time.Month(month), day, 0, 0, 0, 0, JST)
	if candidate.Before(today) {
		year++
	}
	return fmt.Sprintf("%04d/%02d/%02d", year, month, day), true
}

// ContainsDate reports whether text carries a date expression at all.
func ContainsDate(text string) bool {
	return datePattern.MatchString(text)
}

// ParseEventDate parses a stored "YYYY/MM/DD" (or "YYYY/M/D") date string.
func ParseEventDate(s string) (time.Time, error) {
	m := datePattern.FindStringSubmatch(s)
	if m == nil || m[1] == "" {
		return time.Time{}, fmt.Errorf("invalid event date %q", s)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, JST), nil
}

// NormalizeDate re-renders a parsable date string as zero-padded "YYYY/MM/DD".
func NormalizeDate(s string) (string, error) {
	t, err := ParseEventDate(s)
	if err != nil {
		return "", err
	}
	return t.Format("2006/01/02"), nil
}

// FormatDateJP renders a date for chat display, e.g. "9/6(土)".
func FormatDateJP(t time.Time) string {
	t = t.In(JST)
	return fmt.Sprintf("%d/%d(%s)", int(t.Month()), t.Day(), weekdayKanji[int(t.Weekday())])
}

// Tomorrow returns tomorrow's date relative to now, normalized.
func Tomorrow(now time.Time) string {
	return now.In(JST).AddDate(0, 0, 1).Format("2006/01/02")
}

// Today returns today's date relative to now, normalized.
func Today(now time.Time) string {
	return now.In(JST).Format("2006/01/02")
}
