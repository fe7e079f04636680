// Package datemath holds the calendar arithmetic used by the month view and
// by event validation. Everything here is pure and safe for concurrent use.
package datemath

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidDateFormat is returned by ParseISO for anything that is not a
// real YYYY-MM-DD calendar date.
var ErrInvalidDateFormat = errors.New("datemath: invalid date format")

var isoDateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Date is a civil calendar date without time-of-day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the civil date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	return FormatISO(d)
}

// IsLeapYear reports whether year has a February 29th in the Gregorian calendar.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days (28..31) in the given month.
func DaysInMonth(year int, month time.Month) int {
	if month == time.February && IsLeapYear(year) {
		return 29
	}
	return monthDays[month-1]
}

// FirstWeekday returns the weekday of the 1st of the month (Sunday = 0).
func FirstWeekday(year int, month time.Month) time.Weekday {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday()
}

// ISO dates cover years MinISOYear..MaxISOYear. FormatISO output for
// years outside that range does not parse back with ParseISO.
const (
	MinISOYear = 0
	MaxISOYear = 9999
)

// FormatISO formats d as YYYY-MM-DD. d.Year must lie in
// MinISOYear..MaxISOYear for the result to round-trip through ParseISO.
func FormatISO(d Date) string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ParseISO parses a YYYY-MM-DD string. Out-of-range months and days
// (e.g. 2023-02-29) are rejected rather than normalized.
func ParseISO(s string) (Date, error) {
	m := isoDateRe.FindStringSubmatch(s)
	if m == nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("%w: month out of range in %q", ErrInvalidDateFormat, s)
	}
	if day < 1 || day > DaysInMonth(year, time.Month(month)) {
		return Date{}, fmt.Errorf("%w: day out of range in %q", ErrInvalidDateFormat, s)
	}
	return Date{Year: year, Month: time.Month(month), Day: day}, nil
}

// IsValidISO reports whether s parses with ParseISO.
func IsValidISO(s string) bool {
	_, err := ParseISO(s)
	return err == nil
}

// IsSameDay compares the year/month/day components of a and b, each in
// its own location.
func IsSameDay(a, b time.Time) bool {
	return DateOf(a) == DateOf(b)
}

// TodayISO returns the current date in loc as YYYY-MM-DD.
func TodayISO(loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return FormatISO(DateOf(time.Now().In(loc)))
}

// MonthName returns the English month name ("January".."December").
func MonthName(month time.Month) string {
	return month.String()
}

// AddMonths moves (year, month) by delta months, rolling the year over.
func AddMonths(year int, month time.Month, delta int) (int, time.Month) {
	idx := year*12 + int(month-1) + delta
	y := idx / 12
	m := idx % 12
	if m < 0 {
		m += 12
		y--
	}
	return y, time.Month(m + 1)
}
