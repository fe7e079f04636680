package datemath

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidTimeFormat is returned for anything that is not a 24-hour HH:MM.
var ErrInvalidTimeFormat = errors.New("datemath: invalid time format")

var clockRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// ParseClock converts "HH:MM" (00:00..23:59) into minutes since midnight.
func ParseClock(s string) (int, error) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	hour := int(m[1][0]-'0')*10 + int(m[1][1]-'0')
	minute := int(m[2][0]-'0')*10 + int(m[2][1]-'0')
	return hour*60 + minute, nil
}

// IsValidClock reports whether s is a 24-hour HH:MM time.
func IsValidClock(s string) bool {
	return clockRe.MatchString(s)
}

// FormatClock is the inverse of ParseClock for 0 <= minutes < 1440.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// FormatTime12Hour renders "14:05" as "2:05 PM". Invalid input is returned as is.
func FormatTime12Hour(s string) string {
	mins, err := ParseClock(s)
	if err != nil {
		return s
	}
	hour, minute := mins/60, mins%60
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour12, minute, period)
}
