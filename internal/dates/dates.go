// Package dates normalizes every timestamp in the system to calendar days
// in the library's local timezone. All due-date comparisons go through
// DiffDays; doing raw timestamp arithmetic elsewhere breaks on
// daylight-saving transitions, where a local day is 23 or 25 hours long.
package dates

import (
	"fmt"
	"time"
)

// DayFormat is the wire format for calendar days.
const DayFormat = "2006-01-02"

// Location is the fixed timezone all calendar-day math is evaluated in.
var Location = mustLoadLocation("Europe/Berlin")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load timezone %s: %v", name, err))
	}
	return loc
}

// DayString renders t as a YYYY-MM-DD calendar day in the library timezone.
func DayString(t time.Time) string {
	return t.In(Location).Format(DayFormat)
}

// ParseDay parses a YYYY-MM-DD string into midnight of that day in the
// library timezone.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DayFormat, s, Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return t, nil
}

// epochDays counts whole calendar days between t's local date and the Unix
// epoch. The civil date is extracted first and re-anchored in UTC, so the
// count is immune to DST offsets.
func epochDays(t time.Time) int {
	y, m, d := t.In(Location).Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// DiffDays returns the signed day count a - b at calendar-day granularity.
// Two instants less than 24 hours apart that straddle a local midnight
// still differ by one day.
func DiffDays(a, b time.Time) int {
	return epochDays(a) - epochDays(b)
}

// AddDays advances t by n calendar days, anchored to midnight of the
// resulting day in the library timezone.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.In(Location).Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, Location)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DiffDays(a, b) == 0
}
