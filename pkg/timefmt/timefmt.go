// Package timefmt parses the backend's zone-less date-times and renders them the
// way patients and staff read them.
package timefmt

import (
	"fmt"
	"strings"
	"time"
)

// Placeholder is rendered for any part of a missing date-time.
const Placeholder = "N/A"

// InvalidDate is rendered for a date-time that is present but unreadable.
const InvalidDate = "Invalid Date"

const (
	DayLayout    = "Monday"
	LongLayout   = "January 2, 2006"
	ClockLayout  = "03:04 PM"
	TableLayout  = "2006-01-02 03:04 PM"
	LocaleLayout = "1/2/2006, 3:04:05 PM"

	isoMillis = "2006-01-02T15:04:05.000"
)

// zone-less layouts are interpreted in the caller's location
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Zone returns a fixed zone for the given offset.
func Zone(name string, offsetMinutes int) *time.Location {
	return time.FixedZone(name, offsetMinutes*60)
}

// Parse reads a backend date-time. Values carrying an explicit offset are
// converted into loc; values without one are taken as wall-clock time in loc.
func Parse(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date-time")
	}

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date-time %q", value)
}

// Parts is a date-time split for an SMS body.
type Parts struct {
	Day  string
	Date string
	Time string
}

// Split renders value as day name, long date and 12-hour clock. Every part is
// Placeholder when value is empty and InvalidDate when it cannot be parsed.
func Split(value string, loc *time.Location) Parts {
	if value == "" {
		return Parts{Day: Placeholder, Date: Placeholder, Time: Placeholder}
	}
	t, err := Parse(value, loc)
	if err != nil {
		return Parts{Day: InvalidDate, Date: InvalidDate, Time: InvalidDate}
	}
	return Parts{
		Day:  t.Format(DayLayout),
		Date: t.Format(LongLayout),
		Time: t.Format(ClockLayout),
	}
}

// Table renders value for the pending appointments table.
func Table(value string, loc *time.Location) string {
	if value == "" {
		return Placeholder
	}
	t, err := Parse(value, loc)
	if err != nil {
		return InvalidDate
	}
	return t.Format(TableLayout)
}

// Locale renders value the way an en-US browser prints a date-time. Empty
// string when value is missing.
func Locale(value string, loc *time.Location) string {
	if value == "" {
		return ""
	}
	t, err := Parse(value, loc)
	if err != nil {
		return InvalidDate
	}
	return t.Format(LocaleLayout)
}

// WallClockISO renders t's wall clock in loc as an ISO-8601 string with
// millisecond precision and a Z suffix. The notification backend stores this
// value as local time.
func WallClockISO(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(isoMillis) + "Z"
}
