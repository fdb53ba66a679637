package models

import (
	"fmt"
	"time"
)

// DayLayout is the wire format for calendar days in URLs and JSON
const DayLayout = "2006-01-02"

// StartOfDay returns midnight of t's calendar day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DayWindow returns the half-open window [start, end) covering day in loc.
// On DST transitions the window is 23 or 25 hours long.
func DayWindow(day time.Time, loc *time.Location) (time.Time, time.Time) {
	start := StartOfDay(day, loc)
	return start, start.AddDate(0, 0, 1)
}

// ParseDay parses "2006-01-02" as midnight in loc
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DayLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", value, err)
	}
	return day, nil
}

// FormatDay renders a day as "2006-01-02"
func FormatDay(day time.Time) string {
	return day.Format(DayLayout)
}

// FormatDayDisplay renders a day like "Mon, January 2"
func FormatDayDisplay(day time.Time) string {
	return day.Format("Mon, January 2")
}

// FormatPicksheetDate renders a day like "Monday, January 2"
func FormatPicksheetDate(day time.Time) string {
	return day.Format("Monday, January 2")
}

// FormatDateHeading renders a day like "January 2, 2006"
func FormatDateHeading(day time.Time) string {
	return day.Format("January 2, 2006")
}

// SameDay reports whether a and b fall on the same calendar day in loc
func SameDay(a, b time.Time, loc *time.Location) bool {
	return StartOfDay(a, loc).Equal(StartOfDay(b, loc))
}
