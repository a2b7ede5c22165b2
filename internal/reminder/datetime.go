package reminder

import (
	"strings"
	"time"

	"github.com/BruksfildServices01/hospital-scheduler/internal/httperr"
)

// DefaultLead is how long before the appointment the reminder fires.
const DefaultLead = time.Hour

var ErrInvalidDateTime = httperr.ErrBusiness("invalid_date_or_time")

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"Mon Jan 02 2006",
}

// 24 hour layouts are tried after the meridiem ones so that "12:30 AM"
// never silently parses as half past noon.
var clockLayouts = []string{
	"3:04 PM",
	"3:04PM",
	"3:04:05 PM",
	"3 PM",
	"3PM",
	"15:04",
	"15:04:05",
}

// ParseDate accepts a calendar date in any of the supported notations and
// returns midnight of that day in loc. Timestamps carrying an offset are
// moved into loc first, so the day is the one the hospital sees.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	s := clean(raw)
	if s == "" {
		return time.Time{}, ErrInvalidDateTime
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if hasOffset(layout) {
				t = t.In(loc)
			}
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
		}
	}

	// JS style "Wed Jan 01 2025 00:00:00 GMT+0530 (India Standard Time)"
	if len(s) > 15 {
		if t, err := time.Parse("Mon Jan 02 2006", s[:15]); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
		}
	}

	return time.Time{}, ErrInvalidDateTime
}

// ParseClock normalizes a time of day written in 24 hour or 12 hour with
// meridiem notation and returns hour and minute in 24 hour form.
func ParseClock(raw string) (hour, minute int, err error) {
	s := strings.ToUpper(clean(raw))
	s = strings.ReplaceAll(s, ".", "")
	if s == "" {
		return 0, 0, ErrInvalidDateTime
	}

	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute(), nil
		}
	}

	return 0, 0, ErrInvalidDateTime
}

// StartsAt combines the stored date and time strings into one instant.
func StartsAt(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}

	h, m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, loc), nil
}

// FireTime is the appointment instant minus the lead interval.
func FireTime(date, clock string, loc *time.Location, lead time.Duration) (time.Time, error) {
	start, err := StartsAt(date, clock, loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(-lead), nil
}

func hasOffset(layout string) bool {
	return layout == time.RFC3339 || layout == time.RFC3339Nano
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.Join(strings.Fields(s), " ")
}
