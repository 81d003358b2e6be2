package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time without a date, in minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" (one or two digits per part).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidTime)
	}
	h, err := parseClockPart(hh, 23)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidTime)
	}
	m, err := parseClockPart(mm, 59)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidTime)
	}
	return TimeOfDay(h*60 + m), nil
}

func parseClockPart(s string, limit int) (int, error) {
	if len(s) == 0 || len(s) > 2 {
		return 0, ErrInvalidTime
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > limit {
		return 0, ErrInvalidTime
	}
	return n, nil
}

// TimeOfDayOf returns the time-of-day of t in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (d TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(d)/60, int(d)%60)
}

// MarshalText encodes the value as "HH:MM".
func (d TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes "HH:MM".
func (d *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// On returns the instant at this time-of-day on the calendar day of day.
func (d TimeOfDay) On(day time.Time) time.Time {
	y, mo, dd := day.Date()
	return time.Date(y, mo, dd, int(d)/60, int(d)%60, 0, 0, day.Location())
}

// Next returns the first occurrence strictly after now. A time-of-day that is
// at or before now rolls to the following day.
func (d TimeOfDay) Next(now time.Time) time.Time {
	t := d.On(now)
	if !t.After(now) {
		t = d.On(now.AddDate(0, 0, 1))
	}
	return t
}

// InWindow reports whether at falls in the half-open window [open, closeAt).
// A window with open after closeAt wraps past midnight; open == closeAt is empty.
func InWindow(open, closeAt, at TimeOfDay) bool {
	open, closeAt, at = open%minutesPerDay, closeAt%minutesPerDay, at%minutesPerDay
	if open <= closeAt {
		return open <= at && at < closeAt
	}
	return at >= open || at < closeAt
}
