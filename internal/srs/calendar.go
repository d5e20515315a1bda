// Package srs holds the pure scheduling and aggregation rules of the spaced
// repetition engine. Nothing in here touches storage or the wall clock;
// callers pass "now" and the data explicitly.
package srs

import (
	"fmt"
	"time"
)

// DateLayout is the on-disk and wire format of every calendar date.
// Lexicographic order of formatted dates equals calendar order.
const DateLayout = "2006-01-02"

// DefaultTimezone is the reference zone all day boundaries are computed in.
const DefaultTimezone = "Asia/Shanghai"

// Calendar maps instants onto reference-timezone calendar days.
type Calendar struct {
	loc *time.Location
}

// NewCalendar loads the named zone. When tzdata is missing from the host the
// Asia/Shanghai default degrades to a fixed +08:00 zone; other names error.
func NewCalendar(name string) (*Calendar, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		if name != DefaultTimezone {
			return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
		}
		loc = time.FixedZone("UTC+8", 8*60*60)
	}
	return &Calendar{loc: loc}, nil
}

// MustCalendar is NewCalendar for the default zone, which cannot fail.
func MustCalendar() *Calendar {
	c, _ := NewCalendar(DefaultTimezone)
	return c
}

func (c *Calendar) Location() *time.Location { return c.loc }

// Day returns the reference calendar date containing t.
func (c *Calendar) Day(t time.Time) string {
	return t.In(c.loc).Format(DateLayout)
}

// StartOfDay returns midnight of date in the reference zone.
func (c *Calendar) StartOfDay(date string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, date, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// ParseDate validates a YYYY-MM-DD string.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// AddDays shifts a calendar date by n days. Calendar arithmetic is zone
// independent, so it is done on UTC midnights. Malformed input yields "".
func AddDays(date string, n int) string {
	t, err := ParseDate(date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}

// DaysBetween returns to - from in whole days.
func DaysBetween(from, to string) (int, error) {
	a, err := ParseDate(from)
	if err != nil {
		return 0, err
	}
	b, err := ParseDate(to)
	if err != nil {
		return 0, err
	}
	return int(b.Sub(a).Hours() / 24), nil
}
