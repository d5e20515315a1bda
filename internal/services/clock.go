package services

import (
	"time"

	"vocab-backend/internal/srs"
)

// Clock resolves "today" in the reference timezone. Now is swappable so
// tests can pin the date.
type Clock struct {
	Calendar *srs.Calendar
	Now      func() time.Time
}

func NewClock(cal *srs.Calendar) *Clock {
	return &Clock{Calendar: cal, Now: time.Now}
}

func (c *Clock) Today() string {
	return c.Calendar.Day(c.Now())
}

func (c *Clock) Tomorrow() string {
	return srs.AddDays(c.Today(), 1)
}
