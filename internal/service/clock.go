package service

import (
	"time"

	"lodelita/internal/domain"
)

// Clock reads the current time in the restaurant's time zone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc, now: time.Now}
}

// FixedClock always returns t. Used by tests.
func FixedClock(t time.Time) *Clock {
	return &Clock{loc: t.Location(), now: func() time.Time { return t }}
}

func (c *Clock) Now() time.Time { return c.now().In(c.loc) }

// Today is the calendar date orders are filed under.
func (c *Clock) Today() string { return c.Now().Format(domain.DateLayout) }

func (c *Clock) Location() *time.Location { return c.loc }
