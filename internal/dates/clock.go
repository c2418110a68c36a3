package dates

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FakeClock is deterministic and test-friendly.
type FakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// AdvanceDays moves the clock forward by n whole days.
func (c *FakeClock) AdvanceDays(n int) {
	c.mu.Lock()
	c.t = c.t.AddDate(0, 0, n)
	c.mu.Unlock()
}

// Calendar decides which calendar day "now" falls on.
type Calendar struct {
	Clock Clock
	Loc   *time.Location
}

// NewCalendar returns a Calendar on the real clock in loc (UTC when nil).
func NewCalendar(loc *time.Location) Calendar {
	return Calendar{Clock: RealClock{}, Loc: loc}
}

func (c Calendar) Now() time.Time {
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock.Now()
}

func (c Calendar) location() *time.Location {
	if c.Loc == nil {
		return time.UTC
	}
	return c.Loc
}

// Today is the current calendar date.
func (c Calendar) Today() Date {
	return Of(c.Now(), c.location())
}

// Yesterday is the calendar date before Today.
func (c Calendar) Yesterday() Date {
	return c.Today().AddDays(-1)
}

// DateOf returns the calendar date of t.
func (c Calendar) DateOf(t time.Time) Date {
	return Of(t, c.location())
}

// IsToday reports whether t (if set) falls on today's date.
func (c Calendar) IsToday(t *time.Time) bool {
	return t != nil && c.DateOf(*t) == c.Today()
}
