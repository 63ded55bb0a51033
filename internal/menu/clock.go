package menu

import (
	"sync"
	"time"
)

// Clock supplies the wall-clock time used for day keys.
type Clock interface {
	Now() time.Time
}

type wallClock struct {
	loc *time.Location
}

// NewClock returns a clock reporting the current time in loc.
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return wallClock{loc: loc}
}

func (c wallClock) Now() time.Time { return time.Now().In(c.loc) }

// FixedClock is a settable clock for tests.
type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Today returns the day key for the clock's current time.
func Today(c Clock) DayKey {
	return KeyAt(c.Now())
}
