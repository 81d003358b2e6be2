// Package clock provides the time source injected into the scheduler and a
// controllable implementation for tests.
package clock

import (
	"sync"
	"time"
)

// NowFunc returns the current instant.
type NowFunc func() time.Time

// In returns a NowFunc reporting time.Now in loc.
func In(loc *time.Location) NowFunc {
	if loc == nil {
		loc = time.Local
	}
	return func() time.Time { return time.Now().In(loc) }
}

// Fake is a manually driven clock.
type Fake struct {
	mu      sync.Mutex
	current time.Time
}

// NewFake returns a clock stopped at start.
func NewFake(start time.Time) *Fake {
	return &Fake{current: start}
}

// Now returns the current instant tracked by the clock.
func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now for injection.
func (c *Fake) NowFunc() NowFunc {
	return c.Now
}

// Set moves the clock to t.
func (c *Fake) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new time.
func (c *Fake) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}
