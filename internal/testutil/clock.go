// Package testutil provides shared fixtures for kakeibo tests.
package testutil

import (
	"sync"
	"time"
)

// Clock is a controllable time source. Every call to Now returns the
// current instant; Advance and Set move it.
type Clock struct {
	now time.Time
	mu  sync.Mutex
}

// NewClock returns a clock fixed at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the clock's current time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
