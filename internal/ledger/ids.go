package ledger

import (
	"sync"
	"time"
)

// IDGenerator issues transaction ids from the wall clock in Unix
// milliseconds. Ids are strictly increasing: a clock that has not advanced,
// or has gone backwards, yields last+1 instead.
type IDGenerator struct {
	now  func() time.Time
	last int64
	mu   sync.Mutex
}

// NewIDGenerator returns a generator reading time from now.
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns a fresh id greater than every id issued before and greater
// than floor.
func (g *IDGenerator) Next(floor int64) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	if id <= floor {
		id = floor + 1
	}
	g.last = id
	return id
}
