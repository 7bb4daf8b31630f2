package testutil

import (
	"sync"
	"time"
)

// DeterministicClock hands out strictly increasing timestamps for tests.
//
// Each call to Now advances the clock by one second from a fixed epoch,
// so audit entries written through it have distinct, ordered, and
// reproducible dates regardless of wall time.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	epoch time.Time
	ticks int64
}

// NewDeterministicClock creates a clock starting at the given epoch.
// A zero epoch defaults to 2020-01-01T00:00:00Z.
func NewDeterministicClock(epoch time.Time) *DeterministicClock {
	if epoch.IsZero() {
		epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &DeterministicClock{epoch: epoch}
}

// Now returns the next timestamp: epoch + ticks seconds.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	return c.epoch.Add(time.Duration(c.ticks) * time.Second)
}

// Current returns the last timestamp handed out without advancing.
func (c *DeterministicClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch.Add(time.Duration(c.ticks) * time.Second)
}

// Reset rewinds the clock to its epoch.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
