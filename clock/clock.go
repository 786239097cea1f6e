// Package clock wraps time.Now so the reminder scheduler and the chat manager
// can be driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock represents an struct used for individual time management
type Clock interface {
	Now() time.Time
}

type clock struct{}

// New returns a Clock backed by the wall clock
func New() Clock {
	return clock{}
}

func (clock) Now() time.Time {
	return time.Now()
}

// ManagedClock is a Clock whose time only moves when told to. Intended for tests
type ManagedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManaged returns a ManagedClock frozen at start
func NewManaged(start time.Time) *ManagedClock {
	return &ManagedClock{now: start}
}

// Now returns the current managed time
func (c *ManagedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// WarpForward moves time forward by offset and returns the new time
func (c *ManagedClock) WarpForward(offset time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(offset)
	return c.now
}
