// Package realtimetest provides an in-memory connection for tests that need
// to observe delivered events.
package realtimetest

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/linesmerrill/medtrack-api/realtime"
)

// ErrClosed is returned by Send after Close
var ErrClosed = errors.New("connection closed")

// Conn records every event sent to it
type Conn struct {
	id     string
	mu     sync.Mutex
	events []realtime.Event
	closed bool
	// Fail makes Send return this error when set
	Fail error
}

// NewConn returns an open recording connection
func NewConn() *Conn {
	return &Conn{id: uuid.NewString()}
}

// ID returns the connection id
func (c *Conn) ID() string { return c.id }

// Send records e
func (c *Conn) Send(e realtime.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.Fail != nil {
		return c.Fail
	}
	c.events = append(c.events, e)
	return nil
}

// Close marks the connection closed
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Events returns a copy of the recorded events
func (c *Conn) Events() []realtime.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]realtime.Event, len(c.events))
	copy(out, c.events)
	return out
}

// Named returns the recorded events with the given name
func (c *Conn) Named(name string) []realtime.Event {
	var out []realtime.Event
	for _, e := range c.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
