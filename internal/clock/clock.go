// Package clock provides the time source used to stamp media state changes.
package clock

import (
	"sync"
	"time"
)

// Clock defines an interface for getting the current time.
// Tests inject a Manual clock to pin freshness timestamps.
type Clock interface {
	Now() time.Time
}

// Real implements Clock using the system time.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Manual is a Clock that only moves when told to. Safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a Manual clock starting at t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Millis returns t as milliseconds since the Unix epoch.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
