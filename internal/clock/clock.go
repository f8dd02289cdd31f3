// Package clock abstracts wall-clock time so update cycles can be tested deterministically.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// Real is the system wall clock
type Real struct{}

// Now returns time.Now
func (Real) Now() time.Time {
	return time.Now()
}

// Mock is a settable clock for tests
type Mock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMock creates a Mock clock frozen at now
func NewMock(now time.Time) *Mock {
	return &Mock{now: now}
}

// Now returns the frozen time
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the clock forward by d
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
