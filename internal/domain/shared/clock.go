package shared

import (
	"sort"
	"sync"
	"time"
)

// Clock is an abstraction for time operations, allowing time to be mocked in tests
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)

	// AfterFunc schedules f to run after d elapses. The returned stop
	// function cancels the timer if it has not fired yet.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// RealClock implements Clock using the actual system time
type RealClock struct{}

// Now returns the current system time in UTC
func (r *RealClock) Now() time.Time {
	return time.Now().UTC()
}

// Sleep blocks for the given duration
func (r *RealClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// AfterFunc delegates to time.AfterFunc
func (r *RealClock) AfterFunc(d time.Duration, f func()) func() bool {
	t := time.AfterFunc(d, f)
	return t.Stop
}

// NewRealClock creates a RealClock instance
func NewRealClock() Clock {
	return &RealClock{}
}

// mockTimer is a timer scheduled on a MockClock
type mockTimer struct {
	deadline time.Time
	fn       func()
	stopped  bool
}

// MockClock implements Clock with a controllable time for testing.
// Timers scheduled with AfterFunc fire synchronously when Advance or
// Sleep moves the clock past their deadline.
type MockClock struct {
	mu          sync.Mutex
	currentTime time.Time
	timers      []*mockTimer
}

// NewMockClock creates a MockClock starting at the given time.
// If zero time is provided, starts at current time.
func NewMockClock(startTime time.Time) *MockClock {
	if startTime.IsZero() {
		startTime = time.Now()
	}
	return &MockClock{currentTime: startTime}
}

// Now returns the mock's current time
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

// Sleep advances the mock clock without blocking (instant in tests)
func (m *MockClock) Sleep(d time.Duration) {
	m.Advance(d)
}

// AfterFunc registers a timer that fires when the clock is advanced past d
func (m *MockClock) AfterFunc(d time.Duration, f func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &mockTimer{deadline: m.currentTime.Add(d), fn: f}
	m.timers = append(m.timers, t)
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		was := t.stopped
		t.stopped = true
		return !was
	}
}

// Advance moves the mock clock forward by the given duration, firing any
// timers whose deadline is reached, in deadline order.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	m.currentTime = m.currentTime.Add(d)
	now := m.currentTime

	var due []*mockTimer
	var remaining []*mockTimer
	for _, t := range m.timers {
		if !t.stopped && !t.deadline.After(now) {
			due = append(due, t)
		} else if !t.stopped {
			remaining = append(remaining, t)
		}
	}
	m.timers = remaining
	m.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })
	for _, t := range due {
		t.fn()
	}
}

// SetTime sets the mock clock to a specific time
func (m *MockClock) SetTime(t time.Time) {
	if d := t.Sub(m.Now()); d > 0 {
		m.Advance(d)
		return
	}
	m.mu.Lock()
	m.currentTime = t
	m.mu.Unlock()
}
