package tracker

import (
	"context"
	"io"
	"sync"
)

// MockTracker delivers scripted reports for testing.
type MockTracker struct {
	mu       sync.Mutex
	pending  []Report
	running  bool
	finished bool
}

// NewMockTracker creates a MockTracker preloaded with reports.
func NewMockTracker(reports ...Report) *MockTracker {
	return &MockTracker{pending: reports}
}

func (m *MockTracker) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
	return nil
}

func (m *MockTracker) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	return nil
}

func (m *MockTracker) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Push queues more reports for the next Update.
func (m *MockTracker) Push(reports ...Report) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, reports...)
}

// Finish makes Update return io.EOF once the queue is drained.
func (m *MockTracker) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = true
}

func (m *MockTracker) Update(_ context.Context, h Handler) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrNotOpen
	}
	batch := m.pending
	m.pending = nil
	finished := m.finished
	m.mu.Unlock()

	// delivered outside the lock so handlers may Push
	for _, r := range batch {
		r.Deliver(h)
	}
	if finished && len(batch) == 0 {
		return io.EOF
	}
	return nil
}
