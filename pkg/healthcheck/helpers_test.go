package healthcheck

import (
	"context"
	"sync"
	"time"
)

// MockChecker provides a configurable checker for testing
type MockChecker struct {
	status    Status
	message   string
	metadata  interface{}
	delay     time.Duration
	callCount int
	mu        sync.Mutex
}

func NewMockChecker() *MockChecker {
	return &MockChecker{status: StatusHealthy}
}

func (m *MockChecker) WithStatus(status Status) *MockChecker {
	m.status = status
	return m
}

func (m *MockChecker) WithMessage(message string) *MockChecker {
	m.message = message
	return m
}

func (m *MockChecker) WithMetadata(metadata interface{}) *MockChecker {
	m.metadata = metadata
	return m
}

func (m *MockChecker) WithDelay(delay time.Duration) *MockChecker {
	m.delay = delay
	return m
}

// Check implements the Checker interface
func (m *MockChecker) Check(ctx context.Context) Check {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	start := time.Now()
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return Check{
				Status:      StatusUnhealthy,
				Message:     "Context cancelled",
				LastChecked: start,
				Duration:    time.Since(start),
			}
		}
	}

	return Check{
		Status:      m.status,
		Message:     m.message,
		Metadata:    m.metadata,
		LastChecked: start,
		Duration:    time.Since(start),
	}
}

func (m *MockChecker) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) HealthCheck(ctx context.Context) error { return f(ctx) }
