// Package health tracks whether the rendering backend is available and gates
// the actions that depend on it.
package health

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// State is the monitor's view of the backend.
type State string

const (
	Checking  State = "checking"
	Healthy   State = "healthy"
	Unhealthy State = "unhealthy"
)

// DefaultInterval is the delay between polls.
const DefaultInterval = 5 * time.Second

const defaultCheckTimeout = 3 * time.Second

// Checker probes the backend once. Implementations must map every failure
// to Unhealthy rather than returning an error.
type Checker interface {
	Check(ctx context.Context) State
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) State

func (f CheckerFunc) Check(ctx context.Context) State { return f(ctx) }

// Monitor starts in Checking, polls immediately and then every interval, and
// moves directly between Healthy and Unhealthy afterwards.
type Monitor struct {
	checker  Checker
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	mu        sync.RWMutex
	state     State
	checkedAt time.Time
}

// NewMonitor creates a Monitor in the Checking state. Non-positive interval
// or timeout select the defaults.
func NewMonitor(checker Checker, interval, timeout time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	return &Monitor{
		checker:  checker,
		interval: interval,
		timeout:  timeout,
		logger:   slog.Default(),
		state:    Checking,
	}
}

// WithLogger sets the logger used for state transitions.
func (m *Monitor) WithLogger(l *slog.Logger) *Monitor {
	m.logger = l
	return m
}

// Run polls until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		m.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single check and records the result.
func (m *Monitor) RunOnce(ctx context.Context) State {
	checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	next := m.checker.Check(checkCtx)
	if next != Healthy {
		next = Unhealthy
	}

	m.mu.Lock()
	prev := m.state
	m.state = next
	m.checkedAt = time.Now()
	m.mu.Unlock()

	if prev != next {
		m.logger.Info("backend health changed", "from", prev, "to", next)
	}
	return next
}

// State returns the current state.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CheckedAt returns the time of the last completed check, zero if none.
func (m *Monitor) CheckedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checkedAt
}

// ActionsEnabled reports whether render, preview and source requests may be
// issued.
func (m *Monitor) ActionsEnabled() bool {
	return m.State() == Healthy
}
