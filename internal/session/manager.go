package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kalambet/texcv/internal/backend"
	"github.com/kalambet/texcv/internal/document"
)

// DefaultIdleTimeout ends sessions nobody has touched for this long.
const DefaultIdleTimeout = 30 * time.Minute

const minReapInterval = time.Second

// Manager owns the live sessions.
type Manager struct {
	gateway Gateway
	opts    Options
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty Manager.
func NewManager(gw Gateway, opts Options) *Manager {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		gateway:  gw,
		opts:     opts,
		logger:   opts.Logger,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session from the named template ("" selects the sample).
func (m *Manager) Create(template string) (*Session, error) {
	doc, ok := document.FromTemplate(template)
	if !ok {
		return nil, &backend.ValidationError{Msg: fmt.Sprintf("unknown template %q (sample|blank)", template)}
	}
	s := New(m.gateway, doc, m.opts)

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("session started", "session", s.ID, "template", template, "active", n)
	return s, nil
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok || s.Closed() {
		return nil, ErrNotFound
	}
	return s, nil
}

// End closes and forgets a session.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.Close()
	m.logger.Info("session ended", "session", id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Reap ends every session idle since before now minus the idle timeout and
// returns how many were ended.
func (m *Manager) Reap(now time.Time) int {
	cutoff := now.Add(-m.opts.IdleTimeout)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
		m.logger.Info("session expired", "session", s.ID)
	}
	return len(stale)
}

// Run reaps idle sessions until ctx is cancelled, then ends all of them.
func (m *Manager) Run(ctx context.Context) error {
	interval := m.opts.IdleTimeout / 2
	if interval < minReapInterval {
		interval = minReapInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.CloseAll()
			return nil
		case now := <-ticker.C:
			if n := m.Reap(now); n > 0 {
				m.logger.Debug("reaped idle sessions", "count", n)
			}
		}
	}
}

// CloseAll ends every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	clear(m.sessions)
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}
