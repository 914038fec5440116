// Package session ties one browser chat to its server-side state: the
// artifact store and the conversation log. Sessions are created explicitly,
// addressed by UUID (bound to a cookie by the web layer) and expire after
// idling; there is no ambient global session.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/midday-ai/canvas/internal/artifact"
	"github.com/midday-ai/canvas/internal/conversation"
)

// Session owns the per-chat state. Store and State are safe for concurrent
// use on their own; Session adds identity and idle tracking.
type Session struct {
	ID    uuid.UUID
	Store *artifact.Store
	State *conversation.State

	CreatedAt time.Time

	turnMu sync.Mutex

	mu       sync.Mutex
	lastSeen time.Time
}

// LockTurn serializes assistant turns for this session: it blocks while
// another turn is running, so a quick second message waits for the first
// turn's finalization instead of racing it.
func (s *Session) LockTurn() { s.turnMu.Lock() }

// UnlockTurn releases the turn taken by LockTurn.
func (s *Session) UnlockTurn() { s.turnMu.Unlock() }

// Touch records activity for idle expiry.
func (s *Session) Touch(at time.Time) {
	s.mu.Lock()
	s.lastSeen = at
	s.mu.Unlock()
}

// LastSeen returns the most recent activity timestamp.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Manager is the uuid-keyed session registry with idle expiry.
type Manager struct {
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a Manager expiring sessions idle longer than ttl. A
// nil logger falls back to slog.Default.
func NewManager(ttl time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:   logger,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create starts a fresh session.
func (m *Manager) Create() *Session {
	now := m.now()
	s := &Session{
		ID:        uuid.New(),
		Store:     artifact.NewStore(m.logger.With("component", "artifact")),
		State:     conversation.NewState(m.logger.With("component", "conversation")),
		CreatedAt: now,
		lastSeen:  now,
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Debug("session created", "id", s.ID)
	return s
}

// Get returns the session for id and marks it active.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.Touch(m.now())
	}
	return s, ok
}

// GetOrCreate resolves id, falling back to a new session when id is
// unknown or zero. The web layer uses it to bind cookies.
func (m *Manager) GetOrCreate(id uuid.UUID) *Session {
	if id != uuid.Nil {
		if s, ok := m.Get(id); ok {
			return s
		}
	}
	return m.Create()
}

// Close tears one session down.
func (m *Manager) Close(id uuid.UUID) {
	m.mu.Lock()
	_, existed := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if existed {
		m.logger.Debug("session closed", "id", id)
	}
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes sessions idle longer than the TTL and returns how many.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var expired []uuid.UUID
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if len(expired) > 0 {
		m.logger.Info("sessions expired", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps periodically until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	interval := m.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
