package intake

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const DefaultSessionTTL = 30 * time.Minute

type Option func(*Manager)

func WithSteps(steps []StepDefinition) Option {
	return func(m *Manager) { m.steps = steps }
}

func WithDirectory(dir *Directory) Option {
	return func(m *Manager) { m.dir = dir }
}

// WithTTL sets how long a session may stay idle before Sweep discards it.
// Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

func withClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager owns every open session. Sessions share the step list and country
// directory but nothing mutable.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	steps []StepDefinition
	dir   *Directory
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		steps:    DefaultSteps(),
		dir:      DefaultDirectory(),
		ttl:      DefaultSessionTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Steps() []StepDefinition {
	out := make([]StepDefinition, len(m.steps))
	copy(out, m.steps)
	return out
}

func (m *Manager) Directory() *Directory { return m.dir }

func (m *Manager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	for m.sessions[id] != nil {
		id = uuid.NewString()
	}
	s := newSession(id, m.steps, m.dir, m.now)
	m.sessions[id] = s
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.sessions[id]
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close discards a session. Closing an unknown id is not an error.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep discards sessions idle for longer than the TTL and returns how many went.
func (m *Manager) Sweep(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if now.Sub(s.LastActive()) > m.ttl {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps on every tick until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(m.now()); n > 0 {
				log.Info().Int("expired", n).Int("open", m.Len()).Msg("intake sessions swept")
			}
		}
	}
}
