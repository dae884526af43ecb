package runtime

import (
	"log/slog"
	"sync"
	"time"

	"chat-relay/domain"
)

// Session is a connection-scoped identity. The token is supplied by the
// caller, not generated here. A session is Anonymous until a login binds a
// user to it; only Active sessions carry an idle timer. All fields beyond
// the token are guarded by the owning SessionManager.
type Session struct {
	Token string

	user  *domain.User
	timer *time.Timer

	// gen invalidates superseded timers: a firing whose generation no
	// longer matches is ignored. Rearming without this would race with an
	// in-flight expiry of the timer it just cancelled.
	gen uint64
}

// SessionManager maps opaque tokens to sessions and evicts idle ones.
// Timer callbacks run on their own goroutines and are the only concurrent
// writers next to the serialized request path, so every mutation goes
// through the manager mutex.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	log      *slog.Logger
	registry *Registry
	fanout   *Distributor
	timeout  time.Duration
}

func NewSessionManager(log *slog.Logger, registry *Registry, fanout *Distributor, timeout time.Duration) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		log:      log,
		registry: registry,
		fanout:   fanout,
		timeout:  timeout,
	}
}

// FindOrCreate resolves the session for a token, creating an Anonymous one
// on first sight. Anonymous sessions have no timer and are never evicted.
func (m *SessionManager) FindOrCreate(token string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[token]; ok {
		return s
	}
	s := &Session{Token: token}
	m.sessions[token] = s
	return s
}

// User returns the session's bound user, nil while Anonymous. The snapshot
// stays valid for the caller even if an eviction fires mid-request; registry
// operations on an already-evicted user degrade to no-ops.
func (m *SessionManager) User(s *Session) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return s.user
}

// Bind attaches a freshly logged-in user and arms the idle timer.
func (m *SessionManager) Bind(s *Session, u *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.user = u
	m.arm(s)
}

// Rearm cancels the running timer and starts a fresh one. No-op on
// Anonymous sessions.
func (m *SessionManager) Rearm(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.user == nil {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	m.arm(s)
}

// Evict tears a session down: the bound user leaves the registry, every
// remaining user gets a Disconnected event, and the session is forgotten.
// Evicting an unknown or already-torn-down session is a safe no-op, so the
// logout/timeout/admin paths can race freely.
func (m *SessionManager) Evict(token string) {
	m.mu.Lock()
	s, ok := m.sessions[token]
	if !ok {
		m.mu.Unlock()
		return
	}
	m.teardown(s)
	u := s.user
	s.user = nil
	m.mu.Unlock()

	m.disconnect(u)
}

// EvictUser evicts whichever session is bound to the given username.
// Reports whether such a session existed.
func (m *SessionManager) EvictUser(name domain.Username) bool {
	m.mu.Lock()
	var found *Session
	for _, s := range m.sessions {
		if s.user != nil && s.user.Username == name {
			found = s
			break
		}
	}
	if found == nil {
		m.mu.Unlock()
		return false
	}
	m.teardown(found)
	u := found.user
	found.user = nil
	m.mu.Unlock()

	m.disconnect(u)
	return true
}

// StopAll cancels every outstanding timer and drops all sessions so the
// process can exit without a late eviction mutating shared state.
func (m *SessionManager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		s.gen++
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
	}
	m.sessions = make(map[string]*Session)
}

func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// arm schedules the idle expiry for the session's current generation.
// Callers hold m.mu.
func (m *SessionManager) arm(s *Session) {
	s.gen++
	gen := s.gen
	token := s.Token
	s.timer = time.AfterFunc(m.timeout, func() {
		m.expire(token, gen)
	})
}

// expire is the timer callback. A stale generation means the timer was
// superseded by a rearm (or StopAll) right as it fired; ignore it.
func (m *SessionManager) expire(token string, gen uint64) {
	m.mu.Lock()
	s, ok := m.sessions[token]
	if !ok || s.gen != gen {
		m.mu.Unlock()
		return
	}
	m.log.Info("idle session evicted", "token", token)
	m.teardown(s)
	u := s.user
	s.user = nil
	m.mu.Unlock()

	m.disconnect(u)
}

// teardown invalidates timers and forgets the session. Callers hold m.mu.
func (m *SessionManager) teardown(s *Session) {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	delete(m.sessions, s.Token)
}

// disconnect removes the user and announces it. The removal check keeps the
// Disconnected fan-out exactly-once when eviction races an admin removal.
func (m *SessionManager) disconnect(u *domain.User) {
	if u == nil {
		return
	}
	if removed := m.registry.RemoveUser(u.Username); removed {
		m.fanout.UserChange(u.Username, domain.ChangeDisconnected)
	}
}
