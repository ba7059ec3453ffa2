package application

import (
	"sync"
	"time"
)

// sessionStore keeps editing sessions in memory. A single mutex serialises every
// mutation so that no two operations touch the same range collection at once.
type sessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]Session
}

func newSessionStore(ttl time.Duration, now func() time.Time) *sessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &sessionStore{ttl: ttl, now: now, sessions: make(map[string]Session)}
}

func (s *sessionStore) put(session Session) {
	s.mu.Lock()
	s.sessions[session.ID] = session.clone()
	s.mu.Unlock()
}

func (s *sessionStore) get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.lookupLocked(id)
	if err != nil {
		return Session{}, err
	}
	return session.clone(), nil
}

// update applies fn to a copy of the session and stores the result when fn succeeds.
// The revision is bumped and UpdatedAt refreshed on every successful update.
func (s *sessionStore) update(id string, fn func(*Session) error) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.lookupLocked(id)
	if err != nil {
		return Session{}, err
	}
	working := session.clone()
	if err := fn(&working); err != nil {
		return Session{}, err
	}
	working.Revision = session.Revision + 1
	working.UpdatedAt = s.now()
	s.sessions[id] = working
	return working.clone(), nil
}

func (s *sessionStore) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// sweep removes every idle session and returns the removed ids.
func (s *sessionStore) sweep() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := make([]string, 0)
	for id, session := range s.sessions {
		if now.Sub(session.UpdatedAt) > s.ttl {
			delete(s.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}

func (s *sessionStore) lookupLocked(id string) (Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	// Expired sessions remain until sweep, which releases their cache entry and the
	// active session gauge.
	if s.now().Sub(session.UpdatedAt) > s.ttl {
		return Session{}, ErrSessionExpired
	}
	return session, nil
}
