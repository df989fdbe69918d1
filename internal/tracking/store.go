package tracking

import "sync"

// Store is the in-memory session table. It is the single source of truth for
// live sessions; a session leaves the store exactly once, through Remove.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: map[string]*Session{}}
}

func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.SessionID] = sess
}

// Get returns a copy of the session so callers cannot mutate shared state
// outside Update.
func (s *Store) Get(sessionID string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	return copySession(sess), true
}

// Update applies fn to the session under the store lock. Returns false if the
// session no longer exists, which callers must treat as "already closed".
func (s *Store) Update(sessionID string, fn func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	fn(sess)
	return true
}

// Remove claims the session for finalization. Only the first caller receives
// it; concurrent finish and sweep resolve their race here.
func (s *Store) Remove(sessionID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	delete(s.sessions, sessionID)
	return sess, true
}

// ActiveByUser returns the id of the user's live session, if any.
func (s *Store) ActiveByUser(userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, sess := range s.sessions {
		if sess.UserID == userID && sess.FinishedAt.IsZero() {
			return id, true
		}
	}
	return "", false
}

// Snapshot copies every live session. The sweeper selects over a snapshot so
// selection logic stays independent of scheduling.
func (s *Store) Snapshot() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, copySession(sess))
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func copySession(sess *Session) Session {
	out := *sess
	out.Route = append([]GeoPoint(nil), sess.Route...)
	return out
}
