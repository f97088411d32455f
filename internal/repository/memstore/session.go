package memstore

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/noah-isme/sipal-api/internal/models"
)

// SessionStore keeps alumni selection sessions until they expire.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.AlumniSession
	now      func() time.Time
}

// NewSessionStore returns an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]models.AlumniSession), now: time.Now}
}

// Save stores the session; ttl is taken from its ExpiresAt. Expired
// sessions are dropped on every save so abandoned ones do not accumulate.
func (s *SessionStore) Save(_ context.Context, session models.AlumniSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, existing := range s.sessions {
		if expired(existing, now) {
			delete(s.sessions, id)
		}
	}
	s.sessions[session.ID] = session
	return nil
}

// Get returns sql.ErrNoRows for unknown or expired sessions.
func (s *SessionStore) Get(_ context.Context, id string) (*models.AlumniSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if expired(session, s.now()) {
		delete(s.sessions, id)
		return nil, sql.ErrNoRows
	}
	return &session, nil
}

// Delete forgets a session. Unknown ids are ignored.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func expired(session models.AlumniSession, now time.Time) bool {
	return !session.ExpiresAt.IsZero() && now.After(session.ExpiresAt)
}
