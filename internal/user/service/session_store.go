package service

import (
	"sync"
	"time"

	"github.com/keepsakevault/keepsake/internal/user/domain"
)

// SessionStore holds active sessions. Sessions are never persisted: the
// credential inside each one can carry a raw master key, so the store is
// memory-only and a process restart locks every vault.
type SessionStore interface {
	Put(session *domain.Session)
	// Get returns the session for a token hash; expired sessions are removed
	// and reported as absent.
	Get(tokenHash string) (*domain.Session, bool)
	// Delete removes a session and clears its credential.
	Delete(tokenHash string)
	// PurgeExpired removes every expired session, clearing credentials,
	// and returns how many were removed.
	PurgeExpired() int
}

type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewMemorySessionStore creates an empty in-memory SessionStore.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{sessions: make(map[string]*domain.Session)}
}

func (m *memorySessionStore) Put(session *domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.TokenHash] = session
}

func (m *memorySessionStore) Get(tokenHash string) (*domain.Session, bool) {
	m.mu.RLock()
	session, ok := m.sessions[tokenHash]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if session.Expired(time.Now().UTC()) {
		m.Delete(tokenHash)
		return nil, false
	}
	return session, true
}

func (m *memorySessionStore) Delete(tokenHash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[tokenHash]; ok {
		session.Credential.Clear()
		delete(m.sessions, tokenHash)
	}
}

func (m *memorySessionStore) PurgeExpired() int {
	now := time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	purged := 0
	for tokenHash, session := range m.sessions {
		if session.Expired(now) {
			session.Credential.Clear()
			delete(m.sessions, tokenHash)
			purged++
		}
	}
	return purged
}
