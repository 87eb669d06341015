package conversation

import "sync"

// Store keeps dialogue sessions keyed by LINE user id.
type Store interface {
	Get(userID string) (Session, bool)
	Put(userID string, s Session)
	Clear(userID string)
}

// MemoryStore is the in-process Store. Sessions do not survive restarts
// and are not shared across instances.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore builds an empty session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (s *MemoryStore) Get(userID string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

func (s *MemoryStore) Put(userID string, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = sess
}

func (s *MemoryStore) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
