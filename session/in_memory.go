package session

import (
	"fmt"
	"sync"

	"github.com/hupe1980/deskmesh/core"
)

// InMemoryStore is a volatile SessionStore keeping sessions in a process
// local map. DeskMesh sessions are single-writer (the run's background
// worker); the store's mutex only guards the map itself.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

// Create allocates and stores a new session for the goal. Creating an id that
// already exists is an error: step numbers of a session must never restart.
func (s *InMemoryStore) Create(id, goal string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[id]; exists {
		return nil, fmt.Errorf("session %s already exists", id)
	}
	sess := core.NewSession(id, goal)
	s.sessions[id] = sess
	return sess, nil
}

// Get returns the stored session or an error when unknown.
func (s *InMemoryStore) Get(id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return sess, nil
}

// Delete removes the session. Deleting an unknown id is a no-op.
func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
