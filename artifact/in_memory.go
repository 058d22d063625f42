package artifact

import "sync"

// InMemoryStore is a volatile core.ArtifactStore keeping snapshot bytes in a
// nested map guarded by an RWMutex. Bytes are copied on save and retrieval so
// callers cannot mutate internal buffers. Best suited for tests and headless
// demos; the Save reference it returns is the artifact id itself.
//
// Layout: sessionID -> artifactID -> raw bytes
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]map[string][]byte
}

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{artifacts: make(map[string]map[string][]byte)}
}

// Save stores (or overwrites) the snapshot bytes for the session / id pair.
func (a *InMemoryStore) Save(sessionID, artifactID string, data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.artifacts[sessionID]; !exists {
		a.artifacts[sessionID] = make(map[string][]byte)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	a.artifacts[sessionID][artifactID] = cp
	return artifactID, nil
}

// Get returns a copy of the stored snapshot bytes or ErrNotFound.
func (a *InMemoryStore) Get(sessionID, artifactID string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.artifacts[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	data, ok := m[artifactID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List returns the snapshot ids stored for the session.
func (a *InMemoryStore) List(sessionID string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.artifacts[sessionID]
	if !ok {
		return []string{}, nil
	}
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids, nil
}

// Purge removes every snapshot stored for the session.
func (a *InMemoryStore) Purge(sessionID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.artifacts, sessionID)
	return nil
}
