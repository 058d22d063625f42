package core

import (
	"sync"
	"time"
)

// Session ties together all steps of one goal: the remote conversation
// identity, the uploaded-observation handles that accumulate while the
// conversation keeps referencing prior turns, and the step counter.
//
// Contract:
//   - Step numbers are monotonically increasing and never reused
//   - Handles are append-only while the session is active; they are released
//     only at teardown, after the session is guaranteed inactive
//   - Mutations happen on the single background worker owning the run; the
//     mutex only guards against concurrent reads from observers
type Session struct {
	ID      string    `json:"id"`
	Goal    string    `json:"goal"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`

	// ThreadID identifies the remote conversation (e.g. an Assistants API
	// thread). Empty until the model client lazily creates one.
	ThreadID string `json:"thread_id,omitempty"`

	handles []string
	step    int
	mu      sync.RWMutex
}

// NewSession creates a session for the given goal.
func NewSession(id, goal string) *Session {
	now := time.Now().UTC()
	return &Session{ID: id, Goal: goal, Created: now, Updated: now}
}

// Step returns the current step number (0-based).
func (s *Session) Step() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.step
}

// AdvanceStep increments the step counter after a completed step.
func (s *Session) AdvanceStep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step++
	s.Updated = time.Now().UTC()
}

// AddHandle records a remote-side observation handle for release at teardown.
func (s *Session) AddHandle(handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles = append(s.handles, handle)
	s.Updated = time.Now().UTC()
}

// Handles returns a copy of the accumulated handle list.
func (s *Session) Handles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.handles))
	copy(out, s.handles)
	return out
}

// SetThread records (or replaces) the remote conversation handle.
func (s *Session) SetThread(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ThreadID = id
	s.Updated = time.Now().UTC()
}

// Thread returns the current remote conversation handle.
func (s *Session) Thread() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ThreadID
}

// SessionStore persists sessions for the lifetime of the process. DeskMesh
// runs one active session at a time but retains finished sessions for
// inspection until the store is cleared.
type SessionStore interface {
	Create(id, goal string) (*Session, error)
	Get(id string) (*Session, error)
	Delete(id string) error
}
