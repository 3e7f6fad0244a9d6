// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Solve sessions live here between requests; nothing is written to disk.
//
// Characteristics:
//   - Stores *solve.Session objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.
//   - Get and Delete return ErrNotFound for unknown IDs.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/robalobadob/bogglefinder/internal/solve"
)

// ErrNotFound is returned for an unknown session ID.
var ErrNotFound = errors.New("store: session not found")

// Store defines the persistence interface for solve sessions.
type Store interface {
	// Save persists or replaces a session.
	Save(ctx context.Context, s *solve.Session) error

	// Get retrieves a session by ID.
	Get(ctx context.Context, id string) (*solve.Session, error)

	// Delete drops a session. This is how a board is cleared.
	Delete(ctx context.Context, id string) error
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex              // guards sessions
	sessions map[string]*solve.Session // keyed by Session.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*solve.Session)}
}

func (m *memory) Save(ctx context.Context, s *solve.Session) error {
	if s == nil || s.ID == "" {
		return errors.New("store: session without id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*solve.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}
