// Package session persists the client-side session (access token, refresh token, user).
//
// The three entries are always written and cleared together. The stored session is
// advisory: nothing here checks expiry, validity is discovered by the next API call.
package session

import (
	"context"
	"sync"

	"github.com/and161185/homeservices/internal/model"
)

// Store holds the process-wide session. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the stored session; an empty session when nothing is stored.
	Get(ctx context.Context) (model.Session, error)
	// Set replaces all entries as a group.
	Set(ctx context.Context, s model.Session) error
	// Clear removes all entries as a group.
	Clear(ctx context.Context) error
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu sync.RWMutex
	s  model.Session
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Get(context.Context) (model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.s), nil
}

func (m *MemoryStore) Set(_ context.Context, s model.Session) error {
	m.mu.Lock()
	m.s = clone(s)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	m.s = model.Session{}
	m.mu.Unlock()
	return nil
}

// clone copies the user so callers never share a pointer with the store.
func clone(s model.Session) model.Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
