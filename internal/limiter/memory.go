package limiter

import (
	"context"
	"encoding/hex"
	"sync"
	"time"
)

type entry struct {
	fails        int
	updatedAt    time.Time
	blockedUntil time.Time
}

// Memory is a process-local limiter with sliding window and lockout.
type Memory struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

var _ Limiter = (*Memory)(nil)

// NewMemory constructs an in-memory limiter.
func NewMemory(cfg Config) *Memory {
	return &Memory{cfg: cfg.withDefaults(), now: time.Now, entries: map[string]*entry{}}
}

func key(email string, ipHash []byte) string {
	return email + "|" + hex.EncodeToString(ipHash)
}

func (m *Memory) Allow(_ context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[key(email, ipHash)]
	if e == nil {
		return true, 0, nil
	}
	if left := e.blockedUntil.Sub(m.now()); left > 0 {
		return false, left, nil
	}
	return true, 0, nil
}

func (m *Memory) Success(_ context.Context, email string, ipHash []byte) error {
	m.mu.Lock()
	delete(m.entries, key(email, ipHash))
	m.mu.Unlock()
	return nil
}

func (m *Memory) Failure(_ context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	k := key(email, ipHash)
	e := m.entries[k]
	if e == nil {
		e = &entry{}
		m.entries[k] = e
	}
	if now.Sub(e.updatedAt) > m.cfg.Window {
		e.fails = 0
	}
	e.fails++
	e.updatedAt = now
	if e.fails >= m.cfg.MaxFails {
		e.blockedUntil = now.Add(m.cfg.BlockFor)
		return true, m.cfg.BlockFor, nil
	}
	return false, 0, nil
}
