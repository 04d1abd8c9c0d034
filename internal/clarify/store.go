// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clarify

import (
	"context"
	"sync"
)

// Store persists at most one pending clarification per session. A Put
// overwrites any previous record for the session; Get on a session with
// no record reports ok false.
type Store interface {
	Get(ctx context.Context, session string) (Pending, bool, error)
	Put(ctx context.Context, session string, p Pending) error
	Clear(ctx context.Context, session string) error
}

// MemoryStore keeps pending clarifications in process memory. Suitable
// for one-shot CLI runs and tests; state does not survive the process.
type MemoryStore struct {
	mu      sync.RWMutex
	pending map[string]Pending
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pending: make(map[string]Pending)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, session string) (Pending, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pending[session]
	return p, ok, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, session string, p Pending) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[session] = p
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, session)
	return nil
}
