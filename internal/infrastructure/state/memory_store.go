package state

import (
	"context"
	"sync"
	"time"

	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/ports"
)

// MemoryStore keeps OAuth states in process. Expired states are dropped
// lazily on Put.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]domain.OAuthState
	now    func() time.Time
}

var _ ports.OAuthStateStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory state store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]domain.OAuthState),
		now:    time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, st *domain.OAuthState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, v := range s.states {
		if now.After(v.ExpiresAt) {
			delete(s.states, k)
		}
	}
	s.states[st.State] = *st
	return nil
}

func (s *MemoryStore) Take(_ context.Context, state string) (*domain.OAuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[state]
	if !ok {
		return nil, nil
	}
	delete(s.states, state)
	if s.now().After(st.ExpiresAt) {
		return nil, nil
	}
	return &st, nil
}
