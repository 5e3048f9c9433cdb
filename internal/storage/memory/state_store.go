package memory

import (
	"context"
	"strings"
	"sync"

	"wallet-chronicle/internal/domain"
	"wallet-chronicle/internal/storage"
)

// StateStore is an in-memory implementation of storage.StateStore.
type StateStore struct {
	mu     sync.RWMutex
	states map[string]*domain.AnalysisState
}

// NewStateStore creates an empty in-memory state store.
func NewStateStore() *StateStore {
	return &StateStore{
		states: make(map[string]*domain.AnalysisState),
	}
}

// LoadState retrieves the saved checkpoint for a wallet.
func (s *StateStore) LoadState(_ context.Context, wallet string) (*domain.AnalysisState, error) {
	if wallet == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[strings.ToLower(wallet)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return state.Clone(), nil
}

// SaveState overwrites the checkpoint for a wallet.
func (s *StateStore) SaveState(_ context.Context, wallet string, state *domain.AnalysisState) error {
	if wallet == "" || state == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[strings.ToLower(wallet)] = state.Clone()
	return nil
}

var _ storage.StateStore = (*StateStore)(nil)
