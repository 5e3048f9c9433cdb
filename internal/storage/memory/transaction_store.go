package memory

import (
	"context"
	"strings"
	"sync"

	"wallet-chronicle/internal/domain"
	"wallet-chronicle/internal/storage"
)

// TransactionStore is an in-memory implementation of
// storage.TransactionStore, seeded directly by tests and tooling.
type TransactionStore struct {
	mu      sync.RWMutex
	history map[string][]domain.Transaction
}

// NewTransactionStore creates an empty in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		history: make(map[string][]domain.Transaction),
	}
}

// Seed replaces the stored history for a wallet.
func (s *TransactionStore) Seed(wallet string, txs []domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := make([]domain.Transaction, len(txs))
	copy(owned, txs)
	s.history[strings.ToLower(wallet)] = owned
}

// LoadTransactions retrieves the full history for a wallet.
func (s *TransactionStore) LoadTransactions(_ context.Context, wallet string) ([]domain.Transaction, error) {
	if wallet == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	txs, ok := s.history[strings.ToLower(wallet)]
	if !ok {
		return nil, storage.ErrNotFound
	}

	out := make([]domain.Transaction, len(txs))
	copy(out, txs)
	return out, nil
}

var _ storage.TransactionStore = (*TransactionStore)(nil)
