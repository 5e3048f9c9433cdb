package memory

import (
	"context"
	"strings"
	"sync"

	"wallet-chronicle/internal/storage"
)

// ReportStore is an in-memory implementation of storage.ReportStore.
type ReportStore struct {
	mu       sync.RWMutex
	reports  map[string]string
	contexts map[string]string
}

// NewReportStore creates an empty in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{
		reports:  make(map[string]string),
		contexts: make(map[string]string),
	}
}

// SaveReport overwrites the final markdown report for a wallet.
func (s *ReportStore) SaveReport(_ context.Context, wallet string, markdown string) error {
	if wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports[strings.ToLower(wallet)] = markdown
	return nil
}

// SaveContext overwrites the last compressed-context artifact.
func (s *ReportStore) SaveContext(_ context.Context, wallet string, text string) error {
	if wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.contexts[strings.ToLower(wallet)] = text
	return nil
}

// Report returns the last saved report for a wallet.
func (s *ReportStore) Report(wallet string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[strings.ToLower(wallet)]
	return r, ok
}

// Context returns the last saved context artifact for a wallet.
func (s *ReportStore) Context(wallet string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contexts[strings.ToLower(wallet)]
	return c, ok
}

var _ storage.ReportStore = (*ReportStore)(nil)
