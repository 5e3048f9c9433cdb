package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"wallet-chronicle/internal/storage"
)

// ReportStore writes reports/<wallet>.md and reports/<wallet>_context.md.
type ReportStore struct {
	reportsDir string
}

// NewReportStore creates a file-backed report store.
func NewReportStore(reportsDir string) *ReportStore {
	return &ReportStore{reportsDir: reportsDir}
}

// SaveReport overwrites the final markdown report for a wallet.
func (s *ReportStore) SaveReport(_ context.Context, wallet string, markdown string) error {
	if wallet == "" {
		return storage.ErrInvalidInput
	}
	path := filepath.Join(s.reportsDir, walletName(wallet)+".md")
	return writeFileAtomic(path, []byte(markdown))
}

// SaveContext overwrites the last compressed-context artifact.
func (s *ReportStore) SaveContext(_ context.Context, wallet string, text string) error {
	if wallet == "" {
		return storage.ErrInvalidInput
	}
	path := filepath.Join(s.reportsDir, walletName(wallet)+"_context.md")
	return writeFileAtomic(path, []byte(text))
}

// Report returns the stored markdown report for a wallet.
func (s *ReportStore) Report(_ context.Context, wallet string) (string, error) {
	if wallet == "" {
		return "", storage.ErrInvalidInput
	}
	path := filepath.Join(s.reportsDir, walletName(wallet)+".md")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}
	return string(data), nil
}

var _ storage.ReportStore = (*ReportStore)(nil)
