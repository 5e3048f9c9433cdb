package postgres

import (
	"context"
	"strings"

	"wallet-chronicle/internal/storage"
)

// ReportStore is a PostgreSQL implementation of storage.ReportStore.
// Report and context live in one row per wallet and are updated
// independently.
type ReportStore struct {
	pool *Pool
}

// NewReportStore creates a new PostgreSQL report store.
func NewReportStore(pool *Pool) *ReportStore {
	return &ReportStore{pool: pool}
}

// SaveReport overwrites the final markdown report for a wallet.
func (s *ReportStore) SaveReport(ctx context.Context, wallet string, markdown string) error {
	if wallet == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO reports (wallet, report, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (wallet) DO UPDATE
		SET report = EXCLUDED.report,
		    updated_at = NOW()
	`, strings.ToLower(wallet), markdown)

	return err
}

// SaveContext overwrites the last compressed-context artifact.
func (s *ReportStore) SaveContext(ctx context.Context, wallet string, text string) error {
	if wallet == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO reports (wallet, context, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (wallet) DO UPDATE
		SET context = EXCLUDED.context,
		    updated_at = NOW()
	`, strings.ToLower(wallet), text)

	return err
}

// Report returns the stored report for a wallet, or storage.ErrNotFound.
func (s *ReportStore) Report(ctx context.Context, wallet string) (string, error) {
	if wallet == "" {
		return "", storage.ErrInvalidInput
	}

	row := s.pool.QueryRow(ctx, `
		SELECT COALESCE(report, '')
		FROM reports
		WHERE wallet = $1
	`, strings.ToLower(wallet))

	var report string
	if err := row.Scan(&report); err != nil {
		if isNotFoundError(err) {
			return "", storage.ErrNotFound
		}
		return "", err
	}
	return report, nil
}

var _ storage.ReportStore = (*ReportStore)(nil)
