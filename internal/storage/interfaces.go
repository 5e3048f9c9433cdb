package storage

import (
	"context"

	"wallet-chronicle/internal/domain"
)

// TransactionStore provides read access to a wallet's persisted
// transaction history.
type TransactionStore interface {
	// LoadTransactions retrieves the full history for a wallet.
	// Returns ErrNotFound if no history exists for the wallet.
	LoadTransactions(ctx context.Context, wallet string) ([]domain.Transaction, error)
}

// StateStore persists the resumable analysis checkpoint per wallet.
type StateStore interface {
	// LoadState retrieves the saved checkpoint for a wallet.
	// Returns ErrNotFound if the wallet has never been analyzed.
	LoadState(ctx context.Context, wallet string) (*domain.AnalysisState, error)

	// SaveState overwrites the checkpoint for a wallet.
	SaveState(ctx context.Context, wallet string, state *domain.AnalysisState) error
}

// ReportStore persists the rendered narrative and its prompt-context
// artifact.
type ReportStore interface {
	// SaveReport overwrites the final markdown report for a wallet.
	SaveReport(ctx context.Context, wallet string, markdown string) error

	// SaveContext overwrites the last compressed-context artifact for a
	// wallet. Diagnostic output; a failed save must not fail the run.
	SaveContext(ctx context.Context, wallet string, text string) error
}
