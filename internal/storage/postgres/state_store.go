package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"wallet-chronicle/internal/domain"
	"wallet-chronicle/internal/storage"
)

// StateStore is a PostgreSQL implementation of storage.StateStore. The
// whole checkpoint is stored as one JSONB value per wallet; it is always
// read and written atomically, so there is nothing to gain from
// normalizing it into columns.
type StateStore struct {
	pool *Pool
}

// NewStateStore creates a new PostgreSQL state store.
func NewStateStore(pool *Pool) *StateStore {
	return &StateStore{pool: pool}
}

// LoadState retrieves the saved checkpoint for a wallet.
func (s *StateStore) LoadState(ctx context.Context, wallet string) (*domain.AnalysisState, error) {
	if wallet == "" {
		return nil, storage.ErrInvalidInput
	}

	row := s.pool.QueryRow(ctx, `
		SELECT state
		FROM analysis_states
		WHERE wallet = $1
	`, strings.ToLower(wallet))

	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var state domain.AnalysisState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse state for %s: %w", wallet, err)
	}
	state.Normalize()
	return &state, nil
}

// SaveState overwrites the checkpoint for a wallet.
func (s *StateStore) SaveState(ctx context.Context, wallet string, state *domain.AnalysisState) error {
	if wallet == "" || state == nil {
		return storage.ErrInvalidInput
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO analysis_states (wallet, state, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (wallet) DO UPDATE
		SET state = EXCLUDED.state,
		    updated_at = NOW()
	`, strings.ToLower(wallet), data)

	return err
}

var _ storage.StateStore = (*StateStore)(nil)
