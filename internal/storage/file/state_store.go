package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"wallet-chronicle/internal/domain"
	"wallet-chronicle/internal/storage"
)

// StateStore persists checkpoints as reports/<wallet>_state.json.
type StateStore struct {
	reportsDir string
}

// NewStateStore creates a file-backed state store.
func NewStateStore(reportsDir string) *StateStore {
	return &StateStore{reportsDir: reportsDir}
}

func (s *StateStore) statePath(wallet string) string {
	return filepath.Join(s.reportsDir, walletName(wallet)+"_state.json")
}

// LoadState retrieves the saved checkpoint for a wallet. State written by
// older pipeline versions is normalized on load.
func (s *StateStore) LoadState(_ context.Context, wallet string) (*domain.AnalysisState, error) {
	if wallet == "" {
		return nil, storage.ErrInvalidInput
	}

	path := s.statePath(wallet)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var state domain.AnalysisState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	state.Normalize()
	return &state, nil
}

// SaveState overwrites the checkpoint for a wallet.
func (s *StateStore) SaveState(_ context.Context, wallet string, state *domain.AnalysisState) error {
	if wallet == "" || state == nil {
		return storage.ErrInvalidInput
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return writeFileAtomic(s.statePath(wallet), data)
}

var _ storage.StateStore = (*StateStore)(nil)
