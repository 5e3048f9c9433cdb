// Package file implements the storage interfaces on top of the flat
// data-directory layout used by the collector tooling:
//
//	data/<wallet>.json             transaction history
//	reports/<wallet>_state.json    analysis checkpoint
//	reports/<wallet>.md            rendered report
//	reports/<wallet>_context.md    last prompt-context artifact
//
// Wallet addresses are lowercased for file lookup.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func walletName(wallet string) string {
	return strings.ToLower(wallet)
}

// writeFileAtomic writes via a temp file and rename so a crash mid-write
// never leaves a truncated checkpoint behind.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
