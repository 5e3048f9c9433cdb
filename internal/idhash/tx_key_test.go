package idhash

import (
	"testing"

	"wallet-chronicle/internal/domain"
)

func TestComputeTxKey_NativeID(t *testing.T) {
	tx := domain.Transaction{
		NativeID:  "0xabc123",
		Timestamp: 1700000000,
		Chain:     "eth",
		Type:      domain.TxTypeSwap,
		Swap:      &domain.SwapDetails{Token0Symbol: "USDC", Token0Amount: 100},
	}

	if got := ComputeTxKey(tx); got != "0xabc123" {
		t.Errorf("ComputeTxKey() = %q, want native id", got)
	}
}

func TestComputeTxKey_Composite(t *testing.T) {
	tx := domain.Transaction{
		Timestamp: 1700000000,
		Chain:     "arb",
		Type:      domain.TxTypeTransfer,
		Transfer:  &domain.TransferDetails{Symbol: "ETH", Amount: 1.5},
	}

	want := "1700000000|arb|transfer|1.5|ETH"
	if got := ComputeTxKey(tx); got != want {
		t.Errorf("ComputeTxKey() = %q, want %q", got, want)
	}

	// Determinism across repeated calls
	if got2 := ComputeTxKey(tx); got2 != ComputeTxKey(tx) {
		t.Errorf("ComputeTxKey() not deterministic: %q != %q", got2, ComputeTxKey(tx))
	}
}

func TestComputeTxKey_CompositeCollision(t *testing.T) {
	// Two distinct transactions without native ids but identical core
	// fields produce the same key. This is an accepted silent merge,
	// not a bug.
	a := domain.Transaction{
		Timestamp: 1700000000,
		Chain:     "eth",
		Type:      domain.TxTypeSwap,
		Swap:      &domain.SwapDetails{Token0Symbol: "USDC", Token0Amount: 500, Token1Symbol: "ETH"},
	}
	b := domain.Transaction{
		Timestamp: 1700000000,
		Chain:     "eth",
		Type:      domain.TxTypeSwap,
		Swap:      &domain.SwapDetails{Token0Symbol: "USDC", Token0Amount: 500, Token1Symbol: "WBTC"},
	}

	if ComputeTxKey(a) != ComputeTxKey(b) {
		t.Errorf("expected composite collision, got %q vs %q", ComputeTxKey(a), ComputeTxKey(b))
	}
}

func TestComputeTxKey_NoAmountVariant(t *testing.T) {
	tx := domain.Transaction{
		Timestamp:   1700000000,
		Chain:       "eth",
		Type:        domain.TxTypeNFTTransfer,
		NFTTransfer: &domain.NFTTransferDetails{Name: "Punk", TokenID: "42"},
	}

	want := "1700000000|eth|nft_transfer||"
	if got := ComputeTxKey(tx); got != want {
		t.Errorf("ComputeTxKey() = %q, want %q", got, want)
	}
}

func TestContentHash(t *testing.T) {
	lines := []string{"2024-01-01: swapped stables", "2024-01-02: bridged to arbitrum"}

	h1 := ContentHash(lines)
	h2 := ContentHash(lines)
	if h1 != h2 {
		t.Errorf("ContentHash() not deterministic: %q != %q", h1, h2)
	}
	if len(h1) != 12 {
		t.Errorf("ContentHash() length = %d, want 12", len(h1))
	}

	// A single-character edit changes the key
	edited := []string{"2024-01-01: swapped stables", "2024-01-02: bridged to arbitruM"}
	if ContentHash(edited) == h1 {
		t.Error("ContentHash() unchanged after content edit")
	}

	// Order matters
	swapped := []string{lines[1], lines[0]}
	if ContentHash(swapped) == h1 {
		t.Error("ContentHash() unchanged after reordering")
	}
}
