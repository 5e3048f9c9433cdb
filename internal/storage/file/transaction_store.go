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

// TransactionStore reads wallet histories from data/<wallet>.json files
// produced by the collector.
type TransactionStore struct {
	dataDir string
}

// NewTransactionStore creates a file-backed transaction store.
func NewTransactionStore(dataDir string) *TransactionStore {
	return &TransactionStore{dataDir: dataDir}
}

// walletFile is the collector's per-wallet JSON envelope.
type walletFile struct {
	Transactions []txRecord `json:"transactions"`
}

// txRecord is the flat collector record. Fields of every transaction
// variant share one namespace; which ones are meaningful depends on
// tx_type.
type txRecord struct {
	ID              string `json:"id"`
	TxHash          string `json:"tx_hash"`
	Hash            string `json:"hash"`
	TransactionHash string `json:"transaction_hash"`

	Timestamp int64  `json:"timestamp"`
	Chain     string `json:"chain"`
	TxType    string `json:"tx_type"`

	// swap and lp legs
	Token0Symbol    string  `json:"token0_symbol"`
	Token0Amount    float64 `json:"token0_amount"`
	Token0AmountUSD float64 `json:"token0_amount_usd"`
	Token1Symbol    string  `json:"token1_symbol"`
	Token1Amount    float64 `json:"token1_amount"`
	Token1AmountUSD float64 `json:"token1_amount_usd"`
	DEX             string  `json:"dex"`

	// lending and wrap
	Action       string  `json:"action"`
	Symbol       string  `json:"symbol"`
	Amount       float64 `json:"amount"`
	AmountUSD    float64 `json:"amount_usd"`
	Platform     string  `json:"platform"`
	HealthFactor float64 `json:"health_factor"`

	// transfers; token_* are older collector aliases
	TokenSymbol    string  `json:"token_symbol"`
	TokenAmount    float64 `json:"token_amount"`
	TokenAmountUSD float64 `json:"token_amount_usd"`
	From           string  `json:"from"`
	To             string  `json:"to"`
	FromLabel      string  `json:"from_label"`
	ToLabel        string  `json:"to_label"`

	// lp
	Type       string   `json:"type"`
	LowerBound *float64 `json:"lower_bound"`
	UpperBound *float64 `json:"upper_bound"`

	// bridge
	FromChain string `json:"from_chain"`
	ToChain   string `json:"to_chain"`

	// nft_transfer
	NFTName    string `json:"nft_name"`
	NFTTokenID string `json:"nft_token_id"`
}

// LoadTransactions retrieves the full history for a wallet.
func (s *TransactionStore) LoadTransactions(_ context.Context, wallet string) ([]domain.Transaction, error) {
	if wallet == "" {
		return nil, storage.ErrInvalidInput
	}

	path := filepath.Join(s.dataDir, walletName(wallet)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var wf walletFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	txs := make([]domain.Transaction, len(wf.Transactions))
	for i, rec := range wf.Transactions {
		txs[i] = rec.toDomain()
	}
	return txs, nil
}

// toDomain converts the flat record into the typed transaction,
// populating only the detail variant matching tx_type.
func (r txRecord) toDomain() domain.Transaction {
	tx := domain.Transaction{
		NativeID:  r.nativeID(),
		Timestamp: r.Timestamp,
		Chain:     r.Chain,
		Type:      domain.TxType(r.TxType),
	}

	switch tx.Type {
	case domain.TxTypeSwap:
		tx.Swap = &domain.SwapDetails{
			Token0Symbol:    r.Token0Symbol,
			Token0Amount:    r.Token0Amount,
			Token0AmountUSD: r.Token0AmountUSD,
			Token1Symbol:    r.Token1Symbol,
			Token1Amount:    r.Token1Amount,
			Token1AmountUSD: r.Token1AmountUSD,
			DEX:             r.DEX,
		}
	case domain.TxTypeLending:
		tx.Lending = &domain.LendingDetails{
			Action:       r.Action,
			Symbol:       r.Symbol,
			Amount:       r.Amount,
			AmountUSD:    r.AmountUSD,
			Platform:     r.Platform,
			HealthFactor: r.HealthFactor,
		}
	case domain.TxTypeTransfer:
		tx.Transfer = &domain.TransferDetails{
			Symbol:    firstNonEmpty(r.Symbol, r.TokenSymbol),
			Amount:    firstNonZero(r.Amount, r.TokenAmount),
			AmountUSD: firstNonZero(r.AmountUSD, r.TokenAmountUSD),
			From:      r.From,
			To:        r.To,
			FromLabel: r.FromLabel,
			ToLabel:   r.ToLabel,
		}
	case domain.TxTypeLP:
		tx.LP = &domain.LPDetails{
			Kind:            r.Type,
			Token0Symbol:    r.Token0Symbol,
			Token0Amount:    r.Token0Amount,
			Token0AmountUSD: r.Token0AmountUSD,
			Token1Symbol:    r.Token1Symbol,
			Token1Amount:    r.Token1Amount,
			Token1AmountUSD: r.Token1AmountUSD,
			DEX:             r.DEX,
			LowerBound:      r.LowerBound,
			UpperBound:      r.UpperBound,
		}
	case domain.TxTypeBridge:
		tx.Bridge = &domain.BridgeDetails{
			TokenSymbol: r.TokenSymbol,
			Amount:      r.Amount,
			AmountUSD:   r.AmountUSD,
			FromChain:   r.FromChain,
			ToChain:     r.ToChain,
			Platform:    r.Platform,
		}
	case domain.TxTypeWrap:
		tx.Wrap = &domain.WrapDetails{
			Action:    r.Action,
			Amount:    r.Amount,
			Symbol:    r.Symbol,
			AmountUSD: r.AmountUSD,
		}
	case domain.TxTypeNFTTransfer:
		tx.NFTTransfer = &domain.NFTTransferDetails{
			Name:      r.NFTName,
			TokenID:   r.NFTTokenID,
			FromLabel: r.FromLabel,
			ToLabel:   r.ToLabel,
		}
	}

	return tx
}

func (r txRecord) nativeID() string {
	for _, id := range []string{r.ID, r.TxHash, r.Hash, r.TransactionHash} {
		if id != "" {
			return id
		}
	}
	return ""
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstNonZero(a, b float64) float64 {
	if a != 0 {
		return a
	}
	return b
}

var _ storage.TransactionStore = (*TransactionStore)(nil)
