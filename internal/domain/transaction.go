package domain

// TxType identifies the transaction variant.
type TxType string

// Transaction type constants
const (
	TxTypeSwap                TxType = "swap"
	TxTypeLending             TxType = "lending"
	TxTypeTransfer            TxType = "transfer"
	TxTypeLP                  TxType = "lp"
	TxTypeBridge              TxType = "bridge"
	TxTypeWrap                TxType = "wrap"
	TxTypeNFTTransfer         TxType = "nft_transfer"
	TxTypeContractInteraction TxType = "contract_interaction"
	TxTypeOther               TxType = "other"
)

// Transaction is one event from a wallet's history. Exactly one detail
// pointer matching Type is set; unrecognized types carry no details and
// render through the generic fallback.
// Transactions are read-only inputs: the pipeline never mutates them.
type Transaction struct {
	// NativeID is the first available of the source's id / tx_hash /
	// hash / transaction_hash fields, empty when the source had none.
	NativeID  string
	Timestamp int64 // Unix timestamp in seconds (UTC)
	Chain     string
	Type      TxType

	Swap        *SwapDetails
	Lending     *LendingDetails
	Transfer    *TransferDetails
	LP          *LPDetails
	Bridge      *BridgeDetails
	Wrap        *WrapDetails
	NFTTransfer *NFTTransferDetails
}

// SwapDetails describes a DEX token swap.
type SwapDetails struct {
	Token0Symbol    string
	Token0Amount    float64
	Token0AmountUSD float64
	Token1Symbol    string
	Token1Amount    float64
	Token1AmountUSD float64
	DEX             string
}

// LendingDetails describes a lending-protocol operation (deposit,
// withdraw, borrow, repay).
type LendingDetails struct {
	Action       string
	Symbol       string
	Amount       float64
	AmountUSD    float64
	Platform     string
	HealthFactor float64 // 0 when unknown
}

// TransferDetails describes a plain token transfer.
type TransferDetails struct {
	Symbol    string
	Amount    float64
	AmountUSD float64
	From      string
	To        string
	FromLabel string
	ToLabel   string
}

// LPDetails describes a liquidity-pool add or remove.
type LPDetails struct {
	Kind            string // "add" | "remove"
	Token0Symbol    string
	Token0Amount    float64
	Token0AmountUSD float64
	Token1Symbol    string
	Token1Amount    float64
	Token1AmountUSD float64
	DEX             string
	LowerBound      *float64 // concentrated-liquidity range, optional
	UpperBound      *float64
}

// BridgeDetails describes a cross-chain bridge transfer.
type BridgeDetails struct {
	TokenSymbol string
	Amount      float64
	AmountUSD   float64
	FromChain   string
	ToChain     string
	Platform    string
}

// WrapDetails describes a wrap/unwrap of a native token.
type WrapDetails struct {
	Action    string // "wrap" | "unwrap"
	Amount    float64
	Symbol    string
	AmountUSD float64
}

// NFTTransferDetails describes an NFT transfer.
type NFTTransferDetails struct {
	Name      string
	TokenID   string
	FromLabel string
	ToLabel   string
}

// PrimaryAmount returns the variant's leading amount, used for composite
// key derivation when no native id is present. The second return is false
// for variants that carry no amount (NFT transfers, unknown types).
func (t Transaction) PrimaryAmount() (float64, bool) {
	switch {
	case t.Swap != nil:
		return t.Swap.Token0Amount, true
	case t.LP != nil:
		return t.LP.Token0Amount, true
	case t.Lending != nil:
		return t.Lending.Amount, true
	case t.Transfer != nil:
		return t.Transfer.Amount, true
	case t.Bridge != nil:
		return t.Bridge.Amount, true
	case t.Wrap != nil:
		return t.Wrap.Amount, true
	}
	return 0, false
}

// PrimarySymbol returns the variant's leading token symbol, used for
// composite key derivation when no native id is present.
func (t Transaction) PrimarySymbol() string {
	switch {
	case t.Swap != nil:
		return t.Swap.Token0Symbol
	case t.LP != nil:
		return t.LP.Token0Symbol
	case t.Lending != nil:
		return t.Lending.Symbol
	case t.Transfer != nil:
		return t.Transfer.Symbol
	case t.Bridge != nil:
		return t.Bridge.TokenSymbol
	case t.Wrap != nil:
		return t.Wrap.Symbol
	}
	return ""
}
