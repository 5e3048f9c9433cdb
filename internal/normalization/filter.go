// Package normalization filters noise out of a raw transaction list and
// renders each transaction as a single human-readable line for model
// consumption. All functions are pure.
package normalization

import (
	"math"

	"wallet-chronicle/internal/domain"
)

// USDValue computes the primary USD value of a transaction, per variant:
// max of the two legs for swaps, sum of the two legs for LP operations,
// the single amount for lending, wrap, bridge and transfers. NFT
// transfers return +Inf so they survive any dust threshold.
func USDValue(tx domain.Transaction) float64 {
	switch {
	case tx.Swap != nil:
		return math.Max(tx.Swap.Token0AmountUSD, tx.Swap.Token1AmountUSD)
	case tx.LP != nil:
		return tx.LP.Token0AmountUSD + tx.LP.Token1AmountUSD
	case tx.Lending != nil:
		return tx.Lending.AmountUSD
	case tx.Wrap != nil:
		return tx.Wrap.AmountUSD
	case tx.Bridge != nil:
		return tx.Bridge.AmountUSD
	case tx.Transfer != nil:
		return tx.Transfer.AmountUSD
	case tx.NFTTransfer != nil:
		return math.Inf(1)
	}
	return 0
}

// Filter drops pure contract interactions and any transaction whose
// primary USD value falls below dustThresholdUSD. Order is preserved.
func Filter(txs []domain.Transaction, dustThresholdUSD float64) []domain.Transaction {
	filtered := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Type == domain.TxTypeContractInteraction {
			continue
		}
		if USDValue(tx) < dustThresholdUSD {
			continue
		}
		filtered = append(filtered, tx)
	}
	return filtered
}
