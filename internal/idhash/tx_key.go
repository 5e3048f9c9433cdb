// Package idhash derives stable identities for transactions and cache
// entries. Identical inputs must always produce identical outputs across
// runs: incremental processing and compression caching both depend on it.
package idhash

import (
	"strconv"
	"strings"

	"wallet-chronicle/internal/domain"
)

// ComputeTxKey returns a stable identity for a transaction.
// A native id (id / tx_hash / hash / transaction_hash from the source)
// wins when present. Otherwise the key is a composite of
// timestamp|chain|type|amount|symbol.
//
// Composite keys can collide across genuinely distinct transactions that
// share all five fields. Such a collision is treated as a silent merge,
// not an error; callers must not try to strengthen the scheme, because
// stored processed-key sets would stop matching.
func ComputeTxKey(tx domain.Transaction) string {
	if tx.NativeID != "" {
		return tx.NativeID
	}

	amount := ""
	if a, ok := tx.PrimaryAmount(); ok {
		amount = strconv.FormatFloat(a, 'f', -1, 64)
	}

	parts := []string{
		strconv.FormatInt(tx.Timestamp, 10),
		tx.Chain,
		string(tx.Type),
		amount,
		tx.PrimarySymbol(),
	}
	return strings.Join(parts, "|")
}
