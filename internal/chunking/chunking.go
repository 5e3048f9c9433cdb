// Package chunking groups transactions by UTC calendar day and splits the
// day groups into model-sized chunks.
package chunking

import (
	"sort"

	"wallet-chronicle/internal/domain"
	"wallet-chronicle/internal/normalization"
)

// DayGroup is one calendar day's transactions, in ascending timestamp
// order.
type DayGroup struct {
	Day string // YYYY-MM-DD (UTC)
	Txs []domain.Transaction
}

// Chunk is a contiguous run of whole day groups whose total transaction
// count is bounded by the batcher limit, except a single day that alone
// exceeds it.
type Chunk []DayGroup

// TxCount returns the total number of transactions in the chunk.
func (c Chunk) TxCount() int {
	n := 0
	for _, dg := range c {
		n += len(dg.Txs)
	}
	return n
}

// DayRange renders the chunk's day span as "first" or "first — last".
func (c Chunk) DayRange() string {
	if len(c) == 0 {
		return ""
	}
	if len(c) == 1 {
		return c[0].Day
	}
	return c[0].Day + " — " + c[len(c)-1].Day
}

// GroupByDays sorts transactions ascending by timestamp (stable, so
// intra-second source order is preserved) and partitions them by UTC
// calendar day. The returned groups are in ascending day order and each
// day appears at most once.
func GroupByDays(txs []domain.Transaction) []DayGroup {
	sorted := make([]domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	var groups []DayGroup
	for _, tx := range sorted {
		day := normalization.TimestampDate(tx.Timestamp)
		if n := len(groups); n > 0 && groups[n-1].Day == day {
			groups[n-1].Txs = append(groups[n-1].Txs, tx)
			continue
		}
		groups = append(groups, DayGroup{Day: day, Txs: []domain.Transaction{tx}})
	}
	return groups
}

// DayTxCounts returns the per-day transaction counts of the given day
// groups. The optimized context window consumes this over the full
// filtered history, not just the current batch.
func DayTxCounts(groups []DayGroup) map[string]int {
	counts := make(map[string]int, len(groups))
	for _, dg := range groups {
		counts[dg.Day] = len(dg.Txs)
	}
	return counts
}

// MakeChunks splits day groups into chunks of at most maxTx transactions
// by greedy left-to-right accumulation. Whole days are never split: a day
// that alone exceeds the limit becomes its own oversized chunk. No empty
// chunk is ever emitted, and concatenating all chunks reproduces the
// input day groups exactly once each, in order.
func MakeChunks(groups []DayGroup, maxTx int) []Chunk {
	var chunks []Chunk
	var current Chunk
	count := 0

	for _, dg := range groups {
		if count+len(dg.Txs) > maxTx && count > 0 {
			chunks = append(chunks, current)
			current = nil
			count = 0
		}
		current = append(current, dg)
		count += len(dg.Txs)
	}

	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}
