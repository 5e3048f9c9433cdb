// Package analyzer drives the whole pipeline for one wallet: load and
// filter the history, select the transactions that still need narrating,
// batch them, and run the per-chunk loop of context building, LLM
// narration, overlap merging and checkpointing.
//
// The checkpoint written after every chunk makes a run resumable: if the
// process dies mid-batch, the next run re-selects exactly the pending
// transactions and continues from the recorded chunk index, producing the
// same report the uninterrupted run would have.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"wallet-chronicle/internal/chronology"
	"wallet-chronicle/internal/chunking"
	"wallet-chronicle/internal/compression"
	"wallet-chronicle/internal/config"
	"wallet-chronicle/internal/domain"
	"wallet-chronicle/internal/idhash"
	"wallet-chronicle/internal/llm"
	"wallet-chronicle/internal/merge"
	"wallet-chronicle/internal/normalization"
	"wallet-chronicle/internal/observability"
	"wallet-chronicle/internal/storage"
)

const systemPrompt = `You are a DeFi transaction analyst. Your task is to describe what a crypto wallet's owner was doing, based on the list of their transactions.

Rules:
- Write the chronology day by day. Each day gets its own header (### YYYY-MM-DD).
- Describe actions in human terms: "borrowed", "repaid debt", "swapped", "added liquidity", "withdrew from the pool", "transferred to another address", "bridged to another chain" and so on.
- Mention amounts, tokens, platforms and chains.
- When several operations form a logical sequence (for example: borrow, swap, repay debt on another platform), explain the overall intent.
- Use the prior-activity context (when present) to understand the broader strategy.
- After describing each day, ALWAYS add a line "**Day summary:** ..." with one sentence capturing the day's main action or goal, including the key dollar amounts.
- Right after the day-summary line, add an importance score line "**Importance: N**", where N is 1 to 5:
  - 1 = routine: gas top-ups, dust transfers, minor upkeep
  - 2 = ordinary: standard swaps, regular transfers
  - 3 = notable: interesting trades, significant amounts, new platforms
  - 4 = important: large operations, visible profit or loss, complex strategies
  - 5 = pivotal: major operations, strategy changes, exceptional profit or loss
- Do not invent anything that is not in the data.`

// userPromptSuffix closes the per-chunk prompt after the transaction list.
const userPromptSuffix = "Describe the user's actions chronologically, day by day."

// ProgressFunc receives per-chunk progress: the 1-based chunk number, the
// total, and the whole-percent completion. It is invoked both before and
// after each narrative call.
type ProgressFunc func(chunk, total, percent int)

// Period optionally bounds the analysis to a date range. To is inclusive
// and extends to the end of its day.
type Period struct {
	From *time.Time
	To   *time.Time
}

func (p Period) filter(txs []domain.Transaction) []domain.Transaction {
	if p.From == nil && p.To == nil {
		return txs
	}

	var cutoff int64
	if p.To != nil {
		day := p.To.UTC().Truncate(24 * time.Hour)
		cutoff = day.Add(23*time.Hour + 59*time.Minute + 59*time.Second).Unix()
	}

	var out []domain.Transaction
	for _, tx := range txs {
		if p.From != nil && tx.Timestamp < p.From.Unix() {
			continue
		}
		if p.To != nil && tx.Timestamp >= cutoff {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// Options configures a Runner. Transactions, States, Reports and LLM are
// required.
type Options struct {
	Transactions storage.TransactionStore
	States       storage.StateStore
	Reports      storage.ReportStore
	LLM          llm.Client

	Config   config.Pipeline
	Metrics  *observability.Metrics
	Progress ProgressFunc
	Logger   *log.Logger
	Verbose  bool
}

// Runner analyzes wallets. Safe to reuse across wallets sequentially; it
// keeps no per-wallet state between calls.
type Runner struct {
	transactions storage.TransactionStore
	states       storage.StateStore
	reports      storage.ReportStore
	llm          llm.Client

	compressor *compression.Compressor
	merger     *merge.Merger

	cfg      config.Pipeline
	metrics  *observability.Metrics
	progress ProgressFunc
	logger   *log.Logger
	verbose  bool
}

// NewRunner creates a Runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Transactions == nil || opts.States == nil || opts.Reports == nil {
		return nil, errors.New("analyzer: all three stores are required")
	}
	if opts.LLM == nil {
		return nil, errors.New("analyzer: LLM client is required")
	}

	r := &Runner{
		transactions: opts.Transactions,
		states:       opts.States,
		reports:      opts.Reports,
		llm:          opts.LLM,
		cfg:          opts.Config,
		metrics:      opts.Metrics,
		progress:     opts.Progress,
		logger:       opts.Logger,
		verbose:      opts.Verbose,
	}

	r.compressor = compression.New(opts.LLM, opts.Config)
	r.merger = merge.New(opts.LLM)
	if opts.Metrics != nil {
		r.compressor.WithMetrics(opts.Metrics)
		r.merger.WithMetrics(opts.Metrics)
	}
	if opts.Logger != nil {
		r.compressor.WithLogger(opts.Logger)
		r.merger.WithLogger(opts.Logger)
	}
	return r, nil
}

// Result summarizes one analysis run.
type Result struct {
	// RawTransactions is the size of the loaded history.
	RawTransactions int
	// FilteredTransactions is the history size after dust and period
	// filtering.
	FilteredTransactions int
	// NewTransactions is the size of the processed batch. Zero when the
	// run found nothing to do.
	NewTransactions int
	// TotalChunks is how many chunks the batch was split into.
	TotalChunks int
	// Resumed is true when the run continued an interrupted batch.
	Resumed bool
	// Migrated is true when a legacy checkpoint was backfilled with
	// transaction keys and no narration was needed.
	Migrated bool
	// Report is the rendered markdown, empty when nothing was generated.
	Report string
}

// Analyze runs the pipeline for one wallet. On an LLM failure the
// checkpoint is saved first, so a later call resumes the batch; the
// failure is still returned.
func (r *Runner) Analyze(ctx context.Context, wallet string, period Period) (*Result, error) {
	start := time.Now()
	res, err := r.analyze(ctx, wallet, period)
	if r.metrics != nil {
		r.metrics.RunDuration.Observe(time.Since(start).Seconds())
		status := "ok"
		if err != nil {
			status = "error"
		}
		r.metrics.RunsTotal.WithLabelValues(status).Inc()
	}
	return res, err
}

func (r *Runner) analyze(ctx context.Context, wallet string, period Period) (*Result, error) {
	raw, err := r.transactions.LoadTransactions(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	txs := normalization.Filter(raw, r.cfg.DustThresholdUSD)
	r.logf("[analyzer] %s: %d transactions, %d after filtering", wallet, len(raw), len(txs))

	txs = period.filter(txs)
	res := &Result{RawTransactions: len(raw), FilteredTransactions: len(txs)}
	if len(raw) == 0 {
		r.logf("[analyzer] %s: no transactions to analyze", wallet)
		return res, nil
	}
	if (period.From != nil || period.To != nil) && len(txs) == 0 {
		r.logf("[analyzer] %s: no transactions in the selected period", wallet)
		return res, nil
	}

	state, err := r.states.LoadState(ctx, wallet)
	if errors.Is(err, storage.ErrNotFound) {
		state = domain.NewAnalysisState()
	} else if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	processedSet := make(map[string]bool, len(state.ProcessedTxKeys))
	for _, k := range state.ProcessedTxKeys {
		processedSet[k] = true
	}
	pendingSet := make(map[string]bool, len(state.PendingTxKeys))
	for _, k := range state.PendingTxKeys {
		pendingSet[k] = true
	}

	startChunk := state.ChunkIndex
	res.Resumed = len(pendingSet) > 0 && startChunk > 0

	var newTxs []domain.Transaction
	if res.Resumed {
		// Re-select exactly the interrupted batch.
		for _, tx := range txs {
			if pendingSet[idhash.ComputeTxKey(tx)] {
				newTxs = append(newTxs, tx)
			}
		}
		r.logf("[analyzer] %s: resuming interrupted batch, %d transactions", wallet, len(newTxs))
	} else {
		for _, tx := range txs {
			if !processedSet[idhash.ComputeTxKey(tx)] {
				newTxs = append(newTxs, tx)
			}
		}
		startChunk = 0

		if len(newTxs) == 0 {
			if len(processedSet) == 0 && len(state.ChronologyParts) > 0 {
				// Checkpoint written by a version without key tracking.
				// Backfill keys from the current history so future runs
				// only pick up genuinely new transactions.
				state.ChunkIndex = 0
				state.ProcessedTxKeys = txKeys(txs)
				state.PendingTxKeys = []string{}
				if err := r.states.SaveState(ctx, wallet, state); err != nil {
					return nil, fmt.Errorf("save migrated state: %w", err)
				}
				r.logf("[analyzer] %s: state migrated, no new transactions", wallet)
				res.Migrated = true
				return res, nil
			}
			r.logf("[analyzer] %s: no new transactions", wallet)
			return res, nil
		}
		r.logf("[analyzer] %s: %d new transactions", wallet, len(newTxs))
	}
	res.NewTransactions = len(newTxs)

	batchKeys := txKeys(newTxs)
	chunks := chunking.MakeChunks(chunking.GroupByDays(newTxs), r.cfg.ChunkMaxTransactions)
	total := len(chunks)
	res.TotalChunks = total
	r.logf("[analyzer] %s: %d chunks", wallet, total)

	// Per-day counts over the full filtered history, not just the batch,
	// so the optimized window sees how busy already-narrated days were.
	dayCounts := chunking.DayTxCounts(chunking.GroupByDays(txs))

	parts := chronology.NewStore(state.ChronologyParts)

	checkpoint := func(nextChunk int, pending []string) error {
		state.ChunkIndex = nextChunk
		state.ChronologyParts = parts.Parts()
		state.PendingTxKeys = pending
		return r.states.SaveState(ctx, wallet, state)
	}

	for i := startChunk; i < total; i++ {
		chunk := chunks[i]
		r.logf("[analyzer] %s: chunk %d/%d (days %s, %d transactions)",
			wallet, i+1, total, chunk.DayRange(), chunk.TxCount())

		contextText := r.compressor.BuildContext(ctx, parts.Parts(), &state.CompressionCache, dayCounts)

		artifact := fmt.Sprintf("# LLM context for chunk %d/%d\n\n%s", i+1, total, contextText)
		if err := r.reports.SaveContext(ctx, wallet, artifact); err != nil {
			r.logf("[analyzer] %s: save context artifact: %v", wallet, err)
		}

		r.report(i+1, total, i*100/total)

		response, err := r.llm.Complete(ctx, llm.Request{
			System:    systemPrompt,
			User:      buildUserPrompt(contextText, chunk),
			Model:     r.cfg.Model,
			MaxTokens: r.cfg.MaxTokens,
		})
		if err != nil {
			if r.metrics != nil {
				r.metrics.LLMErrors.WithLabelValues("narrative").Inc()
			}
			if saveErr := checkpoint(i, batchKeys); saveErr != nil {
				return nil, fmt.Errorf("chunk %d/%d: %v; save checkpoint: %w", i+1, total, err, saveErr)
			}
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, total, err)
		}
		if r.metrics != nil {
			r.metrics.NarrativeCalls.Inc()
		}

		if part := chronology.ParseResponse(response); part != "" {
			if err := r.merger.Integrate(ctx, parts, part); err != nil {
				// Treated like a failed chunk: the checkpoint does not
				// advance, so the next run regenerates this chunk and
				// merges the regenerated part.
				if r.metrics != nil {
					r.metrics.LLMErrors.WithLabelValues("merge").Inc()
				}
				if saveErr := checkpoint(i, batchKeys); saveErr != nil {
					return nil, fmt.Errorf("chunk %d/%d: %v; save checkpoint: %w", i+1, total, err, saveErr)
				}
				return nil, fmt.Errorf("chunk %d/%d: %w", i+1, total, err)
			}
		}

		if r.metrics != nil {
			r.metrics.ChunksProcessed.Inc()
		}
		r.report(i+1, total, (i+1)*100/total)

		if err := checkpoint(i+1, batchKeys); err != nil {
			return nil, fmt.Errorf("save checkpoint after chunk %d: %w", i+1, err)
		}
	}

	// Batch committed: pending keys join the processed set.
	for _, k := range batchKeys {
		if !processedSet[k] {
			processedSet[k] = true
			state.ProcessedTxKeys = append(state.ProcessedTxKeys, k)
		}
	}
	if err := checkpoint(0, []string{}); err != nil {
		return nil, fmt.Errorf("save final state: %w", err)
	}

	res.Report = chronology.RenderReport(wallet, parts.Parts())
	if err := r.reports.SaveReport(ctx, wallet, res.Report); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	r.logf("[analyzer] %s: analysis complete, %d parts", wallet, parts.Len())
	return res, nil
}

// buildUserPrompt assembles context, formatted transactions and the
// closing instruction into one prompt.
func buildUserPrompt(contextText string, chunk chunking.Chunk) string {
	var b strings.Builder
	b.WriteString(contextText)
	b.WriteString("\n\n## Transactions to analyze:\n")
	for _, dg := range chunk {
		for _, tx := range dg.Txs {
			b.WriteString(normalization.Format(tx))
			b.WriteByte('\n')
		}
	}
	b.WriteString("\n")
	b.WriteString(userPromptSuffix)
	return b.String()
}

func txKeys(txs []domain.Transaction) []string {
	keys := make([]string, len(txs))
	for i, tx := range txs {
		keys[i] = idhash.ComputeTxKey(tx)
	}
	return keys
}

func (r *Runner) report(chunk, total, percent int) {
	if r.progress != nil {
		r.progress(chunk, total, percent)
	}
}

func (r *Runner) logf(format string, args ...any) {
	if r.logger != nil && r.verbose {
		r.logger.Printf(format, args...)
	}
}
