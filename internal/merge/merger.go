// Package merge integrates freshly generated chronology parts into the
// existing sequence. A day split across a batch boundary produces two
// parts describing the same date; the merger detects the shared day
// headers and asks the model to fold the two fragments into one, so the
// final report never repeats a day section.
package merge

import (
	"context"
	"fmt"
	"log"

	"wallet-chronicle/internal/chronology"
	"wallet-chronicle/internal/domain"
	"wallet-chronicle/internal/llm"
	"wallet-chronicle/internal/observability"
)

const mergeSystemPrompt = `You are merging two fragments of a crypto wallet activity chronology that describe overlapping days.
Combine them into a single coherent fragment:
- Keep the "### YYYY-MM-DD" day headers and chronological order.
- Fold sections describing the same day into one section without dropping any transactions.
- Keep exactly one "**Day summary:**" line and one "**Importance: N**" line per day, rewritten to cover the merged content.
- Do not invent anything that is not in the fragments.
Reply with ONLY the merged fragment, no extra commentary.`

// Merger folds overlapping chronology parts together.
type Merger struct {
	client  llm.Client
	metrics *observability.Metrics
	logger  *log.Logger
}

// New creates a Merger.
func New(client llm.Client) *Merger {
	return &Merger{client: client}
}

// WithMetrics attaches pipeline metrics.
func (m *Merger) WithMetrics(mx *observability.Metrics) *Merger {
	m.metrics = mx
	return m
}

// WithLogger attaches a logger for merge events.
func (m *Merger) WithLogger(l *log.Logger) *Merger {
	m.logger = l
	return m
}

// Integrate adds newPart to the store. When newPart's day headers
// intersect an existing part's, the two are merged by the model and the
// existing part is replaced in place; otherwise newPart is appended.
// Parts are scanned newest-first, and the merged result is re-checked
// against the remaining older parts, so a part spanning several earlier
// fragments collapses them one at a time.
//
// A failed merge completion is returned as an error; the store is left
// unchanged in that case so the caller can retry the whole step.
func (m *Merger) Integrate(ctx context.Context, store *chronology.Store, newPart domain.ChronologyPart) error {
	newDates := chronology.ExtractDateHeaders(newPart)
	if len(newDates) == 0 || store.Len() == 0 {
		store.Append(newPart)
		return nil
	}

	current := newPart
	var absorbed []int

	for i := store.Len() - 1; i >= 0; i-- {
		existing := store.At(i)
		if !intersects(chronology.ExtractDateHeaders(existing), newDates) {
			continue
		}

		merged, err := m.mergeTwo(ctx, existing, current)
		if err != nil {
			return err
		}
		if m.logger != nil {
			m.logger.Printf("[merge] folded overlapping part into part %d", i)
		}
		if m.metrics != nil {
			m.metrics.OverlapMerges.Inc()
		}

		current = merged
		absorbed = append(absorbed, i)
		newDates = chronology.ExtractDateHeaders(current)
	}

	if len(absorbed) == 0 {
		store.Append(current)
		return nil
	}

	// The combined text replaces the oldest absorbed part; any newer
	// absorbed parts are removed. absorbed is in descending index order,
	// so removals never shift a pending index.
	oldest := absorbed[len(absorbed)-1]
	for _, i := range absorbed[:len(absorbed)-1] {
		store.RemoveAt(i)
	}
	store.ReplaceAt(oldest, current)
	return nil
}

// mergeTwo asks the model to combine an older and a newer overlapping
// fragment.
func (m *Merger) mergeTwo(ctx context.Context, older, newer domain.ChronologyPart) (domain.ChronologyPart, error) {
	user := fmt.Sprintf("EARLIER FRAGMENT:\n\n%s\n\nLATER FRAGMENT:\n\n%s", older, newer)

	out, err := m.client.Complete(ctx, llm.Request{
		System: mergeSystemPrompt,
		User:   user,
	})
	if err != nil {
		return "", fmt.Errorf("merge overlapping parts: %w", err)
	}
	return chronology.ParseResponse(out), nil
}

func intersects(a map[string]bool, b map[string]bool) bool {
	for d := range a {
		if b[d] {
			return true
		}
	}
	return false
}
