// Package compression builds the token-bounded LLM context from an
// unbounded history of day summaries. Recent days pass through verbatim;
// older days are compressed into fixed groups, and the oldest groups are
// compressed a second time into super-groups, so context size grows
// sub-linearly with history length.
//
// Groups are formed only from complete runs of adjacent summaries, and a
// complete group's membership never changes as new days are appended.
// Compression calls are therefore cacheable by content hash: once a group
// is compressed, its cache entry is valid forever.
package compression

import (
	"context"
	"log"
	"strings"

	"wallet-chronicle/internal/chronology"
	"wallet-chronicle/internal/config"
	"wallet-chronicle/internal/domain"
	"wallet-chronicle/internal/idhash"
	"wallet-chronicle/internal/llm"
	"wallet-chronicle/internal/observability"
)

const compressSystemPrompt = `Condense the following daily summaries of a crypto wallet's activity into one brief digest of 2-3 sentences.
Keep the key actions, USD amounts, platforms, tokens and chains.
Do not add anything of your own. Reply with ONLY the digest text, no headers or markers.`

// compressMaxTokens bounds each compression completion.
const compressMaxTokens = 300

const emptyContext = "## Previous activity context:\nThis is the start of the analysis; there is no prior history."

// Compressor produces compressed context strings for narrative prompts.
type Compressor struct {
	client  llm.Client
	cfg     config.Pipeline
	metrics *observability.Metrics
	logger  *log.Logger
}

// New creates a Compressor.
func New(client llm.Client, cfg config.Pipeline) *Compressor {
	return &Compressor{client: client, cfg: cfg}
}

// WithMetrics attaches pipeline metrics.
func (c *Compressor) WithMetrics(m *observability.Metrics) *Compressor {
	c.metrics = m
	return c
}

// WithLogger attaches a logger for degradation events.
func (c *Compressor) WithLogger(l *log.Logger) *Compressor {
	c.logger = l
	return c
}

// BuildContext assembles the prompt context from prior chronology parts.
// The most recent FullChronologyCount parts are included verbatim; day
// summaries extracted from everything older go through hierarchical
// compression (unless disabled). The cache is mutated in place and
// persisted by the caller. dayTxCounts carries per-day transaction counts
// over the full filtered history, consumed by the optimized window.
func (c *Compressor) BuildContext(ctx context.Context, parts []domain.ChronologyPart, cache *domain.CompressionCache, dayTxCounts map[string]int) string {
	if len(parts) == 0 {
		return emptyContext
	}

	var oldParts, recentParts []domain.ChronologyPart
	if len(parts) > c.cfg.FullChronologyCount {
		oldParts = parts[:len(parts)-c.cfg.FullChronologyCount]
		recentParts = parts[len(parts)-c.cfg.FullChronologyCount:]
	} else {
		recentParts = parts
	}

	var sections []string

	if len(oldParts) > 0 {
		var summaries []domain.DaySummary
		for _, part := range oldParts {
			summaries = append(summaries, chronology.ExtractDaySummaries(part)...)
		}

		if len(summaries) > 0 {
			var lines []string
			if c.cfg.CompressionEnabled {
				lines = c.compressHierarchy(ctx, summaries, cache, dayTxCounts)
			} else {
				lines = summaryLines(summaries)
			}

			var b strings.Builder
			b.WriteString("## Condensed context of earlier activity:")
			for _, line := range lines {
				b.WriteString("\n- ")
				b.WriteString(line)
			}
			sections = append(sections, b.String())
		}
	}

	if len(recentParts) > 0 {
		sections = append(sections,
			"## Detailed chronology of recent days:\n\n"+strings.Join(recentParts, "\n\n"))
	}

	return strings.Join(sections, "\n\n")
}

// compressHierarchy applies the three-tier compression scheme.
//
// Tier 1: the newest summaries pass through verbatim, sized either by a
// fixed day count or, in optimized-window mode, by a transaction budget
// plus high-importance anchors.
// Tier 2: the most recent complete groups are each compressed once.
// Tier 3: older complete groups are bundled into super-groups and
// compressed a second time.
// Incomplete groups and super-groups pass through uncompressed, so group
// membership is immutable once complete.
func (c *Compressor) compressHierarchy(ctx context.Context, all []domain.DaySummary, cache *domain.CompressionCache, dayTxCounts map[string]int) []string {
	tier1Count := c.tier1Count(all, dayTxCounts)
	tier1 := all[len(all)-tier1Count:]
	remaining := all[:len(all)-tier1Count]

	if len(remaining) == 0 {
		return summaryLines(tier1)
	}

	var anchors []domain.DaySummary
	if c.cfg.OptimizedWindow {
		anchors = c.selectAnchors(remaining)
	}

	groups := c.formGroups(remaining)

	tier2GroupCount := c.cfg.ContextWeeklyCount / c.cfg.Tier2GroupSize
	if tier2GroupCount < 1 {
		tier2GroupCount = 1
	}

	var tier2Groups, tier3Groups [][]domain.DaySummary
	if len(groups) <= tier2GroupCount {
		tier2Groups = groups
	} else {
		tier3Groups = groups[:len(groups)-tier2GroupCount]
		tier2Groups = groups[len(groups)-tier2GroupCount:]
	}

	var result []string

	// Tier 3: compress complete groups, then bundle complete runs of
	// compressed groups into super-groups and compress again.
	if len(tier3Groups) > 0 {
		type compressed struct {
			dateRange string
			text      string
		}
		var intermediate []compressed
		for _, group := range tier3Groups {
			if len(group) != c.cfg.Tier2GroupSize {
				result = append(result, summaryLines(group)...)
				continue
			}
			intermediate = append(intermediate, compressed{
				dateRange: dateRange(group),
				text:      c.compressGroup(ctx, group, cache.Groups),
			})
		}

		fullSuperCount := len(intermediate) / c.cfg.Tier3SuperSize
		for i := 0; i < fullSuperCount; i++ {
			items := intermediate[i*c.cfg.Tier3SuperSize : (i+1)*c.cfg.Tier3SuperSize]

			first := strings.SplitN(items[0].dateRange, " — ", 2)[0]
			lastParts := strings.SplitN(items[len(items)-1].dateRange, " — ", 2)
			last := lastParts[len(lastParts)-1]
			superRange := first + " — " + last

			input := make([]string, len(items))
			for j, it := range items {
				input[j] = it.dateRange + ": " + it.text
			}
			result = append(result, superRange+": "+c.compressLines(ctx, input, cache.SuperGroups))
		}

		// Compressed groups that do not fill a super-group yet
		for _, it := range intermediate[fullSuperCount*c.cfg.Tier3SuperSize:] {
			result = append(result, it.dateRange+": "+it.text)
		}
	}

	// Tier 2: single-level compression of complete groups
	for _, group := range tier2Groups {
		if len(group) != c.cfg.Tier2GroupSize {
			result = append(result, summaryLines(group)...)
			continue
		}
		result = append(result, dateRange(group)+": "+c.compressGroup(ctx, group, cache.Groups))
	}

	// Anchor days: old but important enough to survive compression
	result = append(result, summaryLines(anchors)...)

	// Tier 1: verbatim
	result = append(result, summaryLines(tier1)...)

	return result
}

// tier1Count sizes the verbatim window. The fixed-day mode keeps the
// newest ContextDailyCount summaries; the optimized mode keeps enough
// trailing days to cover WindowTxBudget transactions.
func (c *Compressor) tier1Count(all []domain.DaySummary, dayTxCounts map[string]int) int {
	if !c.cfg.OptimizedWindow {
		if len(all) < c.cfg.ContextDailyCount {
			return len(all)
		}
		return c.cfg.ContextDailyCount
	}

	budget := 0
	for i := len(all) - 1; i >= 0; i-- {
		count, ok := dayTxCounts[all[i].Date]
		if !ok || count <= 0 {
			count = c.cfg.FallbackTxPerDay
		}
		budget += count
		if budget >= c.cfg.WindowTxBudget {
			return len(all) - i
		}
	}
	return len(all)
}

// selectAnchors picks up to AnchorMaxCount of the newest summaries whose
// importance meets the threshold, returned in chronological order.
func (c *Compressor) selectAnchors(remaining []domain.DaySummary) []domain.DaySummary {
	var anchors []domain.DaySummary
	for i := len(remaining) - 1; i >= 0 && len(anchors) < c.cfg.AnchorMaxCount; i-- {
		if remaining[i].Importance >= c.cfg.AnchorImportanceMin {
			anchors = append(anchors, remaining[i])
		}
	}
	// Collected newest-first; restore chronological order.
	for i, j := 0, len(anchors)-1; i < j; i, j = i+1, j-1 {
		anchors[i], anchors[j] = anchors[j], anchors[i]
	}
	return anchors
}

// formGroups partitions the pre-window summaries into adjacent groups of
// Tier2GroupSize. Fixed-day mode aligns groups from the start of the
// list, leaving the newest group incomplete until it fills; this keeps
// every completed group's membership immutable as history grows.
// Optimized-window mode aligns from the end instead, leaving the oldest
// group incomplete, so the window's moving boundary does not churn the
// newest group's cache key.
func (c *Compressor) formGroups(remaining []domain.DaySummary) [][]domain.DaySummary {
	size := c.cfg.Tier2GroupSize
	var groups [][]domain.DaySummary

	if c.cfg.OptimizedWindow {
		lead := len(remaining) % size
		if lead > 0 {
			groups = append(groups, remaining[:lead])
		}
		for i := lead; i < len(remaining); i += size {
			groups = append(groups, remaining[i:i+size])
		}
		return groups
	}

	for i := 0; i < len(remaining); i += size {
		end := i + size
		if end > len(remaining) {
			end = len(remaining)
		}
		groups = append(groups, remaining[i:end])
	}
	return groups
}

// compressGroup compresses one complete group of day summaries.
func (c *Compressor) compressGroup(ctx context.Context, group []domain.DaySummary, cache map[string]string) string {
	return c.compressLines(ctx, summaryLines(group), cache)
}

// compressLines compresses an ordered set of lines through the LLM with a
// content-hash cache lookup. On LLM failure the bulleted input passes
// through unchanged and is not cached, so a later run can retry the
// compression.
func (c *Compressor) compressLines(ctx context.Context, lines []string, cache map[string]string) string {
	key := idhash.ContentHash(lines)
	if cached, ok := cache[key]; ok {
		if c.metrics != nil {
			c.metrics.CompressionCacheHits.Inc()
		}
		return cached
	}

	input := "- " + strings.Join(lines, "\n- ")

	out, err := c.client.Complete(ctx, llm.Request{
		System:    compressSystemPrompt,
		User:      input,
		MaxTokens: compressMaxTokens,
	})
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("[compression] LLM call failed, passing group through uncompressed: %v", err)
		}
		if c.metrics != nil {
			c.metrics.CompressionFallbacks.Inc()
		}
		return input
	}

	out = strings.TrimSpace(out)
	cache[key] = out
	if c.metrics != nil {
		c.metrics.CompressionCalls.Inc()
	}
	return out
}

// dateRange labels a group by its covered dates: a single date, or
// "first — last".
func dateRange(group []domain.DaySummary) string {
	var dates []string
	for _, s := range group {
		if s.Date != "" {
			dates = append(dates, s.Date)
		}
	}
	if len(dates) == 0 {
		return "?"
	}
	if len(dates) == 1 || dates[0] == dates[len(dates)-1] {
		return dates[0]
	}
	return dates[0] + " — " + dates[len(dates)-1]
}

func summaryLines(summaries []domain.DaySummary) []string {
	lines := make([]string, len(summaries))
	for i, s := range summaries {
		lines[i] = s.Line()
	}
	return lines
}
