package domain

// ChronologyPart is one LLM-generated narrative text covering one chunk
// of the wallet's history (or the merge of two overlapping parts). It is
// markdown with "### <date-or-range>" day sections, each ending with a
// day-summary marker line and an importance marker line.
type ChronologyPart = string

// DaySummary is the one-line distillation of a day section, extracted
// from a chronology part. It feeds context compression only and is always
// re-derived from its part, never persisted on its own.
type DaySummary struct {
	Date       string // YYYY-MM-DD
	Text       string
	Importance int // 1..5, DefaultImportance when absent or malformed
}

// DefaultImportance is assumed when a day section carries no parsable
// importance marker.
const DefaultImportance = 3

// Line renders the summary in the "date: text" form used as compression
// input. This exact text participates in cache keys, so it must stay
// stable across runs.
func (s DaySummary) Line() string {
	return s.Date + ": " + s.Text
}
