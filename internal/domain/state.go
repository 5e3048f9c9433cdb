package domain

// CompressionCache maps a content hash of a group of day-summary lines to
// its previously computed compressed text. Groups and super-groups are
// independent namespaces. Entries are append-only: keys are derived from
// the exact input text, so a changed group can never hit a stale entry.
type CompressionCache struct {
	Groups      map[string]string `json:"groups"`
	SuperGroups map[string]string `json:"super_groups"`
}

// NewCompressionCache returns an empty cache with both namespaces
// allocated.
func NewCompressionCache() CompressionCache {
	return CompressionCache{
		Groups:      make(map[string]string),
		SuperGroups: make(map[string]string),
	}
}

// AnalysisState is the durable checkpoint for one wallet's analysis.
// It is persisted after every chunk so an interrupted run resumes exactly
// where it stopped, reprocessing nothing and skipping nothing.
type AnalysisState struct {
	// ChunkIndex is the next chunk to process within the current batch.
	// Zero means no batch is in flight.
	ChunkIndex int `json:"chunk_index"`

	// ChronologyParts is the ordered narrative store.
	ChronologyParts []ChronologyPart `json:"chronology_parts"`

	// ProcessedTxKeys are keys of transactions covered by committed
	// batches.
	ProcessedTxKeys []string `json:"processed_tx_keys"`

	// PendingTxKeys are keys of the batch in flight. Non-empty together
	// with ChunkIndex > 0 signals that the next run must resume.
	PendingTxKeys []string `json:"pending_tx_keys"`

	CompressionCache CompressionCache `json:"compression_cache"`
}

// NewAnalysisState returns an empty state for a wallet never analyzed
// before.
func NewAnalysisState() *AnalysisState {
	return &AnalysisState{
		ChronologyParts:  []ChronologyPart{},
		ProcessedTxKeys:  []string{},
		PendingTxKeys:    []string{},
		CompressionCache: NewCompressionCache(),
	}
}

// Clone returns a deep copy, so stored state cannot alias a caller's
// slices or cache maps.
func (s *AnalysisState) Clone() *AnalysisState {
	out := &AnalysisState{
		ChunkIndex:       s.ChunkIndex,
		ChronologyParts:  append([]ChronologyPart{}, s.ChronologyParts...),
		ProcessedTxKeys:  append([]string{}, s.ProcessedTxKeys...),
		PendingTxKeys:    append([]string{}, s.PendingTxKeys...),
		CompressionCache: NewCompressionCache(),
	}
	for k, v := range s.CompressionCache.Groups {
		out.CompressionCache.Groups[k] = v
	}
	for k, v := range s.CompressionCache.SuperGroups {
		out.CompressionCache.SuperGroups[k] = v
	}
	return out
}

// Normalize applies forward-compatible defaults to state loaded from an
// older persisted format: missing key lists become empty, and the legacy
// calendar-keyed cache (weekly/monthly namespaces) is discarded in favor
// of empty content-addressed namespaces.
func (s *AnalysisState) Normalize() {
	if s.ChronologyParts == nil {
		s.ChronologyParts = []ChronologyPart{}
	}
	if s.ProcessedTxKeys == nil {
		s.ProcessedTxKeys = []string{}
	}
	if s.PendingTxKeys == nil {
		s.PendingTxKeys = []string{}
	}
	if s.CompressionCache.Groups == nil || s.CompressionCache.SuperGroups == nil {
		s.CompressionCache = NewCompressionCache()
	}
}
