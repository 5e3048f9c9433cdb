// Package config defines the immutable pipeline configuration.
// It is constructed once at process start and passed into every
// component; core logic never reads the process environment directly.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Default configuration values.
const (
	DefaultModel                = "google/gemini-3-flash-preview"
	DefaultDustThresholdUSD     = 1.0
	DefaultChunkMaxTransactions = 30
	DefaultFullChronologyCount  = 1
	DefaultContextDailyCount    = 30
	DefaultContextWeeklyCount   = 30
	DefaultTier2GroupSize       = 5
	DefaultTier3SuperSize       = 3
	DefaultWindowTxBudget       = 500
	DefaultAnchorImportanceMin  = 4
	DefaultAnchorMaxCount       = 10
	DefaultFallbackTxPerDay     = 1
	DefaultMaxTokens            = 4096
)

// Pipeline holds all tunables of the analysis pipeline.
type Pipeline struct {
	// Model is the LLM model identifier passed to the completion API.
	Model string

	// MaxTokens bounds each narrative completion.
	MaxTokens int

	// DustThresholdUSD drops transactions below this USD value.
	DustThresholdUSD float64

	// ChunkMaxTransactions bounds the transaction count of one chunk.
	ChunkMaxTransactions int

	// FullChronologyCount is how many of the most recent chronology
	// parts are passed to the model verbatim, outside compression.
	FullChronologyCount int

	// CompressionEnabled gates hierarchical context compression.
	// When off, all old day summaries are passed through as-is.
	CompressionEnabled bool

	// ContextDailyCount is the Tier-1 size: newest summaries kept
	// verbatim.
	ContextDailyCount int

	// ContextWeeklyCount is the Tier-2 day target; divided by
	// Tier2GroupSize it yields the number of single-compressed groups.
	ContextWeeklyCount int

	// Tier2GroupSize is the number of adjacent day summaries per
	// compressed group.
	Tier2GroupSize int

	// Tier3SuperSize is the number of compressed groups per
	// double-compressed super-group.
	Tier3SuperSize int

	// OptimizedWindow switches Tier 1 from a fixed day count to a
	// transaction-budget sliding window with importance anchors.
	OptimizedWindow bool

	// WindowTxBudget is the transaction budget of the sliding window.
	WindowTxBudget int

	// AnchorImportanceMin is the minimum importance score for an old
	// day to be retained verbatim as an anchor.
	AnchorImportanceMin int

	// AnchorMaxCount bounds how many anchor days are retained.
	AnchorMaxCount int

	// FallbackTxPerDay estimates a day's transaction count when no
	// real count is available for it.
	FallbackTxPerDay int
}

// Default returns the pipeline configuration with all defaults applied.
func Default() Pipeline {
	return Pipeline{
		Model:                DefaultModel,
		MaxTokens:            DefaultMaxTokens,
		DustThresholdUSD:     DefaultDustThresholdUSD,
		ChunkMaxTransactions: DefaultChunkMaxTransactions,
		FullChronologyCount:  DefaultFullChronologyCount,
		CompressionEnabled:   true,
		ContextDailyCount:    DefaultContextDailyCount,
		ContextWeeklyCount:   DefaultContextWeeklyCount,
		Tier2GroupSize:       DefaultTier2GroupSize,
		Tier3SuperSize:       DefaultTier3SuperSize,
		OptimizedWindow:      false,
		WindowTxBudget:       DefaultWindowTxBudget,
		AnchorImportanceMin:  DefaultAnchorImportanceMin,
		AnchorMaxCount:       DefaultAnchorMaxCount,
		FallbackTxPerDay:     DefaultFallbackTxPerDay,
	}
}

// FromEnv builds the configuration from environment variables, falling
// back to defaults for anything unset or unparsable.
func FromEnv() Pipeline {
	cfg := Default()

	cfg.Model = envString("OPENROUTER_MODEL", cfg.Model)
	cfg.MaxTokens = envInt("LLM_MAX_TOKENS", cfg.MaxTokens)
	cfg.DustThresholdUSD = envFloat("DUST_THRESHOLD_USD", cfg.DustThresholdUSD)
	cfg.ChunkMaxTransactions = envInt("CHUNK_MAX_TRANSACTIONS", cfg.ChunkMaxTransactions)
	cfg.FullChronologyCount = envInt("FULL_CHRONOLOGY_COUNT", cfg.FullChronologyCount)
	cfg.CompressionEnabled = envBool("CONTEXT_COMPRESSION_ENABLED", cfg.CompressionEnabled)
	cfg.ContextDailyCount = envInt("CONTEXT_DAILY_COUNT", cfg.ContextDailyCount)
	cfg.ContextWeeklyCount = envInt("CONTEXT_WEEKLY_COUNT", cfg.ContextWeeklyCount)
	cfg.Tier2GroupSize = envInt("CONTEXT_TIER2_GROUP_SIZE", cfg.Tier2GroupSize)
	cfg.Tier3SuperSize = envInt("CONTEXT_TIER3_SUPER_SIZE", cfg.Tier3SuperSize)
	cfg.OptimizedWindow = envBool("CONTEXT_OPTIMIZED_WINDOW", cfg.OptimizedWindow)
	cfg.WindowTxBudget = envInt("CONTEXT_WINDOW_TX_BUDGET", cfg.WindowTxBudget)
	cfg.AnchorImportanceMin = envInt("CONTEXT_ANCHOR_IMPORTANCE", cfg.AnchorImportanceMin)
	cfg.AnchorMaxCount = envInt("CONTEXT_ANCHOR_MAX", cfg.AnchorMaxCount)
	cfg.FallbackTxPerDay = envInt("CONTEXT_FALLBACK_TX_PER_DAY", cfg.FallbackTxPerDay)

	return cfg
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	v := strings.ToLower(os.Getenv(key))
	if v == "" {
		return fallback
	}
	switch v {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
