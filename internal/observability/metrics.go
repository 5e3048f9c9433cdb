// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the analysis pipeline.
type Metrics struct {
	// Analysis metrics
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	ChunksProcessed prometheus.Counter
	NarrativeCalls  prometheus.Counter
	OverlapMerges   prometheus.Counter

	// Compression metrics
	CompressionCalls     prometheus.Counter
	CompressionCacheHits prometheus.Counter
	CompressionFallbacks prometheus.Counter

	// LLM transport metrics
	LLMRetries prometheus.Counter
	LLMErrors  *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "wallet_chronicle"
	}

	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total number of analysis runs by outcome",
		}, []string{"status"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of analysis runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		ChunksProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "chunks_processed_total",
			Help:      "Total number of chunks processed to completion",
		}),
		NarrativeCalls: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "narrative_llm_calls_total",
			Help:      "Total number of narrative-generation LLM calls",
		}),
		OverlapMerges: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "overlap_merges_total",
			Help:      "Total number of overlapping date-range merges",
		}),
		CompressionCalls: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compression",
			Name:      "llm_calls_total",
			Help:      "Total number of compression LLM calls (cache misses)",
		}),
		CompressionCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compression",
			Name:      "cache_hits_total",
			Help:      "Total number of compression cache hits",
		}),
		CompressionFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compression",
			Name:      "fallbacks_total",
			Help:      "Total number of compression calls degraded to uncompressed text",
		}),
		LLMRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "retries_total",
			Help:      "Total number of rate-limit retries at the HTTP layer",
		}),
		LLMErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "errors_total",
			Help:      "Total number of failed LLM calls by kind",
		}, []string{"kind"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
