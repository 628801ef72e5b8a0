package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Turn metrics
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brain_turns_total",
			Help: "Total chat turns by terminal outcome",
		},
		[]string{"outcome"}, // "success" or "error"
	)

	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "brain_turn_duration_seconds",
			Help:    "Wall-clock duration of one chat turn",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ChunksStreamed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "brain_chunks_streamed_total",
			Help: "Total non-final chunks forwarded to callers",
		},
	)

	TokensStreamed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "brain_tokens_streamed_total",
			Help: "Approximate tokens streamed in assistant answers",
		},
	)

	// Enrichment metrics
	EnrichmentDegradations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brain_enrichment_degradations_total",
			Help: "Context source failures degraded to placeholders",
		},
		[]string{"signal"}, // "sentiment", "price" or "trend"
	)

	EnrichmentCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "brain_enrichment_cache_hits_total",
			Help: "Ticker bundles served from the enrichment cache",
		},
	)
)
