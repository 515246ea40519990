package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChunksIngested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hyperdoc",
		Name:      "chunks_ingested_total",
		Help:      "Number of chunks embedded and stored.",
	})
	ChunksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hyperdoc",
		Name:      "chunks_dropped_total",
		Help:      "Number of chunks that failed to persist during ingest.",
	})
	SearchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hyperdoc",
		Name:      "searches_total",
		Help:      "Number of similarity searches served.",
	})
	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "hyperdoc",
		Name:      "search_duration_seconds",
		Help:      "Wall time of a similarity search, embedding included.",
		Buckets:   prometheus.DefBuckets,
	})
	DriftingPoints = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hyperdoc",
		Name:      "drifting_points",
		Help:      "Stored points failing the manifold constraint at the last audit.",
	})
)
