package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "filecat_catalog_records",
		Help: "File records currently held in the catalog.",
	})
	scansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filecat_scans_ingested_total",
		Help: "Scans ingested.",
	})
	filesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filecat_files_ingested_total",
		Help: "Files ingested, by extraction outcome.",
	}, []string{"outcome"})
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filecat_search_cache_hits_total",
		Help: "Searches answered from the query cache.",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filecat_search_cache_misses_total",
		Help: "Searches evaluated against the index.",
	})
	saveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filecat_snapshot_save_failures_total",
		Help: "Snapshot save attempts that failed.",
	})
	saveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "filecat_snapshot_save_duration_seconds",
		Help:    "Time spent writing a snapshot.",
		Buckets: prometheus.DefBuckets,
	})
)
