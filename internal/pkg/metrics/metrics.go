// Package metrics provides Prometheus metrics for the DroughtWatch backend
// (RED + ingestion + analytics + LLM). Scrapeable at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "droughtwatch"

var (
	// HTTPRequestTotal counts requests by method, path, status (RED: rate).
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, path, and status.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDurationSeconds is request latency histogram (RED: duration).
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10),
		},
		[]string{"method", "path"},
	)

	// IngestRecordsTotal counts precipitation records written by source.
	IngestRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_records_total",
			Help:      "Total number of precipitation records upserted, by source.",
		},
		[]string{"source"},
	)

	// IngestFailuresTotal counts failed (zone, source) ingestion pairs.
	IngestFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_failures_total",
			Help:      "Total number of failed ingestion attempts, by source.",
		},
		[]string{"source"},
	)

	// SPIComputeDurationSeconds is SPI engine latency per scale.
	SPIComputeDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "spi_compute_duration_seconds",
			Help:      "SPI series computation duration in seconds, by scale.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"scale"},
	)

	// HeuristicActivationsTotal counts rule activations by rule id.
	HeuristicActivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heuristic_activations_total",
			Help:      "Total number of heuristic rule activations, by rule.",
		},
		[]string{"rule"},
	)

	// LLMCallsTotal counts parameterization outcomes by method (ai/fallback).
	LLMCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Total number of action parameterizations, by method.",
		},
		[]string{"method"},
	)

	// PriceCacheHitsTotal counts regional price cache hits.
	PriceCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_cache_hits_total",
			Help:      "Total number of price cache hits.",
		},
	)

	// PriceCacheMissesTotal counts regional price cache misses.
	PriceCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_cache_misses_total",
			Help:      "Total number of price cache misses.",
		},
	)
)
