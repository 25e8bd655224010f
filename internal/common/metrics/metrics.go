// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// VendorQueries counts vendor lookups by source and outcome (ok, empty, error, cache_hit).
	VendorQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendor_queries_total",
			Help: "Total number of vendor candidate lookups",
		},
		[]string{"source", "outcome"},
	)

	VendorQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vendor_query_duration_seconds",
			Help:    "Duration of vendor candidate lookups in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	VendorsScored = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vendors_scored_per_search",
			Help:    "Number of vendor candidates scored per search",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	SearchesSuperseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vendor_searches_superseded_total",
			Help: "Searches whose results were discarded because a newer search started",
		},
	)

	SelectionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendor_selections_recorded_total",
			Help: "Total number of vendor selections written to the ledger",
		},
		[]string{"backend"},
	)

	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of HTTP API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
