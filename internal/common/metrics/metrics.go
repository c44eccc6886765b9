// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_worker_jobs_completed_total",
			Help: "Total number of workflow jobs completed by task type",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_worker_jobs_failed_total",
			Help: "Total number of workflow jobs failed by task type",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "quote_worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quote_worker_jobs_active",
			Help: "Number of active jobs per task type",
		},
		[]string{"task_type"},
	)
)

// Cache Store
var (
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_cache_hits_total",
			Help: "Cache reads that returned a usable entry",
		},
		[]string{"backend"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_cache_misses_total",
			Help: "Cache reads that found nothing or failed",
		},
		[]string{"backend"},
	)

	CacheCorruptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_cache_corrupted_entries_total",
			Help: "Cache entries that could not be decoded and were treated as a miss",
		},
		[]string{"backend"},
	)
)

// External backend and workflow outcomes
var (
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quote_backend_request_duration_seconds",
			Help:    "Latency of calls to the insurance backend",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)

	QualifierDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_qualifier_decisions_total",
			Help: "Qualifier routing decisions by quote type and whether the cache answered",
		},
		[]string{"quote_type", "from_cache"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_submissions_total",
			Help: "Application, renewal and payment submissions by program and outcome",
		},
		[]string{"program", "outcome"},
	)
)
