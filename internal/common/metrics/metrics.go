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
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task_type"},
	)

	ActiveJobs = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_active_jobs",
			Help: "Jobs currently being handled, by task type",
		},
		[]string{"task_type"},
	)

	AssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessments_total",
			Help: "Eligibility verdicts produced, by visa subclass and status",
		},
		[]string{"visa", "status"},
	)

	RiskLevelTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_level_total",
			Help: "Overall risk levels produced, by visa subclass",
		},
		[]string{"visa", "level"},
	)

	EvidenceGapsEmitted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evidence_gaps_emitted",
			Help:    "Number of evidence gaps in each completed assessment",
			Buckets: []float64{0, 1, 2, 4, 8, 16},
		},
	)

	RulesetCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruleset_cache_requests_total",
			Help: "Ruleset cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

// RecordJob counts one finished job. An empty errorCode means success.
func RecordJob(taskType, errorCode string, seconds float64) {
	WorkerJobDuration.WithLabelValues(taskType).Observe(seconds)
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
}
