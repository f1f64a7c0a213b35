package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"news-notifier/internal/pkg/config"
)

// WorkerMetrics holds configuration and scheduler metrics for the worker process.
// Pipeline-level metrics live in internal/observability/metrics.
type WorkerMetrics struct {
	*config.ConfigMetrics

	CronJobRunsTotal            *prometheus.CounterVec
	CronJobDurationSeconds      prometheus.Histogram
	CronJobLastRunTimestamp     prometheus.Gauge
	CronJobLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics registers the worker metrics on reg. A nil reg uses the
// default registerer.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker", reg),
		CronJobRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of scheduled pipeline runs by status",
		}, []string{"status"}),
		CronJobDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Wall-clock duration of scheduled pipeline runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		CronJobLastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_run_timestamp",
			Help: "Unix timestamp of the last scheduled pipeline run",
		}),
		CronJobLastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful scheduled pipeline run",
		}),
	}
}

// RecordJobRun records one finished run.
func (m *WorkerMetrics) RecordJobRun(status string, seconds float64) {
	m.CronJobRunsTotal.WithLabelValues(status).Inc()
	m.CronJobDurationSeconds.Observe(seconds)
	m.CronJobLastRunTimestamp.SetToCurrentTime()
	if status == "success" {
		m.CronJobLastSuccessTimestamp.SetToCurrentTime()
	}
}
