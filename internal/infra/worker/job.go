package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"news-notifier/internal/observability/logging"
	"news-notifier/internal/usecase/pipeline"
)

// Runner executes one pipeline pass.
type Runner interface {
	Run(ctx context.Context) (*pipeline.RunResult, error)
}

// JobStatus is the externally visible summary of the last run.
type JobStatus struct {
	RunID                string    `json:"run_id"`
	Status               string    `json:"status"`
	StartedAt            time.Time `json:"started_at"`
	DurationSeconds      float64   `json:"duration_seconds"`
	FailedStage          string    `json:"failed_stage,omitempty"`
	Errors               []string  `json:"errors,omitempty"`
	ArticlesProcessed    int       `json:"articles_processed"`
	NotificationsCreated int       `json:"notifications_created"`
	EmailsSent           int       `json:"emails_sent"`
	EmailsFailed         int       `json:"emails_failed"`
}

// Job adapts a Runner to cron.Job. Each invocation gets its own timeout and
// never propagates a panic to the scheduler.
type Job struct {
	runner  Runner
	timeout time.Duration
	metrics *WorkerMetrics
	logger  *slog.Logger

	// base is cancelled on shutdown so an in-flight run stops promptly.
	base context.Context
	last atomic.Pointer[JobStatus]
}

// NewJob returns a Job. metrics may be nil.
func NewJob(base context.Context, runner Runner, timeout time.Duration, metrics *WorkerMetrics, logger *slog.Logger) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{
		runner:  runner,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
		base:    base,
	}
}

// Run implements cron.Job.
func (j *Job) Run() {
	_, _ = j.RunOnce()
}

// RunOnce executes the runner and records the outcome.
func (j *Job) RunOnce() (result *pipeline.RunResult, err error) {
	ctx, cancel := context.WithTimeout(logging.WithLogger(j.base, j.logger), j.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
			j.logger.Error("pipeline run panicked", slog.Any("panic", r))
		}
		if result == nil {
			result = &pipeline.RunResult{
				Status:    pipeline.StatusFailed,
				StartedAt: start,
				Duration:  time.Since(start),
			}
			if err != nil {
				result.Errors = []string{logging.SanitizeError(err)}
				j.logger.Error("pipeline run returned no result", slog.String("error", result.Errors[0]))
			}
		}
		j.record(result, err)
	}()

	return j.runner.Run(ctx)
}

// LastStatus returns the last completed run, or nil before the first one.
func (j *Job) LastStatus() *JobStatus {
	return j.last.Load()
}

func (j *Job) record(result *pipeline.RunResult, err error) {
	status := string(result.Status)
	if j.metrics != nil {
		j.metrics.RecordJobRun(status, result.Duration.Seconds())
	}

	j.last.Store(&JobStatus{
		RunID:                result.RunID,
		Status:               status,
		StartedAt:            result.StartedAt,
		DurationSeconds:      result.Duration.Seconds(),
		FailedStage:          result.FailedStage,
		Errors:               result.Errors,
		ArticlesProcessed:    result.ArticlesProcessed,
		NotificationsCreated: result.NotificationsCreated,
		EmailsSent:           result.Emails.Sent,
		EmailsFailed:         result.Emails.Failed,
	})

	// the pipeline logs its own outcome; only the timeout is worth adding
	if errors.Is(err, context.DeadlineExceeded) {
		j.logger.Warn("pipeline run hit its timeout",
			slog.Duration("timeout", j.timeout),
			slog.String("run_id", result.RunID))
	}
}
