package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs one job on a cron schedule and on demand.
type Scheduler struct {
	*cron.Cron
	job cron.Job
}

// NewScheduler builds a scheduler running job on cfg's schedule. Scheduled and
// on-demand invocations share one chain: overlapping runs are skipped and
// panics are recovered.
func NewScheduler(cfg *WorkerConfig, job cron.Job, logger *slog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	cl := cronLogger{logger: logger}
	wrapped := cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(job)
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
	)
	if _, err := c.AddJob(cfg.CronSchedule, wrapped); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", cfg.CronSchedule, err)
	}
	return &Scheduler{Cron: c, job: wrapped}, nil
}

// RunNow runs the job on the calling goroutine. It returns immediately when a
// run is already in flight.
func (s *Scheduler) RunNow() {
	s.job.Run()
}

// cronLogger routes cron's logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]any{slog.Any("error", err)}, keysAndValues...)...)
}
