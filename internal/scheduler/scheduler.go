// Package scheduler runs panel jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job represents a scheduled job.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler manages background jobs. Overlapping runs of the same job are skipped.
type Scheduler struct {
	ctx  context.Context
	cron *cron.Cron
	log  *slog.Logger
}

// New creates a scheduler whose jobs run with ctx. Schedules take a
// leading seconds field.
func New(ctx context.Context, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "scheduler")
	return &Scheduler{
		ctx: ctx,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLogger{log}),
			cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})),
		),
		log: log,
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Scheduler stopped")
}

// AddJob registers a job with a cron schedule, e.g. "0 0 6 1 * *" for
// 06:00 on the first of every month or "@every 30s".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.log.Debug("Running job", "job", job.Name())

		if err := job.Run(s.ctx); err != nil {
			s.log.Error("Job failed", "job", job.Name(), "error", err)
		} else {
			s.log.Debug("Job completed", "job", job.Name())
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", schedule, job.Name(), err)
	}

	s.log.Info("Job registered", "schedule", schedule, "job", job.Name())
	return nil
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info("Running job immediately", "job", job.Name())
	return job.Run(s.ctx)
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
