package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/panel-keeper/internal/model"
	"github.com/Veraticus/panel-keeper/internal/service"
)

// Runner computes and commits panel replacements. *panel.Engine implements it.
type Runner interface {
	Run(ctx context.Context, period model.Period, retention float64) (*model.RunResult, error)
	Commit(ctx context.Context, result *model.RunResult) error
}

// ReplacementJob replaces attrited panel members for the calendar month
// before the one the job fires in.
type ReplacementJob struct {
	runner    Runner
	writer    service.ReportWriter
	now       func() time.Time
	log       *slog.Logger
	retention float64
}

// ReplacementJobConfig holds the job's collaborators.
type ReplacementJobConfig struct {
	Runner Runner
	// Writer exports each committed run when set.
	Writer    service.ReportWriter
	Now       func() time.Time
	Log       *slog.Logger
	Retention float64
}

// NewReplacementJob creates a new replacement job.
func NewReplacementJob(cfg ReplacementJobConfig) *ReplacementJob {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &ReplacementJob{
		runner:    cfg.Runner,
		writer:    cfg.Writer,
		now:       cfg.Now,
		log:       cfg.Log.With("job", "panel_replacement"),
		retention: cfg.Retention,
	}
}

// Name returns the job name.
func (j *ReplacementJob) Name() string {
	return "panel_replacement"
}

// Period returns the period the job would process now.
func (j *ReplacementJob) Period() model.Period {
	return model.PeriodOf(j.now()).Prev()
}

// Run executes the replacement and commits it. An export failure is
// reported after the commit has succeeded.
func (j *ReplacementJob) Run(ctx context.Context) error {
	period := j.Period()
	j.log.Info("Starting scheduled replacement", "period", period)

	result, err := j.runner.Run(ctx, period, j.retention)
	if err != nil {
		return fmt.Errorf("replacement for %s failed: %w", period, err)
	}
	if err := j.runner.Commit(ctx, result); err != nil {
		return err
	}

	j.log.Info("Scheduled replacement committed",
		"period", period,
		"run", result.ID,
		"new_size", result.NewSize,
		"retention_rate", result.RetentionRate)

	if j.writer != nil {
		if err := j.writer.Write(ctx, result); err != nil {
			return fmt.Errorf("run %s committed but export failed: %w", result.ID, err)
		}
	}
	return nil
}
