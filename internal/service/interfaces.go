// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/panel-keeper/internal/model"
)

// ActivitySource provides per-period merchant activity summaries.
type ActivitySource interface {
	// ActiveMerchants returns the keys of merchants with any activity in period.
	ActiveMerchants(ctx context.Context, period model.Period) ([]string, error)
	// ActivityForPeriods returns every activity record in the given periods.
	ActivityForPeriods(ctx context.Context, periods []model.Period) ([]model.ActivityRecord, error)
	// ActivityForMerchants returns the period's records restricted to keys.
	ActivityForMerchants(ctx context.Context, period model.Period, keys []string) ([]model.ActivityRecord, error)
}

// PanelStore holds the tracked set across periods.
type PanelStore interface {
	// GetPanel returns the tracked set in force at period: the most recent
	// set saved at or before it.
	GetPanel(ctx context.Context, period model.Period) ([]string, error)
	SeedPanel(ctx context.Context, period model.Period, keys []string) error
	// CommitRun persists the run audit and the new tracked set atomically.
	CommitRun(ctx context.Context, result *model.RunResult) error
	ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error)
	GetReplacements(ctx context.Context, runID string) ([]model.Replacement, error)
}

// Aggregator groups a sample's activity for one period.
type Aggregator interface {
	AggregateSample(ctx context.Context, period model.Period, keys []string) (*model.SampleMetrics, error)
}

// Storage is the full persistence contract.
type Storage interface {
	ActivitySource
	PanelStore
	Aggregator

	SaveActivity(ctx context.Context, records []model.ActivityRecord) error
	Migrate(ctx context.Context) error
	Close() error
}

// ReportWriter exports a finished run.
type ReportWriter interface {
	Write(ctx context.Context, result *model.RunResult) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
