package panel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/panel-keeper/internal/common"
	"github.com/Veraticus/panel-keeper/internal/model"
	"github.com/Veraticus/panel-keeper/internal/service"
	"github.com/google/uuid"
)

// Engine runs panel replacement for one period at a time.
type Engine struct {
	source     service.ActivitySource
	store      service.PanelStore
	aggregator service.Aggregator
	now        func() time.Time
	onProgress ProgressFunc
	cfg        Config
}

// ProgressFunc is told how many attrited merchants will be matched and is
// returned a callback invoked once per finished match.
type ProgressFunc func(total int) func()

// Option customizes an Engine.
type Option func(*Engine)

// WithAggregator replaces the in-memory aggregator.
func WithAggregator(a service.Aggregator) Option {
	return func(e *Engine) { e.aggregator = a }
}

// WithProgress reports matcher progress.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.onProgress = fn }
}

// WithClock overrides the run timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine. The configuration is validated up front.
func NewEngine(source service.ActivitySource, store service.PanelStore, cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		source:     source,
		store:      store,
		aggregator: NewMemoryAggregator(source),
		now:        time.Now,
		cfg:        cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine's replacement policy.
func (e *Engine) Config() Config {
	return e.cfg
}

// Run computes the replacement for period without persisting it. A retention
// of zero uses the configured target retention.
func (e *Engine) Run(ctx context.Context, period model.Period, retention float64) (*model.RunResult, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("%w: %d", model.ErrInvalidPeriod, int(period))
	}
	if retention == 0 {
		retention = e.cfg.TargetRetention
	}
	if retention < 0 || retention > 1 {
		return nil, fmt.Errorf("%w: target retention %g must be in (0, 1]", common.ErrInvalidConfig, retention)
	}

	previous := period.Prev()
	tracked, err := e.store.GetPanel(ctx, previous)
	if err != nil {
		return nil, fmt.Errorf("failed to load panel for %s: %w", previous, err)
	}
	tracked = newKeySet(tracked).sorted()

	before, err := e.aggregator.AggregateSample(ctx, period, tracked)
	if err != nil {
		return nil, sourceErr("aggregate previous panel", err)
	}

	active, err := e.source.ActiveMerchants(ctx, period)
	if err != nil {
		return nil, sourceErr("load active merchants", err)
	}

	result := &model.RunResult{
		ID:           uuid.NewString(),
		Period:       period,
		CreatedAt:    e.now(),
		OriginalSize: len(tracked),
		TargetSize:   TargetSize(len(tracked), retention),
	}

	attritionBase := tracked
	if e.cfg.AttritionScope == ScopePreviousActive {
		prevActive, prevErr := e.source.ActiveMerchants(ctx, previous)
		if prevErr != nil {
			return nil, sourceErr("load previous active merchants", prevErr)
		}
		_, attritionBase = DetectAttrition(tracked, prevActive)
	}
	result.Attrited, _ = DetectAttrition(attritionBase, active)
	_, result.Survivors = DetectAttrition(tracked, active)
	result.Dormant = dormant(tracked, result.Survivors, result.Attrited)
	result.ReplacementsNeeded = max(0, result.TargetSize-len(result.Survivors))

	slog.Info("Detected attrition",
		"period", period,
		"original_size", result.OriginalSize,
		"survivors", len(result.Survivors),
		"attrited", len(result.Attrited),
		"dormant", len(result.Dormant),
		"target_size", result.TargetSize,
		"replacements_needed", result.ReplacementsNeeded)

	if len(result.Survivors) >= result.TargetSize {
		slog.Info("No replacement needed - panel within target", "period", period)
		result.NewPanel = result.Survivors
	} else {
		if err := e.replace(ctx, period, tracked, active, result); err != nil {
			return nil, err
		}
		result.ReplacementNeeded = true
	}

	result.NewSize = len(result.NewPanel)
	result.RetentionRate = RetentionRate(result.NewSize, result.OriginalSize)

	after, err := e.aggregator.AggregateSample(ctx, period, result.NewPanel)
	if err != nil {
		return nil, sourceErr("aggregate new panel", err)
	}
	result.Comparison = Compare(before, after)

	return result, nil
}

func (e *Engine) replace(ctx context.Context, period model.Period, tracked, active []string, result *model.RunResult) error {
	records, err := e.source.ActivityForPeriods(ctx, period.Lookback(e.cfg.LookbackPeriods))
	if err != nil {
		return sourceErr("load lookback activity", err)
	}
	profiles := BuildProfiles(records)
	pool := CandidatePool(profiles, tracked, active, e.cfg.MinActivePeriods)

	targets := make([]model.Profile, 0, len(result.Attrited))
	for _, key := range result.Attrited {
		p, ok := profiles[key]
		if !ok {
			// no lookback activity to match against
			slog.Debug("Attrited merchant has no lookback profile", "merchant", key)
			result.TierStats.Add(0)
			continue
		}
		targets = append(targets, p)
	}

	slog.Info("Matching attrited merchants",
		"period", period,
		"profiled", len(targets),
		"candidates", len(pool),
		"dedup", e.cfg.DedupReplacements)

	var onDone func()
	if e.onProgress != nil {
		onDone = e.onProgress(len(targets))
	}

	outcomes, err := NewMatcher(pool, e.cfg).MatchAll(ctx, targets, onDone)
	if err != nil {
		return fmt.Errorf("matching interrupted: %w", err)
	}

	replacementKeys := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Replacement == nil {
			result.TierStats.Add(0)
			continue
		}
		result.TierStats.Add(o.Replacement.Tier)
		result.Replacements = append(result.Replacements, *o.Replacement)
		replacementKeys = append(replacementKeys, o.Replacement.ReplacementKey)
	}

	result.NewPanel = Rebuild(result.Survivors, replacementKeys)
	if len(targets) > 0 {
		result.SuccessRate = float64(len(result.Replacements)) / float64(len(targets))
	}

	slog.Info("Replacement results",
		"period", period,
		"tier_1", result.TierStats.Tier1,
		"tier_2", result.TierStats.Tier2,
		"tier_3", result.TierStats.Tier3,
		"not_found", result.TierStats.NotFound,
		"new_size", len(result.NewPanel))

	return nil
}

// Commit persists a run's audit trail and its new panel.
func (e *Engine) Commit(ctx context.Context, result *model.RunResult) error {
	if err := e.store.CommitRun(ctx, result); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", result.ID, err)
	}
	return nil
}

// Compare recomputes the before/after report for period from the panels
// stored for the previous period and for period itself.
func (e *Engine) Compare(ctx context.Context, period model.Period) (*model.Comparison, error) {
	before, err := e.store.GetPanel(ctx, period.Prev())
	if err != nil {
		return nil, fmt.Errorf("failed to load panel for %s: %w", period.Prev(), err)
	}
	after, err := e.store.GetPanel(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to load panel for %s: %w", period, err)
	}

	bm, err := e.aggregator.AggregateSample(ctx, period, before)
	if err != nil {
		return nil, sourceErr("aggregate previous panel", err)
	}
	am, err := e.aggregator.AggregateSample(ctx, period, after)
	if err != nil {
		return nil, sourceErr("aggregate panel", err)
	}
	return Compare(bm, am), nil
}

func dormant(tracked, survivors, attrited []string) []string {
	seen := newKeySet(survivors)
	for _, k := range attrited {
		seen[k] = struct{}{}
	}
	var out []string
	for _, k := range tracked {
		if !seen.has(k) {
			out = append(out, k)
		}
	}
	return out
}

func sourceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrSourceUnavailable, op, err)
}
