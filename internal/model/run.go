package model

import "time"

// RunResult is everything a replacement run produces.
type RunResult struct {
	CreatedAt          time.Time
	ID                 string
	Comparison         *Comparison
	NewPanel           []string
	Survivors          []string
	Attrited           []string
	Dormant            []string
	Replacements       []Replacement
	Period             Period
	TierStats          TierStats
	OriginalSize       int
	TargetSize         int
	NewSize            int
	ReplacementsNeeded int
	RetentionRate      float64
	SuccessRate        float64
	ReplacementNeeded  bool
}

// RunSummary is the persisted audit row of a committed run.
type RunSummary struct {
	CreatedAt         time.Time
	ID                string
	Period            Period
	TierStats         TierStats
	OriginalSize      int
	Survivors         int
	Attrited          int
	NewSize           int
	RetentionRate     float64
	ReplacementNeeded bool
}

// Summary reduces a result to its audit row.
func (r *RunResult) Summary() RunSummary {
	return RunSummary{
		ID:                r.ID,
		Period:            r.Period,
		CreatedAt:         r.CreatedAt,
		OriginalSize:      r.OriginalSize,
		Survivors:         len(r.Survivors),
		Attrited:          len(r.Attrited),
		TierStats:         r.TierStats,
		NewSize:           r.NewSize,
		RetentionRate:     r.RetentionRate,
		ReplacementNeeded: r.ReplacementNeeded,
	}
}
