// Package panel maintains a fixed-size merchant panel across periods.
//
// A run detects which tracked merchants went quiet in the current period,
// finds replacements for them through a tiered matching policy, rebuilds the
// tracked set, and compares the panel's activity before and after.
package panel

import (
	"fmt"

	"github.com/Veraticus/panel-keeper/internal/common"
)

// AttritionScope selects which tracked merchants can be counted as attrited.
type AttritionScope string

const (
	// ScopeTracked treats every tracked merchant without current activity as attrited.
	ScopeTracked AttritionScope = "tracked"
	// ScopePreviousActive only counts merchants that were active in the previous
	// period; members quiet in both periods are reported as dormant.
	ScopePreviousActive AttritionScope = "previous_active"
)

// Bounds is a multiplicative range around a target value.
type Bounds struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within [target*Min, target*Max].
func (b Bounds) Contains(target, v float64) bool {
	return v >= target*b.Min && v <= target*b.Max
}

func (b Bounds) validate(name string) error {
	if b.Min < 0 || b.Max < b.Min {
		return fmt.Errorf("%w: %s bounds [%g, %g]", common.ErrInvalidConfig, name, b.Min, b.Max)
	}
	return nil
}

// Config holds the replacement policy.
type Config struct {
	AttritionScope    AttritionScope
	Tier1Volume       Bounds
	Tier1Txn          Bounds
	Tier2Volume       Bounds
	TargetRetention   float64
	LookbackPeriods   int
	MinActivePeriods  int
	ParentDigits      int
	Workers           int
	DedupReplacements bool
}

// DefaultConfig returns the default replacement policy.
func DefaultConfig() Config {
	return Config{
		TargetRetention:  0.95,
		LookbackPeriods:  3,
		MinActivePeriods: 2,
		Tier1Volume:      Bounds{Min: 0.3, Max: 1.7},
		Tier1Txn:         Bounds{Min: 0.3, Max: 1.7},
		Tier2Volume:      Bounds{Min: 0.2, Max: 2.0},
		ParentDigits:     2,
		Workers:          4,
		AttritionScope:   ScopeTracked,
	}
}

// Validate checks the policy for impossible settings.
func (c Config) Validate() error {
	if c.TargetRetention <= 0 || c.TargetRetention > 1 {
		return fmt.Errorf("%w: target retention %g must be in (0, 1]", common.ErrInvalidConfig, c.TargetRetention)
	}
	if c.LookbackPeriods <= 0 {
		return fmt.Errorf("%w: lookback periods must be positive", common.ErrInvalidConfig)
	}
	if c.MinActivePeriods < 0 || c.MinActivePeriods > c.LookbackPeriods {
		return fmt.Errorf("%w: min active periods %d outside [0, %d]", common.ErrInvalidConfig, c.MinActivePeriods, c.LookbackPeriods)
	}
	if c.ParentDigits <= 0 {
		return fmt.Errorf("%w: parent digits must be positive", common.ErrInvalidConfig)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", common.ErrInvalidConfig)
	}
	switch c.AttritionScope {
	case ScopeTracked, ScopePreviousActive:
	default:
		return fmt.Errorf("%w: unknown attrition scope %q", common.ErrInvalidConfig, c.AttritionScope)
	}
	for name, b := range map[string]Bounds{
		"tier1 volume": c.Tier1Volume,
		"tier1 txn":    c.Tier1Txn,
		"tier2 volume": c.Tier2Volume,
	} {
		if err := b.validate(name); err != nil {
			return err
		}
	}
	return nil
}
