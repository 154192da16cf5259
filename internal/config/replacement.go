package config

import (
	"github.com/Veraticus/panel-keeper/internal/common"
	"github.com/Veraticus/panel-keeper/internal/panel"
	"github.com/spf13/viper"
)

// Replacement policy keys.
const (
	KeyTargetRetention  = "replacement.target_retention"
	KeyLookbackPeriods  = "replacement.lookback_periods"
	KeyMinActivePeriods = "replacement.min_active_periods"
	KeyTier1VolumeMin   = "replacement.tier1.volume_min"
	KeyTier1VolumeMax   = "replacement.tier1.volume_max"
	KeyTier1TxnMin      = "replacement.tier1.txn_min"
	KeyTier1TxnMax      = "replacement.tier1.txn_max"
	KeyTier2VolumeMin   = "replacement.tier2.volume_min"
	KeyTier2VolumeMax   = "replacement.tier2.volume_max"
	KeyParentDigits     = "replacement.parent_digits"
	KeyDedup            = "replacement.dedup"
	KeyWorkers          = "replacement.workers"
	KeyAttritionScope   = "replacement.attrition_scope"
	KeyReportTopN       = "report.top_n"
	KeyScheduleCron     = "schedule.cron"
	KeyScheduleExport   = "schedule.export"
	KeyDatabasePath     = "database.path"
)

// DefaultScheduleCron runs at 06:00 on the first of every month.
const DefaultScheduleCron = "0 0 6 1 * *"

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	d := panel.DefaultConfig()

	v.SetDefault(KeyDatabasePath, DefaultDatabasePath)
	v.SetDefault(KeyTargetRetention, d.TargetRetention)
	v.SetDefault(KeyLookbackPeriods, d.LookbackPeriods)
	v.SetDefault(KeyMinActivePeriods, d.MinActivePeriods)
	v.SetDefault(KeyTier1VolumeMin, d.Tier1Volume.Min)
	v.SetDefault(KeyTier1VolumeMax, d.Tier1Volume.Max)
	v.SetDefault(KeyTier1TxnMin, d.Tier1Txn.Min)
	v.SetDefault(KeyTier1TxnMax, d.Tier1Txn.Max)
	v.SetDefault(KeyTier2VolumeMin, d.Tier2Volume.Min)
	v.SetDefault(KeyTier2VolumeMax, d.Tier2Volume.Max)
	v.SetDefault(KeyParentDigits, d.ParentDigits)
	v.SetDefault(KeyDedup, d.DedupReplacements)
	v.SetDefault(KeyWorkers, d.Workers)
	v.SetDefault(KeyAttritionScope, string(d.AttritionScope))
	v.SetDefault(KeyReportTopN, 10)
	v.SetDefault(KeyScheduleCron, DefaultScheduleCron)
	v.SetDefault(KeyScheduleExport, false)
}

// LoadReplacementConfig builds and validates the replacement policy.
func LoadReplacementConfig(v *viper.Viper) (panel.Config, error) {
	cfg := panel.Config{
		TargetRetention:   v.GetFloat64(KeyTargetRetention),
		LookbackPeriods:   v.GetInt(KeyLookbackPeriods),
		MinActivePeriods:  v.GetInt(KeyMinActivePeriods),
		Tier1Volume:       panel.Bounds{Min: v.GetFloat64(KeyTier1VolumeMin), Max: v.GetFloat64(KeyTier1VolumeMax)},
		Tier1Txn:          panel.Bounds{Min: v.GetFloat64(KeyTier1TxnMin), Max: v.GetFloat64(KeyTier1TxnMax)},
		Tier2Volume:       panel.Bounds{Min: v.GetFloat64(KeyTier2VolumeMin), Max: v.GetFloat64(KeyTier2VolumeMax)},
		ParentDigits:      v.GetInt(KeyParentDigits),
		DedupReplacements: v.GetBool(KeyDedup),
		Workers:           v.GetInt(KeyWorkers),
		AttritionScope:    panel.AttritionScope(v.GetString(KeyAttritionScope)),
	}

	if err := cfg.Validate(); err != nil {
		return panel.Config{}, common.NewUserError("invalid replacement settings", err)
	}
	return cfg, nil
}

// DatabasePath returns the expanded database location.
func DatabasePath(v *viper.Viper) string {
	p := v.GetString(KeyDatabasePath)
	if p == "" {
		p = DefaultDatabasePath
	}
	return ExpandPath(p)
}
