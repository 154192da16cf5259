package panel

import (
	"sort"

	"github.com/Veraticus/panel-keeper/internal/model"
	"gonum.org/v1/gonum/stat"
)

// BuildProfiles summarizes lookback records per merchant. Means are taken over
// the periods in which the merchant had a record. The profile category is the
// one reported in the merchant's most recent period.
func BuildProfiles(records []model.ActivityRecord) map[string]model.Profile {
	type acc struct {
		volumes  []float64
		txns     []float64
		periods  map[model.Period]struct{}
		latest   model.Period
		category string
	}

	byKey := make(map[string]*acc)
	for _, r := range records {
		a, ok := byKey[r.MerchantKey]
		if !ok {
			a = &acc{periods: make(map[model.Period]struct{})}
			byKey[r.MerchantKey] = a
		}
		a.volumes = append(a.volumes, r.TotalValue)
		a.txns = append(a.txns, r.TxnCount)
		a.periods[r.Period] = struct{}{}
		if r.Period >= a.latest {
			a.latest = r.Period
			a.category = r.CategoryCode()
		}
	}

	profiles := make(map[string]model.Profile, len(byKey))
	for key, a := range byKey {
		profiles[key] = model.Profile{
			MerchantKey:   key,
			Category:      a.category,
			AvgVolume:     stat.Mean(a.volumes, nil),
			AvgTxnCount:   stat.Mean(a.txns, nil),
			ActivePeriods: len(a.periods),
		}
	}
	return profiles
}

// CandidatePool selects profiles eligible to replace attrited merchants:
// currently active, not tracked, and active in at least minActive lookback
// periods. The pool is ordered by merchant key so that tier searches are
// deterministic.
func CandidatePool(profiles map[string]model.Profile, tracked, active []string, minActive int) []model.Profile {
	trackedSet := newKeySet(tracked)
	activeSet := newKeySet(active)

	pool := make([]model.Profile, 0, len(profiles))
	for key, p := range profiles {
		if trackedSet.has(key) || !activeSet.has(key) {
			continue
		}
		if p.ActivePeriods < minActive {
			continue
		}
		pool = append(pool, p)
	}
	sort.Slice(pool, func(i, j int) bool {
		return pool[i].MerchantKey < pool[j].MerchantKey
	})
	return pool
}
