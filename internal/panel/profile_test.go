package panel

import (
	"testing"

	"github.com/Veraticus/panel-keeper/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProfiles(t *testing.T) {
	records := []model.ActivityRecord{
		rec(202201, "A", "522110", 10, 100),
		rec(202202, "A", "522110", 20, 300),
		{Period: 202202, MerchantKey: "B", Category: "531", SubCategory: "531210", TxnCount: 4, TotalValue: 40},
		rec(202201, "C", "722511", 1, 10),
		rec(202202, "C", "531210", 3, 30),
	}

	profiles := BuildProfiles(records)
	require.Len(t, profiles, 3)

	a := profiles["A"]
	assert.Equal(t, "522", a.Category)
	assert.InDelta(t, 200, a.AvgVolume, 1e-9)
	assert.InDelta(t, 15, a.AvgTxnCount, 1e-9)
	assert.Equal(t, 2, a.ActivePeriods)

	assert.Equal(t, "531", profiles["B"].Category)
	assert.Equal(t, 1, profiles["B"].ActivePeriods)

	assert.Equal(t, "531", profiles["C"].Category, "category comes from the latest period")
}

func TestCandidatePool(t *testing.T) {
	profiles := map[string]model.Profile{
		"Z": {MerchantKey: "Z", ActivePeriods: 3},
		"A": {MerchantKey: "A", ActivePeriods: 3},
		"T": {MerchantKey: "T", ActivePeriods: 3},
		"L": {MerchantKey: "L", ActivePeriods: 1},
		"Q": {MerchantKey: "Q", ActivePeriods: 3},
	}
	tracked := []string{"T"}
	active := []string{"Z", "A", "T", "L"}

	pool := CandidatePool(profiles, tracked, active, 2)

	keys := make([]string, 0, len(pool))
	for _, p := range pool {
		keys = append(keys, p.MerchantKey)
	}
	assert.Equal(t, []string{"A", "Z"}, keys)
}

func TestPeriodLookback(t *testing.T) {
	p := model.Period(202202)
	assert.Equal(t, []model.Period{202201, 202112, 202111}, p.Lookback(3))
	assert.Equal(t, model.Period(202112), model.Period(202201).Prev())
}
