package panel

import (
	"math"
	"testing"

	"github.com/Veraticus/panel-keeper/internal/model"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const p202203 = model.Period(202203)

func TestAggregate(t *testing.T) {
	records := []model.ActivityRecord{
		rec(p202203, "A", "522110", 10, 400),
		rec(p202203, "B", "522120", 30, 600),
		rec(p202203, "C", "722511", 5, 50),
		rec(p202203.Prev(), "A", "522110", 99, 9999),
	}

	m := Aggregate(p202203, records)

	cat := m.ByCategory["522"]
	assert.Equal(t, 2, cat.UniqueMerchants)
	assert.InDelta(t, 40, cat.TotalTransactions, 1e-9)
	assert.InDelta(t, 1000, cat.TotalValue, 1e-9)
	assert.InDelta(t, 500, cat.AvgValuePerMerchant, 1e-9)
	assert.InDelta(t, 25, cat.AvgValuePerTxn, 1e-9)

	sub := m.BySubCategory["722511"]
	assert.Equal(t, 1, sub.UniqueMerchants)
	assert.InDelta(t, 10, sub.AvgValuePerTxn, 1e-9)

	assert.Equal(t, 3, m.Overall.UniqueMerchants)
	assert.InDelta(t, 1050, m.Overall.TotalValue, 1e-9)
	assert.InDelta(t, 1050.0/45.0, m.Overall.AvgValuePerTxn, 1e-9)
}

func TestAggregate_ZeroTransactions(t *testing.T) {
	m := Aggregate(p202203, []model.ActivityRecord{rec(p202203, "A", "522110", 0, 10)})
	assert.Zero(t, m.ByCategory["522"].AvgValuePerTxn)
}

func TestCompare_CategoryChange(t *testing.T) {
	before := Aggregate(p202203, []model.ActivityRecord{
		rec(p202203, "A", "522110", 10, 400),
		rec(p202203, "B", "522110", 10, 600),
	})
	after := Aggregate(p202203, []model.ActivityRecord{
		rec(p202203, "A", "522110", 10, 400),
		rec(p202203, "D", "522110", 10, 800),
	})

	cmpResult := Compare(before, after)
	require.Len(t, cmpResult.Categories, 1)

	g := cmpResult.Categories[0]
	assert.Equal(t, "522", g.Code)
	assert.InDelta(t, 1000, g.TotalValue.Before, 1e-9)
	assert.InDelta(t, 1200, g.TotalValue.After, 1e-9)
	assert.InDelta(t, 200, g.TotalValue.Change, 1e-9)
	assert.InDelta(t, 20.0, g.TotalValue.PctChange, 1e-9)
	assert.InDelta(t, 0, g.UniqueMerchants.Change, 1e-9)
}

func TestCompare_MissingCodesAreZero(t *testing.T) {
	before := Aggregate(p202203, []model.ActivityRecord{rec(p202203, "A", "522110", 10, 400)})
	after := Aggregate(p202203, []model.ActivityRecord{rec(p202203, "D", "722511", 4, 100)})

	c := Compare(before, after)
	require.Len(t, c.Categories, 2)

	gone, added := c.Categories[0], c.Categories[1]
	assert.Equal(t, "522", gone.Code)
	assert.InDelta(t, 0, gone.TotalValue.After, 1e-9)
	assert.InDelta(t, -100, gone.TotalValue.PctChange, 1e-9)

	assert.Equal(t, "722", added.Code)
	assert.InDelta(t, 100, added.TotalValue.Change, 1e-9)
	assert.Zero(t, added.TotalValue.PctChange)
}

func TestNewDelta_ZeroBefore(t *testing.T) {
	tests := []struct {
		name          string
		before, after float64
		wantPct       float64
	}{
		{"zero to zero", 0, 0, 0},
		{"zero to positive", 0, 50, 0},
		{"positive to zero", 50, 0, -100},
		{"growth", 80, 100, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDelta(tt.before, tt.after)
			assert.False(t, math.IsNaN(d.PctChange))
			assert.False(t, math.IsInf(d.PctChange, 0))
			assert.InDelta(t, tt.wantPct, d.PctChange, 1e-9)
		})
	}
}

func TestCompare_Idempotent(t *testing.T) {
	records := []model.ActivityRecord{
		rec(p202203, "A", "522110", 10, 400),
		rec(p202203, "B", "531210", 3, 90),
		rec(p202203, "C", "722511", 5, 50),
	}
	before := Aggregate(p202203, records[:2])
	after := Aggregate(p202203, records[1:])

	first := Compare(before, after)
	second := Compare(before, after)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Compare not idempotent (-first +second):\n%s", diff)
	}
}

func TestCompare_NilSides(t *testing.T) {
	c := Compare(nil, Aggregate(p202203, []model.ActivityRecord{rec(p202203, "A", "522110", 1, 10)}))
	assert.Equal(t, p202203, c.Period)
	require.Len(t, c.Categories, 1)
	assert.InDelta(t, 10, c.Overall.TotalValue.Change, 1e-9)
}

func TestTopMovers(t *testing.T) {
	groups := []model.GroupComparison{
		{Code: "a", TotalValue: NewDelta(0, 10)},
		{Code: "b", TotalValue: NewDelta(0, 30)},
		{Code: "c", TotalValue: NewDelta(10, 0)},
		{Code: "d", TotalValue: NewDelta(0, 20)},
		{Code: "e", TotalValue: NewDelta(50, 0)},
	}

	top := TopMovers(groups, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "e", top[0].Code, "losses rank by magnitude")
	assert.Equal(t, "b", top[1].Code)
	assert.Equal(t, "d", top[2].Code)
	assert.Equal(t, "a", groups[0].Code, "input must not be reordered")

	assert.Len(t, TopMovers(groups, 10), 5)
	assert.Len(t, TopMovers(groups, -1), 5)
	assert.Len(t, TopMovers(groups, 0), 5, "zero means no limit")
	assert.Empty(t, TopMovers(nil, 0))
}

func TestSummarizeLevel(t *testing.T) {
	groups := []model.GroupComparison{
		{UniqueMerchants: NewDelta(2, 2), TotalValue: NewDelta(1000, 1200)},
		{UniqueMerchants: NewDelta(1, 0), TotalValue: NewDelta(0, 0)},
	}
	s := SummarizeLevel(groups)
	assert.InDelta(t, 3, s.Merchants.Before, 1e-9)
	assert.InDelta(t, 2, s.Merchants.After, 1e-9)
	assert.InDelta(t, 20, s.Value.PctChange, 1e-9)
}
