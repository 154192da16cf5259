package panel

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/Veraticus/panel-keeper/internal/model"
	"github.com/Veraticus/panel-keeper/internal/service"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Aggregate groups one period's records at category, sub-category, and
// overall level. Records from other periods are ignored.
func Aggregate(period model.Period, records []model.ActivityRecord) *model.SampleMetrics {
	type group struct {
		merchants map[string]struct{}
		values    []float64
		txns      float64
	}
	newGroup := func() *group { return &group{merchants: make(map[string]struct{})} }

	byCategory := make(map[string]*group)
	bySub := make(map[string]*group)
	overall := newGroup()

	add := func(groups map[string]*group, code string, r model.ActivityRecord) {
		g, ok := groups[code]
		if !ok {
			g = newGroup()
			groups[code] = g
		}
		g.merchants[r.MerchantKey] = struct{}{}
		g.values = append(g.values, r.TotalValue)
		g.txns += r.TxnCount
	}

	for _, r := range records {
		if r.Period != period {
			continue
		}
		add(byCategory, r.CategoryCode(), r)
		if r.SubCategory != "" {
			add(bySub, r.SubCategory, r)
		}
		overall.merchants[r.MerchantKey] = struct{}{}
		overall.values = append(overall.values, r.TotalValue)
		overall.txns += r.TxnCount
	}

	finish := func(code string, g *group) model.GroupMetrics {
		m := model.GroupMetrics{
			Code:              code,
			UniqueMerchants:   len(g.merchants),
			TotalTransactions: g.txns,
			TotalValue:        floats.Sum(g.values),
		}
		if len(g.values) > 0 {
			m.AvgValuePerMerchant = stat.Mean(g.values, nil)
		}
		if g.txns != 0 {
			m.AvgValuePerTxn = m.TotalValue / g.txns
		}
		return m
	}

	metrics := &model.SampleMetrics{
		Period:        period,
		ByCategory:    make(map[string]model.GroupMetrics, len(byCategory)),
		BySubCategory: make(map[string]model.GroupMetrics, len(bySub)),
		Overall:       finish("", overall),
	}
	for code, g := range byCategory {
		metrics.ByCategory[code] = finish(code, g)
	}
	for code, g := range bySub {
		metrics.BySubCategory[code] = finish(code, g)
	}
	return metrics
}

// MemoryAggregator aggregates samples in process over an ActivitySource.
type MemoryAggregator struct {
	source service.ActivitySource
}

// NewMemoryAggregator creates an aggregator reading from source.
func NewMemoryAggregator(source service.ActivitySource) *MemoryAggregator {
	return &MemoryAggregator{source: source}
}

// AggregateSample implements service.Aggregator.
func (a *MemoryAggregator) AggregateSample(ctx context.Context, period model.Period, keys []string) (*model.SampleMetrics, error) {
	records, err := a.source.ActivityForMerchants(ctx, period, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to load sample activity: %w", err)
	}
	return Aggregate(period, records), nil
}

// NewDelta computes the change between two figures. A zero before-value
// yields a zero percentage change.
func NewDelta(before, after float64) model.Delta {
	d := model.Delta{
		Before: before,
		After:  after,
		Change: after - before,
	}
	if before != 0 {
		d.PctChange = d.Change / before * 100
	}
	return d
}

func compareGroup(code string, before, after model.GroupMetrics) model.GroupComparison {
	return model.GroupComparison{
		Code:                code,
		UniqueMerchants:     NewDelta(float64(before.UniqueMerchants), float64(after.UniqueMerchants)),
		TotalTransactions:   NewDelta(before.TotalTransactions, after.TotalTransactions),
		TotalValue:          NewDelta(before.TotalValue, after.TotalValue),
		AvgValuePerMerchant: NewDelta(before.AvgValuePerMerchant, after.AvgValuePerMerchant),
		AvgValuePerTxn:      NewDelta(before.AvgValuePerTxn, after.AvgValuePerTxn),
	}
}

func compareLevel(before, after map[string]model.GroupMetrics) []model.GroupComparison {
	codes := make(map[string]struct{}, len(before)+len(after))
	for code := range before {
		codes[code] = struct{}{}
	}
	for code := range after {
		codes[code] = struct{}{}
	}

	out := make([]model.GroupComparison, 0, len(codes))
	for code := range codes {
		// a missing side reads as the zero GroupMetrics
		out = append(out, compareGroup(code, before[code], after[code]))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Compare builds the before/after report. Codes present on only one side are
// compared against zeros. Nil metrics are treated as an empty sample.
func Compare(before, after *model.SampleMetrics) *model.Comparison {
	if before == nil {
		before = &model.SampleMetrics{}
	}
	if after == nil {
		after = &model.SampleMetrics{}
	}
	period := after.Period
	if period == 0 {
		period = before.Period
	}

	return &model.Comparison{
		Period:        period,
		Categories:    compareLevel(before.ByCategory, after.ByCategory),
		SubCategories: compareLevel(before.BySubCategory, after.BySubCategory),
		Overall:       compareGroup("", before.Overall, after.Overall),
	}
}

// TopMovers returns up to n groups ordered by descending absolute
// total-value change. n <= 0 returns every group.
func TopMovers(groups []model.GroupComparison, n int) []model.GroupComparison {
	sorted := make([]model.GroupComparison, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].TotalValue.Change) > math.Abs(sorted[j].TotalValue.Change)
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// LevelSummary totals merchants and value across one level of a comparison.
type LevelSummary struct {
	Merchants model.Delta
	Value     model.Delta
}

// SummarizeLevel sums the before and after sides of groups.
func SummarizeLevel(groups []model.GroupComparison) LevelSummary {
	var mb, ma, vb, va float64
	for _, g := range groups {
		mb += g.UniqueMerchants.Before
		ma += g.UniqueMerchants.After
		vb += g.TotalValue.Before
		va += g.TotalValue.After
	}
	return LevelSummary{
		Merchants: NewDelta(mb, ma),
		Value:     NewDelta(vb, va),
	}
}
