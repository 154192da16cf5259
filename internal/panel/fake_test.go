package panel

import (
	"context"
	"sort"
	"sync"

	"github.com/Veraticus/panel-keeper/internal/model"
)

// memoryStore is an in-process ActivitySource and PanelStore for tests.
type memoryStore struct {
	records   []model.ActivityRecord
	panels    map[model.Period][]string
	runs      []*model.RunResult
	failWith  error
	failPanel error
	mu        sync.Mutex
}

func newMemoryStore(records ...model.ActivityRecord) *memoryStore {
	return &memoryStore{
		records: records,
		panels:  make(map[model.Period][]string),
	}
}

func (m *memoryStore) ActiveMerchants(_ context.Context, period model.Period) ([]string, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	set := make(keySet)
	for _, r := range m.records {
		if r.Period == period {
			set[r.MerchantKey] = struct{}{}
		}
	}
	return set.sorted(), nil
}

func (m *memoryStore) ActivityForPeriods(_ context.Context, periods []model.Period) ([]model.ActivityRecord, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	want := make(map[model.Period]bool, len(periods))
	for _, p := range periods {
		want[p] = true
	}
	var out []model.ActivityRecord
	for _, r := range m.records {
		if want[r.Period] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) ActivityForMerchants(_ context.Context, period model.Period, keys []string) ([]model.ActivityRecord, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	set := newKeySet(keys)
	var out []model.ActivityRecord
	for _, r := range m.records {
		if r.Period == period && set.has(r.MerchantKey) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) GetPanel(_ context.Context, period model.Period) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPanel != nil {
		return nil, m.failPanel
	}
	var best model.Period
	for p := range m.panels {
		if p <= period && p > best {
			best = p
		}
	}
	return append([]string(nil), m.panels[best]...), nil
}

func (m *memoryStore) SeedPanel(_ context.Context, period model.Period, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panels[period] = newKeySet(keys).sorted()
	return nil
}

func (m *memoryStore) CommitRun(_ context.Context, result *model.RunResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, result)
	m.panels[result.Period] = append([]string(nil), result.NewPanel...)
	return nil
}

func (m *memoryStore) ListRuns(_ context.Context, limit int) ([]model.RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.RunSummary, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) GetReplacements(_ context.Context, runID string) ([]model.Replacement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.ID == runID {
			return r.Replacements, nil
		}
	}
	return nil, nil
}

func rec(period model.Period, key, sub string, txns, value float64) model.ActivityRecord {
	return model.ActivityRecord{
		Period:      period,
		MerchantKey: key,
		SubCategory: sub,
		TxnCount:    txns,
		TotalValue:  value,
	}
}

func profile(key, category string, volume, txns float64) model.Profile {
	return model.Profile{
		MerchantKey:   key,
		Category:      category,
		AvgVolume:     volume,
		AvgTxnCount:   txns,
		ActivePeriods: 3,
	}
}
