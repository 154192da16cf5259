package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/panel-keeper/internal/model"
	"github.com/Veraticus/panel-keeper/internal/panel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStorage_AggregateSample(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SaveActivity(ctx, []model.ActivityRecord{
		rec(202203, "a", "522110", 10, 400),
		rec(202203, "b", "522120", 20, 600),
		rec(202203, "c", "445110", 5, 50),
		rec(202203, "outside", "522110", 99, 9999),
		rec(202202, "a", "522110", 1, 1),
	}))

	got, err := store.AggregateSample(ctx, 202203, []string{"a", "b", "c", "gone"})
	require.NoError(t, err)

	require.Len(t, got.ByCategory, 2)
	fin := got.ByCategory["522"]
	assert.Equal(t, 2, fin.UniqueMerchants)
	assert.InDelta(t, 30.0, fin.TotalTransactions, 1e-9)
	assert.InDelta(t, 1000.0, fin.TotalValue, 1e-9)
	assert.InDelta(t, 500.0, fin.AvgValuePerMerchant, 1e-9)
	assert.InDelta(t, 1000.0/30.0, fin.AvgValuePerTxn, 1e-9)

	require.Len(t, got.BySubCategory, 3)
	assert.Equal(t, 1, got.BySubCategory["445110"].UniqueMerchants)

	assert.Equal(t, 3, got.Overall.UniqueMerchants)
	assert.InDelta(t, 1050.0, got.Overall.TotalValue, 1e-9)
	assert.InDelta(t, 35.0, got.Overall.TotalTransactions, 1e-9)
}

func TestSQLiteStorage_AggregateSampleMatchesMemory(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	records := createTestActivity(202203, 12)
	require.NoError(t, store.SaveActivity(ctx, records))

	keys := []string{"m001", "m002", "m005", "m007", "m011", "m012"}
	fromSQL, err := store.AggregateSample(ctx, 202203, keys)
	require.NoError(t, err)

	fromMemory, err := panel.NewMemoryAggregator(store).AggregateSample(ctx, 202203, keys)
	require.NoError(t, err)

	assertMetricsEqual(t, fromMemory.Overall, fromSQL.Overall)
	require.Len(t, fromSQL.ByCategory, len(fromMemory.ByCategory))
	for code, want := range fromMemory.ByCategory {
		assertMetricsEqual(t, want, fromSQL.ByCategory[code])
	}
	require.Len(t, fromSQL.BySubCategory, len(fromMemory.BySubCategory))
	for code, want := range fromMemory.BySubCategory {
		assertMetricsEqual(t, want, fromSQL.BySubCategory[code])
	}
}

func TestSQLiteStorage_AggregateSampleEmpty(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	got, err := store.AggregateSample(ctx, 202203, nil)
	require.NoError(t, err)
	assert.Empty(t, got.ByCategory)
	assert.Zero(t, got.Overall.UniqueMerchants)

	// Keys with no activity in the period aggregate to zeros.
	got, err = store.AggregateSample(ctx, 202203, []string{"nobody"})
	require.NoError(t, err)
	assert.Empty(t, got.ByCategory)
	assert.Empty(t, got.BySubCategory)
	assert.Zero(t, got.Overall.TotalValue)
	assert.Zero(t, got.Overall.AvgValuePerTxn)
}

func assertMetricsEqual(t *testing.T, want, got model.GroupMetrics) {
	t.Helper()
	assert.Equal(t, want.Code, got.Code)
	assert.Equal(t, want.UniqueMerchants, got.UniqueMerchants, want.Code)
	assert.InDelta(t, want.TotalTransactions, got.TotalTransactions, 1e-6, want.Code)
	assert.InDelta(t, want.TotalValue, got.TotalValue, 1e-6, want.Code)
	assert.InDelta(t, want.AvgValuePerMerchant, got.AvgValuePerMerchant, 1e-6, want.Code)
	assert.InDelta(t, want.AvgValuePerTxn, got.AvgValuePerTxn, 1e-6, want.Code)
}
