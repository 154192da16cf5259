package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Veraticus/panel-keeper/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
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

// createTestActivity builds count merchants active in period, spread over
// three sub-categories.
func createTestActivity(period model.Period, count int) []model.ActivityRecord {
	subs := []string{"522110", "522120", "445110"}
	records := make([]model.ActivityRecord, count)
	for i := range records {
		records[i] = rec(period, fmt.Sprintf("m%03d", i+1), subs[i%len(subs)], float64(10*(i+1)), float64(100*(i+1)))
	}
	return records
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	require.ErrorIs(t, err, ErrEmptyString)
}

func TestSQLiteStorage_Migrations(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")
	ctx := context.Background()

	store1, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	fresh, err := store1.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Zero(t, fresh)
	require.NoError(t, store1.Migrate(ctx), "initial migration")
	_ = store1.Close()

	// Running migrations again should not error.
	store2, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store2.Close() }()
	require.NoError(t, store2.Migrate(ctx), "repeated migration")

	version, err := store2.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	assert.NoError(t, store2.SaveActivity(ctx, createTestActivity(202203, 1)), "database not functional after migration")
}

func TestSQLiteStorage_ConcurrentAccess(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)

	for i := 0; i < 5; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			r := rec(202203, fmt.Sprintf("concurrent-%d", id), "522110", 1, float64(id))
			if err := store.SaveActivity(ctx, []model.ActivityRecord{r}); err != nil {
				errs <- err
			}
		}(i)
		go func() {
			defer wg.Done()
			if _, err := store.AggregateSample(ctx, 202203, []string{"concurrent-0", "concurrent-1"}); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Concurrent access error: %v", err)
	}

	active, err := store.ActiveMerchants(ctx, 202203)
	require.NoError(t, err)
	assert.Len(t, active, 5)
}
