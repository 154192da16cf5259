package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/panel-keeper/internal/model"
)

// SaveActivity upserts activity records. Records are keyed by period and merchant.
func (s *SQLiteStorage) SaveActivity(ctx context.Context, records []model.ActivityRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateActivity(records); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO activity (period, merchant_key, category, subcategory, txn_count, total_value)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(period, merchant_key) DO UPDATE SET
			category = excluded.category,
			subcategory = excluded.subcategory,
			txn_count = excluded.txn_count,
			total_value = excluded.total_value
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		_, err = stmt.ExecContext(ctx,
			int(r.Period),
			r.MerchantKey,
			r.CategoryCode(),
			r.SubCategory,
			r.TxnCount,
			r.TotalValue,
		)
		if err != nil {
			return fmt.Errorf("failed to save activity for %s in %s: %w", r.MerchantKey, r.Period, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ActiveMerchants returns the sorted keys of merchants with activity in period.
// A period with no data yields an empty slice.
func (s *SQLiteStorage) ActiveMerchants(ctx context.Context, period model.Period) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT merchant_key FROM activity
		WHERE period = ?
		ORDER BY merchant_key
	`, int(period))
	if err != nil {
		return nil, fmt.Errorf("failed to query active merchants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan merchant key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// ActivityForPeriods returns every record in the given periods.
func (s *SQLiteStorage) ActivityForPeriods(ctx context.Context, periods []model.Period) ([]model.ActivityRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return []model.ActivityRecord{}, nil
	}

	args := make([]any, len(periods))
	for i, p := range periods {
		if err := validatePeriod(p); err != nil {
			return nil, err
		}
		args[i] = int(p)
	}

	query := fmt.Sprintf(`
		SELECT period, merchant_key, category, subcategory, txn_count, total_value
		FROM activity
		WHERE period IN (%s)
		ORDER BY period, merchant_key
	`, strings.TrimSuffix(strings.Repeat("?,", len(periods)), ","))

	return s.queryActivity(ctx, s.db, query, args...)
}

// ActivityForMerchants returns the period's records for the given merchants.
func (s *SQLiteStorage) ActivityForMerchants(ctx context.Context, period model.Period, keys []string) ([]model.ActivityRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePeriod(period); err != nil {
		return nil, err
	}
	if err := validateKeys(keys); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []model.ActivityRecord{}, nil
	}

	var records []model.ActivityRecord
	err := s.withSample(ctx, keys, func(q queryable) error {
		var qErr error
		records, qErr = s.queryActivity(ctx, q, `
			SELECT a.period, a.merchant_key, a.category, a.subcategory, a.txn_count, a.total_value
			FROM activity a
			JOIN temp.sample_keys k ON k.merchant_key = a.merchant_key
			WHERE a.period = ?
			ORDER BY a.merchant_key
		`, int(period))
		return qErr
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *SQLiteStorage) queryActivity(ctx context.Context, q queryable, query string, args ...any) ([]model.ActivityRecord, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []model.ActivityRecord{}
	for rows.Next() {
		var r model.ActivityRecord
		var period int
		if err := rows.Scan(&period, &r.MerchantKey, &r.Category, &r.SubCategory, &r.TxnCount, &r.TotalValue); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		r.Period = model.Period(period)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity: %w", err)
	}
	return records, nil
}
