package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/panel-keeper/internal/model"
)

// AggregateSample groups the period's activity of the given merchants in SQL.
// It produces the same metrics as panel.Aggregate over the same records.
func (s *SQLiteStorage) AggregateSample(ctx context.Context, period model.Period, keys []string) (*model.SampleMetrics, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePeriod(period); err != nil {
		return nil, err
	}
	if err := validateKeys(keys); err != nil {
		return nil, err
	}

	metrics := &model.SampleMetrics{
		Period:        period,
		ByCategory:    make(map[string]model.GroupMetrics),
		BySubCategory: make(map[string]model.GroupMetrics),
		Overall:       model.GroupMetrics{},
	}
	if len(keys) == 0 {
		return metrics, nil
	}

	const selectGroup = `
		SELECT %s,
			COUNT(DISTINCT a.merchant_key),
			COALESCE(SUM(a.txn_count), 0),
			COALESCE(SUM(a.total_value), 0),
			COALESCE(AVG(a.total_value), 0)
		FROM activity a
		JOIN temp.sample_keys k ON k.merchant_key = a.merchant_key
		WHERE a.period = ? %s
	`

	err := s.withSample(ctx, keys, func(q queryable) error {
		if err := scanGroups(ctx, q,
			fmt.Sprintf(selectGroup, "a.category", "GROUP BY a.category"),
			int(period), metrics.ByCategory); err != nil {
			return fmt.Errorf("failed to aggregate categories: %w", err)
		}
		if err := scanGroups(ctx, q,
			fmt.Sprintf(selectGroup, "a.subcategory", "AND a.subcategory != '' GROUP BY a.subcategory"),
			int(period), metrics.BySubCategory); err != nil {
			return fmt.Errorf("failed to aggregate subcategories: %w", err)
		}

		row := q.QueryRowContext(ctx, fmt.Sprintf(selectGroup, "''", ""), int(period))
		overall, err := scanGroup(row)
		if err != nil {
			return fmt.Errorf("failed to aggregate overall: %w", err)
		}
		metrics.Overall = overall
		return nil
	})
	if err != nil {
		return nil, err
	}
	return metrics, nil
}

func scanGroups(ctx context.Context, q queryable, query string, period int, into map[string]model.GroupMetrics) error {
	rows, err := q.QueryContext(ctx, query, period)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		m, err := scanGroup(rows)
		if err != nil {
			return err
		}
		into[m.Code] = m
	}
	return rows.Err()
}

func scanGroup(row scanner) (model.GroupMetrics, error) {
	var m model.GroupMetrics
	if err := row.Scan(&m.Code, &m.UniqueMerchants, &m.TotalTransactions, &m.TotalValue, &m.AvgValuePerMerchant); err != nil {
		return m, err
	}
	if m.TotalTransactions != 0 {
		m.AvgValuePerTxn = m.TotalValue / m.TotalTransactions
	}
	return m, nil
}
