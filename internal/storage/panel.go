package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/panel-keeper/internal/common"
	"github.com/Veraticus/panel-keeper/internal/model"
)

// GetPanel returns the tracked set in force at period: the most recent
// snapshot saved at or before it, which may be empty. No snapshot yields an
// empty slice.
func (s *SQLiteStorage) GetPanel(ctx context.Context, period model.Period) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT merchant_key FROM panel_members
		WHERE period = (SELECT MAX(period) FROM panel_snapshots WHERE period <= ?)
		ORDER BY merchant_key
	`, int(period))
	if err != nil {
		return nil, fmt.Errorf("failed to query panel: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan panel member: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// SeedPanel replaces the membership recorded for period.
func (s *SQLiteStorage) SeedPanel(ctx context.Context, period model.Period, keys []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePeriod(period); err != nil {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("%w: members", ErrEmptySlice)
	}
	if err := validateKeys(keys); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := writePanel(ctx, tx, period, keys); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CommitRun records the run, its replacements, and the new membership for
// the run's period in one transaction.
func (s *SQLiteStorage) CommitRun(ctx context.Context, result *model.RunResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRunResult(result); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, period, created_at, original_size, survivors, attrited,
			tier1, tier2, tier3, not_found, new_size, retention_rate, replacement_needed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.ID,
		int(result.Period),
		result.CreatedAt,
		result.OriginalSize,
		len(result.Survivors),
		len(result.Attrited),
		result.TierStats.Tier1,
		result.TierStats.Tier2,
		result.TierStats.Tier3,
		result.TierStats.NotFound,
		len(result.NewPanel),
		result.RetentionRate,
		result.ReplacementNeeded,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if len(result.Replacements) > 0 {
		stmt, prepErr := tx.PrepareContext(ctx, `
			INSERT INTO replacements (
				run_id, attrited_key, replacement_key, tier,
				category_original, category_replacement,
				volume_original, volume_replacement, txn_original, txn_replacement
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if prepErr != nil {
			return fmt.Errorf("failed to prepare statement: %w", prepErr)
		}
		defer func() { _ = stmt.Close() }()

		for _, r := range result.Replacements {
			_, err = stmt.ExecContext(ctx,
				result.ID,
				r.AttritedKey,
				r.ReplacementKey,
				int(r.Tier),
				r.CategoryOriginal,
				r.CategoryReplacement,
				r.VolumeOriginal,
				r.VolumeReplacement,
				r.TxnOriginal,
				r.TxnReplacement,
			)
			if err != nil {
				return fmt.Errorf("failed to insert replacement for %s: %w", r.AttritedKey, err)
			}
		}
	}

	if err := writePanel(ctx, tx, result.Period, result.NewPanel); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// writePanel replaces the membership for period and records its snapshot,
// so an empty set still shadows earlier periods.
func writePanel(ctx context.Context, q queryable, period model.Period, keys []string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM panel_members WHERE period = ?`, int(period)); err != nil {
		return fmt.Errorf("failed to clear panel for %s: %w", period, err)
	}
	for _, key := range keys {
		_, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO panel_members (period, merchant_key) VALUES (?, ?)`,
			int(period), key)
		if err != nil {
			return fmt.Errorf("failed to save panel member %s: %w", key, err)
		}
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO panel_snapshots (period, size, updated_at)
		VALUES (?, (SELECT COUNT(*) FROM panel_members WHERE period = ?), CURRENT_TIMESTAMP)
		ON CONFLICT(period) DO UPDATE SET size = excluded.size, updated_at = excluded.updated_at
	`, int(period), int(period))
	if err != nil {
		return fmt.Errorf("failed to record panel snapshot for %s: %w", period, err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns all runs.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, period, created_at, original_size, survivors, attrited,
			tier1, tier2, tier3, not_found, new_size, retention_rate, replacement_needed
		FROM runs
		ORDER BY created_at DESC, period DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := []model.RunSummary{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recent run committed for period.
func (s *SQLiteStorage) LatestRun(ctx context.Context, period model.Period) (*model.RunSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, period, created_at, original_size, survivors, attrited,
			tier1, tier2, tier3, not_found, new_size, retention_rate, replacement_needed
		FROM runs
		WHERE period = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, int(period))

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no run for %s: %w", period, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (model.RunSummary, error) {
	var run model.RunSummary
	var period int
	err := row.Scan(
		&run.ID,
		&period,
		&run.CreatedAt,
		&run.OriginalSize,
		&run.Survivors,
		&run.Attrited,
		&run.TierStats.Tier1,
		&run.TierStats.Tier2,
		&run.TierStats.Tier3,
		&run.TierStats.NotFound,
		&run.NewSize,
		&run.RetentionRate,
		&run.ReplacementNeeded,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return run, err
	}
	if err != nil {
		return run, fmt.Errorf("failed to scan run: %w", err)
	}
	run.Period = model.Period(period)
	return run, nil
}

// GetReplacements returns a run's replacement audit ordered by attrited merchant.
func (s *SQLiteStorage) GetReplacements(ctx context.Context, runID string) ([]model.Replacement, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT attrited_key, replacement_key, tier, category_original, category_replacement,
			volume_original, volume_replacement, txn_original, txn_replacement
		FROM replacements
		WHERE run_id = ?
		ORDER BY attrited_key
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query replacements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	replacements := []model.Replacement{}
	for rows.Next() {
		var r model.Replacement
		var tier int
		err := rows.Scan(
			&r.AttritedKey,
			&r.ReplacementKey,
			&tier,
			&r.CategoryOriginal,
			&r.CategoryReplacement,
			&r.VolumeOriginal,
			&r.VolumeReplacement,
			&r.TxnOriginal,
			&r.TxnReplacement,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan replacement: %w", err)
		}
		r.Tier = model.Tier(tier)
		replacements = append(replacements, r)
	}
	return replacements, rows.Err()
}
