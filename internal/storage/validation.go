// Package storage provides the data persistence layer for the panel application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/panel-keeper/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrEmptySlice       = errors.New("slice cannot be empty")
	ErrInvalidPeriod    = model.ErrInvalidPeriod
	ErrInvalidActivity  = errors.New("invalid activity record")
	ErrInvalidRunResult = errors.New("invalid run result")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validatePeriod(p model.Period) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPeriod, int(p))
	}
	return nil
}

// validateActivity validates a batch of activity records.
func validateActivity(records []model.ActivityRecord) error {
	if records == nil {
		return fmt.Errorf("%w: records", ErrNilParameter)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: records", ErrEmptySlice)
	}

	for i, r := range records {
		if err := validateRecord(r); err != nil {
			return fmt.Errorf("record at index %d: %w", i, err)
		}
	}
	return nil
}

func validateRecord(r model.ActivityRecord) error {
	if strings.TrimSpace(r.MerchantKey) == "" {
		return fmt.Errorf("%w: missing merchant key", ErrInvalidActivity)
	}
	if !r.Period.Valid() {
		return fmt.Errorf("%w: bad period %d", ErrInvalidActivity, int(r.Period))
	}
	if r.CategoryCode() == "" {
		return fmt.Errorf("%w: missing category for %s", ErrInvalidActivity, r.MerchantKey)
	}
	if r.TxnCount < 0 || math.IsNaN(r.TxnCount) || math.IsNaN(r.TotalValue) {
		return fmt.Errorf("%w: bad figures for %s", ErrInvalidActivity, r.MerchantKey)
	}
	return nil
}

// validateKeys ensures every merchant key is non-empty.
func validateKeys(keys []string) error {
	for i, k := range keys {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("%w: merchant key at index %d", ErrEmptyString, i)
		}
	}
	return nil
}

func validateRunResult(r *model.RunResult) error {
	if r == nil {
		return fmt.Errorf("%w: run result", ErrNilParameter)
	}
	if err := validateString(r.ID, "run id"); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRunResult, err)
	}
	if err := validatePeriod(r.Period); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRunResult, err)
	}
	for _, rep := range r.Replacements {
		if rep.Tier < model.TierExactTight || rep.Tier > model.TierParent {
			return fmt.Errorf("%w: replacement %s has tier %d", ErrInvalidRunResult, rep.AttritedKey, rep.Tier)
		}
	}
	return validateKeys(r.NewPanel)
}
