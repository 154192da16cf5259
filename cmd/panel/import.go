package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/panel-keeper/internal/cli"
	"github.com/Veraticus/panel-keeper/internal/model"
	"github.com/spf13/cobra"
)

// activityColumns is the expected CSV header.
var activityColumns = []string{"period", "merchant_key", "category", "subcategory", "txn_count", "total_value"}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv|->",
		Short: "Import monthly merchant activity",
		Long: `Load per-period merchant activity summaries from CSV.

Columns: period,merchant_key,category,subcategory,txn_count,total_value
The period is YYYYMM or YYYY-MM. Category may be empty when the 6-digit
subcategory is given; its first 3 digits are used. Rows replace existing
activity for the same period and merchant.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().Bool("dry-run", false, "Parse and validate without saving")
	cmd.Flags().Int("batch-size", 5000, "Records saved per transaction")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	if batchSize <= 0 {
		batchSize = 5000
	}

	r, closeFn, err := openInput(cmd, args[0])
	if err != nil {
		return err
	}
	defer closeFn()

	records, err := parseActivityCSV(r)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	periods := make(map[model.Period]int)
	for _, rec := range records {
		periods[rec.Period]++
	}
	slog.Info("Parsed activity", "records", len(records), "periods", len(periods))

	out := cmd.OutOrStdout()
	if dryRun {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d records across %d periods validated", len(records), len(periods))))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		if err := store.SaveActivity(ctx, records[start:end]); err != nil {
			return fmt.Errorf("failed to save records %d-%d: %w", start+1, end, err)
		}
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d records across %d periods", len(records), len(periods))))
	return nil
}

// openInput opens path, or stdin for "-".
func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

// parseActivityCSV reads activity rows. A header row is optional.
func parseActivityCSV(r io.Reader) ([]model.ActivityRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(activityColumns)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var records []model.ActivityRecord
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), activityColumns[0]) {
			continue
		}

		rec, err := parseActivityRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, errors.New("no activity rows")
	}
	return records, nil
}

func parseActivityRow(row []string) (model.ActivityRecord, error) {
	for i := range row {
		row[i] = strings.TrimSpace(row[i])
	}

	period, err := model.ParsePeriod(row[0])
	if err != nil {
		return model.ActivityRecord{}, err
	}
	txns, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return model.ActivityRecord{}, fmt.Errorf("bad txn_count %q: %w", row[4], err)
	}
	value, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return model.ActivityRecord{}, fmt.Errorf("bad total_value %q: %w", row[5], err)
	}

	return model.ActivityRecord{
		Period:      period,
		MerchantKey: row[1],
		Category:    row[2],
		SubCategory: row[3],
		TxnCount:    txns,
		TotalValue:  value,
	}, nil
}
