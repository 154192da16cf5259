package sheets

import (
	"sort"

	"github.com/Veraticus/panel-keeper/internal/model"
	"github.com/shopspring/decimal"
)

// Tab names written by the exporter.
const (
	TabSummary       = "Summary"
	TabReplacements  = "Replacements"
	TabCategories    = "Categories"
	TabSubCategories = "Subcategories"
)

// SummaryRow is a label/value line of the Summary tab.
type SummaryRow struct {
	Label string
	Value any
}

// ReplacementRow represents a single row in the Replacements tab.
type ReplacementRow struct {
	AttritedKey         string
	ReplacementKey      string
	CategoryOriginal    string
	CategoryReplacement string
	VolumeOriginal      decimal.Decimal
	VolumeReplacement   decimal.Decimal
	VolumeRatio         decimal.Decimal
	Tier                int
}

// DeltaCells is one figure's before, after, change and percentage change.
type DeltaCells struct {
	Before    decimal.Decimal
	After     decimal.Decimal
	Change    decimal.Decimal
	PctChange decimal.Decimal
}

// ComparisonRow represents a single row in a comparison tab.
type ComparisonRow struct {
	Code           string
	Merchants      DeltaCells
	Txns           DeltaCells
	Value          DeltaCells
	AvgPerMerchant DeltaCells
	AvgPerTxn      DeltaCells
}

// OverallCode labels the whole-panel row of each comparison tab.
const OverallCode = "Overall"

// TabData holds all the data for one run's export.
type TabData struct {
	RunID         string
	Period        model.Period
	Summary       []SummaryRow
	Replacements  []ReplacementRow
	Overall       *ComparisonRow
	Categories    []ComparisonRow
	SubCategories []ComparisonRow
}

// BuildTabData flattens a run into spreadsheet rows.
func BuildTabData(result *model.RunResult) TabData {
	data := TabData{
		RunID:  result.ID,
		Period: result.Period,
		Summary: []SummaryRow{
			{Label: "Run", Value: result.ID},
			{Label: "Period", Value: result.Period.String()},
			{Label: "Created", Value: result.CreatedAt.UTC().Format("2006-01-02 15:04:05")},
			{Label: "Original size", Value: result.OriginalSize},
			{Label: "Target size", Value: result.TargetSize},
			{Label: "Survivors", Value: len(result.Survivors)},
			{Label: "Attrited", Value: len(result.Attrited)},
			{Label: "Dormant", Value: len(result.Dormant)},
			{Label: "Replacements needed", Value: result.ReplacementsNeeded},
			{Label: "Tier 1", Value: result.TierStats.Tier1},
			{Label: "Tier 2", Value: result.TierStats.Tier2},
			{Label: "Tier 3", Value: result.TierStats.Tier3},
			{Label: "Not found", Value: result.TierStats.NotFound},
			{Label: "New size", Value: result.NewSize},
			{Label: "Retention rate", Value: round(result.RetentionRate, 4)},
			{Label: "Success rate", Value: round(result.SuccessRate, 4)},
		},
	}

	for _, r := range result.Replacements {
		row := ReplacementRow{
			AttritedKey:         r.AttritedKey,
			ReplacementKey:      r.ReplacementKey,
			CategoryOriginal:    r.CategoryOriginal,
			CategoryReplacement: r.CategoryReplacement,
			Tier:                int(r.Tier),
			VolumeOriginal:      round(r.VolumeOriginal, 2),
			VolumeReplacement:   round(r.VolumeReplacement, 2),
		}
		if r.VolumeOriginal != 0 {
			row.VolumeRatio = decimal.NewFromFloat(r.VolumeReplacement).
				Div(decimal.NewFromFloat(r.VolumeOriginal)).Round(3)
		}
		data.Replacements = append(data.Replacements, row)
	}
	sort.Slice(data.Replacements, func(i, j int) bool {
		return data.Replacements[i].AttritedKey < data.Replacements[j].AttritedKey
	})

	if result.Comparison != nil {
		overall := comparisonRow(result.Comparison.Overall)
		overall.Code = OverallCode
		data.Overall = &overall
		data.Categories = comparisonRows(result.Comparison.Categories)
		data.SubCategories = comparisonRows(result.Comparison.SubCategories)
	}
	return data
}

func comparisonRows(groups []model.GroupComparison) []ComparisonRow {
	rows := make([]ComparisonRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, comparisonRow(g))
	}
	return rows
}

func comparisonRow(g model.GroupComparison) ComparisonRow {
	return ComparisonRow{
		Code:           g.Code,
		Merchants:      deltaCells(g.UniqueMerchants),
		Txns:           deltaCells(g.TotalTransactions),
		Value:          deltaCells(g.TotalValue),
		AvgPerMerchant: deltaCells(g.AvgValuePerMerchant),
		AvgPerTxn:      deltaCells(g.AvgValuePerTxn),
	}
}

func deltaCells(d model.Delta) DeltaCells {
	return DeltaCells{
		Before:    round(d.Before, 2),
		After:     round(d.After, 2),
		Change:    round(d.Change, 2),
		PctChange: round(d.PctChange, 2),
	}
}

func round(v float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(places)
}

// Values renders each tab as sheet rows, header first.
func (d TabData) Values() map[string][][]any {
	summary := [][]any{{"Panel Replacement", d.Period.String()}, {}}
	for _, r := range d.Summary {
		summary = append(summary, []any{r.Label, cell(r.Value)})
	}

	replacements := [][]any{{
		"Attrited", "Replacement", "Tier", "Category", "Replacement Category",
		"Volume", "Replacement Volume", "Volume Ratio",
	}}
	for _, r := range d.Replacements {
		replacements = append(replacements, []any{
			r.AttritedKey,
			r.ReplacementKey,
			r.Tier,
			r.CategoryOriginal,
			r.CategoryReplacement,
			r.VolumeOriginal.InexactFloat64(),
			r.VolumeReplacement.InexactFloat64(),
			r.VolumeRatio.InexactFloat64(),
		})
	}

	return map[string][][]any{
		TabSummary:       summary,
		TabReplacements:  replacements,
		TabCategories:    comparisonValues(d.Overall, d.Categories),
		TabSubCategories: comparisonValues(d.Overall, d.SubCategories),
	}
}

// comparisonMetrics names the figures of a comparison row in column order.
var comparisonMetrics = []string{"Merchants", "Txns", "Value", "Value / Merchant", "Value / Txn"}

// comparisonColumns is the width of a comparison tab.
var comparisonColumns = 1 + 4*len(comparisonMetrics)

func comparisonValues(overall *ComparisonRow, rows []ComparisonRow) [][]any {
	header := make([]any, 0, comparisonColumns)
	header = append(header, "Code")
	for _, m := range comparisonMetrics {
		header = append(header, m+" Before", m+" After", m+" Change", m+" % Change")
	}

	values := [][]any{header}
	if overall != nil {
		values = append(values, overall.values())
	}
	for _, r := range rows {
		values = append(values, r.values())
	}
	return values
}

func (r ComparisonRow) values() []any {
	out := make([]any, 0, comparisonColumns)
	out = append(out, r.Code)
	for _, d := range []DeltaCells{r.Merchants, r.Txns, r.Value, r.AvgPerMerchant, r.AvgPerTxn} {
		out = append(out,
			d.Before.InexactFloat64(),
			d.After.InexactFloat64(),
			d.Change.InexactFloat64(),
			d.PctChange.InexactFloat64(),
		)
	}
	return out
}

func cell(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return v
}
