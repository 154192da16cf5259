package cli

import (
	"fmt"
	"strings"

	"github.com/Veraticus/panel-keeper/internal/model"
	"github.com/Veraticus/panel-keeper/internal/panel"
	"github.com/charmbracelet/lipgloss"
)

// FormatPct formats a percentage change with sign and color.
func FormatPct(pct float64) string {
	s := fmt.Sprintf("%+.1f%%", pct)
	switch {
	case pct > 0:
		return PositiveStyle.Render(s)
	case pct < 0:
		return NegativeStyle.Render(s)
	default:
		return SubtleStyle.Render(s)
	}
}

// FormatDelta renders "before → after (pct)". Values use decimals places.
func FormatDelta(d model.Delta, decimals int) string {
	return fmt.Sprintf("%.*f %s %.*f (%s)", decimals, d.Before, ArrowIcon, decimals, d.After, FormatPct(d.PctChange))
}

// RenderRunSummary renders the sizes and tier statistics of a run.
func RenderRunSummary(result *model.RunResult) string {
	var b strings.Builder

	line := func(label string, value any) {
		fmt.Fprintf(&b, "%s %v\n", BoldStyle.Render(fmt.Sprintf("%-22s", label+":")), value)
	}

	line("Period", result.Period)
	line("Run", SubtleStyle.Render(result.ID))
	line("Original size", result.OriginalSize)
	line("Target size", result.TargetSize)
	line("Survivors", len(result.Survivors))
	line("Attrited", len(result.Attrited))
	if len(result.Dormant) > 0 {
		line("Dormant", len(result.Dormant))
	}

	if !result.ReplacementNeeded {
		b.WriteString("\n" + FormatSuccess("No replacement needed - panel within target") + "\n\n")
	} else {
		line("Replacements needed", result.ReplacementsNeeded)
		line("Tier 1 (exact, tight)", result.TierStats.Tier1)
		line("Tier 2 (exact, loose)", result.TierStats.Tier2)
		line("Tier 3 (parent)", result.TierStats.Tier3)
		notFound := fmt.Sprint(result.TierStats.NotFound)
		if result.TierStats.NotFound > 0 {
			notFound = WarningStyle.Render(notFound)
		}
		line("Not found", notFound)
		line("Success rate", fmt.Sprintf("%.1f%%", result.SuccessRate*100))
	}

	line("New size", result.NewSize)
	rate := fmt.Sprintf("%.1f%%", result.RetentionRate*100)
	if result.NewSize < result.TargetSize {
		rate = WarningStyle.Render(rate + " (below target)")
	} else {
		rate = SuccessStyle.Render(rate)
	}
	line("Retention rate", rate)

	return RenderBox(fmt.Sprintf("Panel replacement %s", result.Period), strings.TrimRight(b.String(), "\n"))
}

// RenderComparison renders the overall row, both level summaries, and the
// top movers of each level. topN <= 0 shows every group.
func RenderComparison(cmp *model.Comparison, topN int) string {
	if cmp == nil {
		return FormatInfo("No comparison available")
	}
	var b strings.Builder
	b.WriteString(FormatTitle(fmt.Sprintf("Before %s After (%s)", ArrowIcon, cmp.Period)) + "\n")

	o := cmp.Overall
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Merchants:    "), FormatDelta(o.UniqueMerchants, 0))
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Transactions: "), FormatDelta(o.TotalTransactions, 0))
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Total value:  "), FormatDelta(o.TotalValue, 2))
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Value / txn:  "), FormatDelta(o.AvgValuePerTxn, 2))

	for _, level := range []struct {
		name   string
		groups []model.GroupComparison
	}{
		{name: "Category", groups: cmp.Categories},
		{name: "Sub-category", groups: cmp.SubCategories},
	} {
		if len(level.groups) == 0 {
			continue
		}
		s := panel.SummarizeLevel(level.groups)
		b.WriteString("\n" + SubtitleStyle.UnsetMargins().Render(fmt.Sprintf(
			"%s level: %d groups, merchants %s, value %s",
			level.name, len(level.groups), FormatDelta(s.Merchants, 0), FormatDelta(s.Value, 2))) + "\n")
		b.WriteString(RenderGroupTable(panel.TopMovers(level.groups, topN)) + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// RenderGroupTable renders one row per group comparison.
func RenderGroupTable(groups []model.GroupComparison) string {
	headers := []string{"Code", "Merchants", "Txns", "Value", "Change", "%", "Value/Merchant", "Value/Txn"}
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{
			g.Code,
			fmt.Sprintf("%.0f %s %.0f", g.UniqueMerchants.Before, ArrowIcon, g.UniqueMerchants.After),
			fmt.Sprintf("%.0f %s %.0f", g.TotalTransactions.Before, ArrowIcon, g.TotalTransactions.After),
			fmt.Sprintf("%.2f %s %.2f", g.TotalValue.Before, ArrowIcon, g.TotalValue.After),
			fmt.Sprintf("%+.2f", g.TotalValue.Change),
			FormatPct(g.TotalValue.PctChange),
			fmt.Sprintf("%.2f", g.AvgValuePerMerchant.After),
			fmt.Sprintf("%.2f", g.AvgValuePerTxn.After),
		})
	}
	return renderTable(headers, rows)
}

// RenderRunList renders stored run summaries, newest first.
func RenderRunList(runs []model.RunSummary) string {
	if len(runs) == 0 {
		return FormatInfo("No runs recorded yet")
	}
	headers := []string{"Created", "Period", "Run", "Original", "Survivors", "Attrited", "T1", "T2", "T3", "Not found", "New", "Retention"}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Period.String(),
			shortID(r.ID),
			fmt.Sprint(r.OriginalSize),
			fmt.Sprint(r.Survivors),
			fmt.Sprint(r.Attrited),
			fmt.Sprint(r.TierStats.Tier1),
			fmt.Sprint(r.TierStats.Tier2),
			fmt.Sprint(r.TierStats.Tier3),
			fmt.Sprint(r.TierStats.NotFound),
			fmt.Sprint(r.NewSize),
			fmt.Sprintf("%.1f%%", r.RetentionRate*100),
		})
	}
	return renderTable(headers, rows)
}

// RenderReplacements renders a run's replacement audit.
func RenderReplacements(reps []model.Replacement) string {
	if len(reps) == 0 {
		return FormatInfo("No replacements")
	}
	headers := []string{"Attrited", "Replacement", "Tier", "Category", "Volume"}
	rows := make([][]string, 0, len(reps))
	for _, r := range reps {
		rows = append(rows, []string{
			r.AttritedKey,
			r.ReplacementKey,
			fmt.Sprint(int(r.Tier)),
			fmt.Sprintf("%s %s %s", r.CategoryOriginal, ArrowIcon, r.CategoryReplacement),
			fmt.Sprintf("%.2f %s %.2f", r.VolumeOriginal, ArrowIcon, r.VolumeReplacement),
		})
	}
	return renderTable(headers, rows)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// renderTable lays out cells in padded columns. Widths ignore ANSI codes.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	pad := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = TableCellStyle.Render(c + strings.Repeat(" ", widths[i]-lipgloss.Width(c)))
		}
		return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, pad(headers, TableHeaderStyle))
	for _, row := range rows {
		lines = append(lines, pad(row, lipgloss.NewStyle()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
