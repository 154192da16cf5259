package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/panel-keeper/internal/cli"
	"github.com/Veraticus/panel-keeper/internal/config"
	"github.com/Veraticus/panel-keeper/internal/model"
	"github.com/Veraticus/panel-keeper/internal/panel"
	"github.com/Veraticus/panel-keeper/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func replaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replace",
		Short: "Replace attrited panel members for a period",
		Long: `Detect tracked merchants with no activity in the period, find a similar
active merchant for each one, and commit the rebuilt tracked set.

Matching tiers, first match wins:
  1. same category, volume and transaction count within the tight bounds
  2. same category, volume within the loose bounds
  3. same parent category

No replacement is made when the survivors already meet the target
retention.`,
		RunE: runReplace,
	}

	cmd.Flags().StringP("period", "p", "", "Period to process, YYYYMM (default: last month)")
	cmd.Flags().Float64P("retention", "r", 0, "Target retention fraction (default: replacement.target_retention)")
	cmd.Flags().Bool("dedup", false, "Never assign one candidate to two attrited merchants")
	cmd.Flags().Int("workers", 4, "Parallel matcher workers")
	cmd.Flags().Bool("dry-run", false, "Show the result without committing it")
	cmd.Flags().Bool("export", false, "Export the committed run to Google Sheets")
	cmd.Flags().Int("top", 10, "Groups shown per comparison level (0 for all)")
	cmd.Flags().Bool("show-replacements", false, "List every replacement")

	_ = viper.BindPFlag(config.KeyDedup, cmd.Flags().Lookup("dedup"))
	_ = viper.BindPFlag(config.KeyWorkers, cmd.Flags().Lookup("workers"))

	return cmd
}

func runReplace(cmd *cobra.Command, _ []string) error {
	periodFlag, _ := cmd.Flags().GetString("period")
	retention, _ := cmd.Flags().GetFloat64("retention")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	export, _ := cmd.Flags().GetBool("export")
	showReplacements, _ := cmd.Flags().GetBool("show-replacements")

	if export && dryRun {
		return fmt.Errorf("--export requires a committed run; drop --dry-run")
	}

	period, err := periodArg(periodFlag, time.Now())
	if err != nil {
		return err
	}

	// Load the export config first so a bad setup fails before any work.
	var sheetsCfg *sheets.Config
	if export {
		sheetsCfg, err = config.LoadSheetsConfig(viper.GetViper())
		if err != nil {
			return fmt.Errorf("sheets export not configured: %w", err)
		}
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, stop := interrupts.HandleInterrupts(cmd.Context(), "Replacement")
	defer stop()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	engine, err := newEngine(store, panel.WithProgress(cli.NewMatchProgress(cmd.ErrOrStderr())))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Replacing attrited merchants for %s", period)))

	result, err := engine.Run(ctx, period, retention)
	if err != nil {
		if interrupts.WasInterrupted() {
			return fmt.Errorf("replacement interrupted")
		}
		return err
	}

	renderResult(cmd, result, topN(cmd), showReplacements)

	if dryRun {
		fmt.Fprintln(out, cli.FormatWarning("Dry run: nothing was committed"))
		return nil
	}

	if err := engine.Commit(ctx, result); err != nil {
		return err
	}
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Committed %d members for %s (run %s)", result.NewSize, period, result.ID)))

	if export {
		writer, err := sheets.NewWriter(ctx, *sheetsCfg, slog.Default())
		if err != nil {
			return err
		}
		if err := writer.Write(ctx, result); err != nil {
			return fmt.Errorf("run %s committed but export failed: %w", result.ID, err)
		}
		fmt.Fprintln(out, cli.FormatSuccess("Exported to Google Sheets"))
	}

	return nil
}

func renderResult(cmd *cobra.Command, result *model.RunResult, topN int, showReplacements bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.RenderRunSummary(result))
	if showReplacements && len(result.Replacements) > 0 {
		fmt.Fprintln(out, cli.RenderReplacements(result.Replacements))
	}
	if result.NewSize < result.TargetSize {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Panel is %d below target size %d", result.TargetSize-result.NewSize, result.TargetSize)))
	}
	fmt.Fprintln(out, cli.RenderComparison(result.Comparison, topN))
}
