package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/panel-keeper/internal/cli"
	"github.com/Veraticus/panel-keeper/internal/common"
	"github.com/Veraticus/panel-keeper/internal/model"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compare the committed panel for a period with the one before it",
		Long: `Show the last committed run for a period and the before/after comparison
of the tracked set, both aggregated over the period's activity.`,
		RunE: runReport,
	}

	cmd.Flags().StringP("period", "p", "", "Period to report, YYYYMM (required)")
	cmd.Flags().Int("top", 10, "Groups shown per comparison level (0 for all)")
	cmd.Flags().Bool("show-replacements", false, "List the run's replacements")
	_ = cmd.MarkFlagRequired("period")

	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	periodFlag, _ := cmd.Flags().GetString("period")
	showReplacements, _ := cmd.Flags().GetBool("show-replacements")

	period, err := model.ParsePeriod(periodFlag)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()
	run, err := store.LatestRun(ctx, period)
	switch {
	case errors.Is(err, common.ErrNotFound):
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("No committed run for %s; comparing stored panels", period)))
	case err != nil:
		return err
	default:
		fmt.Fprintln(out, cli.RenderRunList([]model.RunSummary{*run}))
		if showReplacements {
			reps, err := store.GetReplacements(ctx, run.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, cli.RenderReplacements(reps))
		}
	}

	engine, err := newEngine(store)
	if err != nil {
		return err
	}
	cmp, err := engine.Compare(ctx, period)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, cli.RenderComparison(cmp, topN(cmd)))
	return nil
}

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List committed replacement runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderRunList(runs))
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 12, "Maximum runs to list (0 for all)")
	return cmd
}
