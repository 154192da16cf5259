package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/panel-keeper/internal/config"
	"github.com/Veraticus/panel-keeper/internal/scheduler"
	"github.com/Veraticus/panel-keeper/internal/service"
	"github.com/Veraticus/panel-keeper/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run monthly replacements on a cron schedule",
		Long: `Start a long-running scheduler. Each tick replaces attrited merchants for
the calendar month before the tick and commits the result.

The schedule uses six fields with a leading seconds field; the default
"0 0 6 1 * *" fires at 06:00 on the first of every month.`,
		RunE: runSchedule,
	}

	cmd.Flags().String("cron", config.DefaultScheduleCron, "Cron schedule with seconds field")
	cmd.Flags().Bool("export", false, "Export each committed run to Google Sheets")
	cmd.Flags().Bool("run-now", false, "Also run once immediately on start")

	_ = viper.BindPFlag(config.KeyScheduleCron, cmd.Flags().Lookup("cron"))
	_ = viper.BindPFlag(config.KeyScheduleExport, cmd.Flags().Lookup("export"))

	return cmd
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	runNow, _ := cmd.Flags().GetBool("run-now")
	v := viper.GetViper()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	engine, err := newEngine(store)
	if err != nil {
		return err
	}

	var writer service.ReportWriter
	if v.GetBool(config.KeyScheduleExport) {
		sheetsCfg, cfgErr := config.LoadSheetsConfig(v)
		if cfgErr != nil {
			return fmt.Errorf("sheets export not configured: %w", cfgErr)
		}
		w, wErr := sheets.NewWriter(ctx, *sheetsCfg, slog.Default())
		if wErr != nil {
			return wErr
		}
		writer = w
	}

	job := scheduler.NewReplacementJob(scheduler.ReplacementJobConfig{
		Runner: engine,
		Writer: writer,
		Log:    slog.Default(),
	})

	sched := scheduler.New(ctx, slog.Default())
	if err := sched.AddJob(v.GetString(config.KeyScheduleCron), job); err != nil {
		return err
	}

	if runNow {
		if err := sched.RunNow(job); err != nil {
			slog.Error("Immediate run failed", "error", err)
		}
	}

	sched.Start()
	slog.Info("Waiting for scheduled runs; interrupt to stop", "next_period", job.Period())
	<-ctx.Done()
	sched.Stop()

	return nil
}
