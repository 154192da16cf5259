package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/panel-keeper/internal/config"
	"github.com/Veraticus/panel-keeper/internal/model"
	"github.com/Veraticus/panel-keeper/internal/panel"
	"github.com/Veraticus/panel-keeper/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initStorage opens the configured database and applies migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath(viper.GetViper()))
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newEngine builds an engine over store from the loaded replacement policy.
// Samples are aggregated in SQL.
func newEngine(store *storage.SQLiteStorage, opts ...panel.Option) (*panel.Engine, error) {
	cfg, err := config.LoadReplacementConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	opts = append([]panel.Option{panel.WithAggregator(store)}, opts...)
	return panel.NewEngine(store, store, cfg, opts...)
}

// periodArg parses a period, defaulting to the month before now.
func periodArg(s string, now time.Time) (model.Period, error) {
	if s == "" {
		return model.PeriodOf(now).Prev(), nil
	}
	return model.ParsePeriod(s)
}

// topN reads --top when given and report.top_n otherwise. The flag is
// shared by several commands so it is not bound to viper.
func topN(cmd *cobra.Command) int {
	if f := cmd.Flags().Lookup("top"); f != nil && f.Changed {
		n, _ := cmd.Flags().GetInt("top")
		return n
	}
	return viper.GetInt(config.KeyReportTopN)
}
