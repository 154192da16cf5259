package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/panel-keeper/internal/cli"
	"github.com/Veraticus/panel-keeper/internal/config"
	"github.com/Veraticus/panel-keeper/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures the local database has the activity, panel membership,
and run audit tables the replacement engine needs.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	dbPath := config.DatabasePath(viper.GetViper())
	ctx := cmd.Context()

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if status {
		fmt.Fprintln(out, cli.RenderBox("Database Migration Status", fmt.Sprintf(
			"Database: %s\nCurrent version: %d\nLatest version: %d",
			dbPath, current, storage.ExpectedSchemaVersion)))
		return nil
	}

	slog.Info("Running database migrations", "database", dbPath, "from_version", current)

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database at schema version %d", storage.ExpectedSchemaVersion)))
	return nil
}
