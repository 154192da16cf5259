package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/Veraticus/panel-keeper/internal/cli"
	"github.com/Veraticus/panel-keeper/internal/config"
	"github.com/Veraticus/panel-keeper/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate external services",
	}
	cmd.AddCommand(authSheetsCmd())
	return cmd
}

func authSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Authorize Google Sheets export",
		Long: `Run the OAuth2 browser flow and store the refresh token in the config
file under sheets.refresh_token. Service account users can skip this and
set sheets.service_account_path instead.`,
		RunE: runAuthSheets,
	}

	cmd.Flags().String("client-id", "", "OAuth2 Client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 Client Secret (overrides config)")
	cmd.Flags().String("callback", sheets.DefaultCallbackAddr, "Local address for the OAuth2 callback")

	return cmd
}

func runAuthSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	clientID := viper.GetString("sheets.client_id")
	clientSecret := viper.GetString("sheets.client_secret")
	if flagID, _ := cmd.Flags().GetString("client-id"); flagID != "" {
		clientID = flagID
	}
	if flagSecret, _ := cmd.Flags().GetString("client-secret"); flagSecret != "" {
		clientSecret = flagSecret
	}
	if clientID == "" {
		clientID = os.Getenv(sheets.EnvClientID)
	}
	if clientSecret == "" {
		clientSecret = os.Getenv(sheets.EnvClientSecret)
	}
	callback, _ := cmd.Flags().GetString("callback")

	dir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	token, err := sheets.Authorize(ctx, sheets.OAuth2Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenFile:    filepath.Join(dir, "sheets-token.json"),
		CallbackAddr: callback,
	}, func(url string) {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Open this URL to authorize Google Sheets:"))
		fmt.Fprintln(cmd.OutOrStdout(), url)
		openBrowser(url)
	})
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	viper.Set("sheets.refresh_token", token.RefreshToken)
	if err := saveConfig(); err != nil {
		slog.Warn("Failed to update config file with refresh token", "error", err)
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Add this to your config.yaml manually:"))
		fmt.Fprintf(cmd.OutOrStdout(), "sheets:\n  refresh_token: %q\n", token.RefreshToken)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Google Sheets export is configured. Use 'panel replace --export'."))
	return nil
}

func saveConfig() error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return err
		}
		configFile = filepath.Join(dir, "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0750); err != nil {
		return err
	}

	return viper.WriteConfigAs(configFile)
}

// openBrowser tries to open the URL in the default browser.
func openBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start() //nolint:gosec
	case "darwin":
		err = exec.Command("open", url).Start() //nolint:gosec
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start() //nolint:gosec
	}
	if err != nil {
		slog.Debug("Failed to open browser", "error", err)
	}
}
