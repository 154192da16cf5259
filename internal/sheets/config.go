// Package sheets exports panel replacement runs to Google Sheets.
package sheets

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// DefaultSpreadsheetName is used when a new spreadsheet has to be created.
const DefaultSpreadsheetName = "Panel Replacement"

// Environment variables consulted by ApplyEnv.
const (
	EnvClientID           = "GOOGLE_SHEETS_CLIENT_ID"
	EnvClientSecret       = "GOOGLE_SHEETS_CLIENT_SECRET"
	EnvRefreshToken       = "GOOGLE_SHEETS_REFRESH_TOKEN"
	EnvServiceAccountPath = "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"
	EnvSpreadsheetID      = "GOOGLE_SHEETS_SPREADSHEET_ID"
	EnvSpreadsheetName    = "GOOGLE_SHEETS_SPREADSHEET_NAME"
)

// ErrNoAuth is returned when neither OAuth2 nor a service account is configured.
var ErrNoAuth = errors.New("no authentication method configured")

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	EnableFormatting   bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SpreadsheetName:  DefaultSpreadsheetName,
		EnableFormatting: true,
		TimeZone:         "UTC",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
	}
}

// ApplyEnv fills fields that are still empty from GOOGLE_SHEETS_* variables.
func (c *Config) ApplyEnv() {
	fill := func(dst *string, env string) {
		if *dst == "" {
			*dst = os.Getenv(env)
		}
	}
	fill(&c.ClientID, EnvClientID)
	fill(&c.ClientSecret, EnvClientSecret)
	fill(&c.RefreshToken, EnvRefreshToken)
	fill(&c.ServiceAccountPath, EnvServiceAccountPath)
	fill(&c.SpreadsheetID, EnvSpreadsheetID)

	if c.SpreadsheetName == "" || c.SpreadsheetName == DefaultSpreadsheetName {
		if v := os.Getenv(EnvSpreadsheetName); v != "" {
			c.SpreadsheetName = v
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	hasServiceAccount := c.ServiceAccountPath != ""

	if !hasOAuth && !hasServiceAccount {
		return ErrNoAuth
	}

	if hasOAuth && hasServiceAccount {
		return fmt.Errorf("multiple authentication methods configured; use either OAuth2 or service account")
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}

	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts cannot be negative")
	}

	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}

	return nil
}
