package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		config  Config
		wantErr bool
	}{
		{
			name: "valid oauth config",
			config: Config{
				ClientID:      "test-client",
				ClientSecret:  "test-secret",
				RefreshToken:  "test-token",
				BatchSize:     100,
				RetryAttempts: 3,
				RetryDelay:    time.Second,
			},
		},
		{
			name: "valid service account config",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
				RetryAttempts:      3,
				RetryDelay:         time.Second,
			},
		},
		{
			name: "partial oauth credentials",
			config: Config{
				ClientID:      "test-client",
				RefreshToken:  "test-token",
				BatchSize:     100,
				RetryAttempts: 3,
			},
			wantErr: true,
			errMsg:  "no authentication method configured",
		},
		{
			name: "multiple auth methods",
			config: Config{
				ClientID:           "test-client",
				ClientSecret:       "test-secret",
				RefreshToken:       "test-token",
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
			},
			wantErr: true,
			errMsg:  "multiple authentication methods configured",
		},
		{
			name: "invalid batch size",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          0,
			},
			wantErr: true,
			errMsg:  "batch size must be positive",
		},
		{
			name: "zero retry delay is valid",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
			},
		},
		{
			name: "negative retry attempts",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
				RetryAttempts:      -1,
			},
			wantErr: true,
			errMsg:  "retry attempts cannot be negative",
		},
		{
			name: "negative retry delay",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
				RetryAttempts:      3,
				RetryDelay:         -1 * time.Second,
			},
			wantErr: true,
			errMsg:  "retry delay cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	tests := []struct {
		envVars map[string]string
		check   func(t *testing.T, c Config)
		config  Config
		name    string
	}{
		{
			name: "oauth credentials",
			envVars: map[string]string{
				EnvClientID:        "test-client",
				EnvClientSecret:    "test-secret",
				EnvRefreshToken:    "test-token",
				EnvSpreadsheetID:   "test-id",
				EnvSpreadsheetName: "Test Sheet",
			},
			config: DefaultConfig(),
			check: func(t *testing.T, c Config) {
				t.Helper()
				assert.Equal(t, "test-client", c.ClientID)
				assert.Equal(t, "test-secret", c.ClientSecret)
				assert.Equal(t, "test-token", c.RefreshToken)
				assert.Equal(t, "test-id", c.SpreadsheetID)
				assert.Equal(t, "Test Sheet", c.SpreadsheetName)
				assert.NoError(t, c.Validate())
			},
		},
		{
			name:    "service account keeps default name",
			envVars: map[string]string{EnvServiceAccountPath: "/path/to/key.json"},
			config:  DefaultConfig(),
			check: func(t *testing.T, c Config) {
				t.Helper()
				assert.Equal(t, "/path/to/key.json", c.ServiceAccountPath)
				assert.Equal(t, DefaultSpreadsheetName, c.SpreadsheetName)
			},
		},
		{
			name:    "configured values win",
			envVars: map[string]string{EnvSpreadsheetID: "from-env", EnvSpreadsheetName: "Env Name"},
			config: func() Config {
				c := DefaultConfig()
				c.SpreadsheetID = "from-config"
				c.SpreadsheetName = "Config Name"
				return c
			}(),
			check: func(t *testing.T, c Config) {
				t.Helper()
				assert.Equal(t, "from-config", c.SpreadsheetID)
				assert.Equal(t, "Config Name", c.SpreadsheetName)
			},
		},
		{
			name:   "nothing configured",
			config: DefaultConfig(),
			check: func(t *testing.T, c Config) {
				t.Helper()
				assert.ErrorIs(t, c.Validate(), ErrNoAuth)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{EnvClientID, EnvClientSecret, EnvRefreshToken, EnvServiceAccountPath, EnvSpreadsheetID, EnvSpreadsheetName} {
				t.Setenv(key, tt.envVars[key])
			}

			c := tt.config
			c.ApplyEnv()
			tt.check(t, c)
		})
	}
}
