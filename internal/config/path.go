// Package config loads panel settings from viper and the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultDatabasePath is used when database.path is unset.
const DefaultDatabasePath = "$HOME/.local/share/panel/panel.db"

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	switch {
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// ConfigDir returns $XDG_CONFIG_HOME/panel, falling back to ~/.config/panel.
func ConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "panel"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "panel"), nil
}
