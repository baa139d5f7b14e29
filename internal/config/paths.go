package config

import (
	"os"
	"path/filepath"
)

// HomePath returns the root directory for todoglass data.
// It uses $TODOGLASS_PATH if set, otherwise defaults to ~/.todoglass.
func HomePath() string {
	if v := os.Getenv("TODOGLASS_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".todoglass")
	}
	return filepath.Join(home, ".todoglass")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(HomePath(), "config.jsonc")
}

// DotenvPath returns the path to the .env file.
func DotenvPath() string {
	return filepath.Join(HomePath(), ".env")
}

// HeartbeatPath returns the gateway heartbeat file.
func HeartbeatPath() string {
	return filepath.Join(HomePath(), "gateway.json")
}

// DashboardPath returns the heartbeat file of a running dashboard.
func DashboardPath() string {
	return filepath.Join(HomePath(), "dashboard.json")
}
