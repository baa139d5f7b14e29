package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/tailscale/hujson"
)

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

// Load reads a JSONC config file, expands ${{ .Env.VAR }} templates, strips
// comments and trailing commas, unmarshals it into Config and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes JSONC config bytes.
func Parse(data []byte) (*Config, error) {
	// Templates live inside string literals, so expand before standardizing.
	expanded := expandEnvTemplates(string(data))

	std, err := hujson.Standardize([]byte(expanded))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(std, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	home := HomePath()

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverFile
	}
	if cfg.Storage.Path == "" {
		switch cfg.Storage.Driver {
		case DriverSQLite:
			cfg.Storage.Path = filepath.Join(home, "todos.db")
		default:
			cfg.Storage.Path = filepath.Join(home, "data")
		}
	}
	if cfg.Storage.Key == "" {
		cfg.Storage.Key = "glassmorphism-todos"
	}
	if cfg.Storage.KeyFile == "" {
		cfg.Storage.KeyFile = filepath.Join(home, ".age-key")
	}
	if cfg.Gateway.Host == "" {
		cfg.Gateway.Host = "127.0.0.1"
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 18421
	}
	if cfg.Events.BufferSize == 0 {
		cfg.Events.BufferSize = 256
	}
	if cfg.Backup.Dir == "" {
		cfg.Backup.Dir = filepath.Join(home, "backups")
	}
	if cfg.Backup.Keep == 0 {
		cfg.Backup.Keep = 10
	}
}

// Validate checks values that defaults cannot fix.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q (want file, sqlite or memory)", c.Storage.Driver)
	}
	if c.Gateway.Port < 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("invalid gateway port %d", c.Gateway.Port)
	}
	if c.Backup.Keep < 0 {
		return fmt.Errorf("backup.keep must be positive, got %d", c.Backup.Keep)
	}
	return nil
}
