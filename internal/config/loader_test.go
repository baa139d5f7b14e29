package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	content := `{
	// This is a JSONC comment
	"storage": {
		"driver": "sqlite",
		"path": "${{ .Env.TODOS_DB }}",
		"encrypt": true,
	},
	"gateway": {
		"host": "0.0.0.0",
		"port": 9999
	},
	"backup": {
		"cron": "0 * * * *", /* hourly */
		"keep": 3
	}
}`

	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TODOS_DB", "/var/lib/todos.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Storage.Driver != DriverSQLite {
		t.Errorf("expected driver sqlite, got %s", cfg.Storage.Driver)
	}
	if cfg.Storage.Path != "/var/lib/todos.db" {
		t.Errorf("expected env-expanded path, got %s", cfg.Storage.Path)
	}
	if !cfg.Storage.Encrypt {
		t.Error("expected encrypt true")
	}
	if cfg.Gateway.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %s", cfg.Gateway.Host)
	}
	if cfg.Gateway.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Gateway.Port)
	}
	if cfg.Backup.Cron != "0 * * * *" || cfg.Backup.Keep != 3 {
		t.Errorf("unexpected backup config: %+v", cfg.Backup)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TODOGLASS_PATH", "/tmp/tg-home")

	content := `{}`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Storage.Driver != DriverFile {
		t.Errorf("expected default driver file, got %s", cfg.Storage.Driver)
	}
	if cfg.Storage.Path != "/tmp/tg-home/data" {
		t.Errorf("expected default path, got %s", cfg.Storage.Path)
	}
	if cfg.Storage.Key != "glassmorphism-todos" {
		t.Errorf("expected default key, got %s", cfg.Storage.Key)
	}
	if cfg.Gateway.Host != "127.0.0.1" {
		t.Errorf("expected default host 127.0.0.1, got %s", cfg.Gateway.Host)
	}
	if cfg.Gateway.Port != 18421 {
		t.Errorf("expected default port 18421, got %d", cfg.Gateway.Port)
	}
	if cfg.Events.BufferSize != 256 {
		t.Errorf("expected default buffer 256, got %d", cfg.Events.BufferSize)
	}
	if cfg.Backup.Keep != 10 || cfg.Backup.Dir != "/tmp/tg-home/backups" {
		t.Errorf("unexpected backup defaults: %+v", cfg.Backup)
	}
}

func TestLoadDefaults_SQLitePath(t *testing.T) {
	t.Setenv("TODOGLASS_PATH", "/tmp/tg-home")

	cfg, err := Parse([]byte(`{"storage": {"driver": "sqlite"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Path != "/tmp/tg-home/todos.db" {
		t.Errorf("expected sqlite default path, got %s", cfg.Storage.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.jsonc")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte(`{"storage": `))
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "redis"
	if err := cfg.Validate(); err == nil {
		t.Error("expected unknown driver to fail validation")
	}

	cfg = Default()
	cfg.Gateway.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected invalid port to fail validation")
	}
}

func TestExpandEnvTemplates(t *testing.T) {
	t.Setenv("TEST_KEY", "my-secret")
	result := expandEnvTemplates(`{"key": "${{ .Env.TEST_KEY }}"}`)
	expected := `{"key": "my-secret"}`
	if result != expected {
		t.Errorf("expected %s, got %s", expected, result)
	}
}
