package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/todoglass/internal/app"
	"github.com/dohr-michael/todoglass/internal/config"
	"github.com/dohr-michael/todoglass/internal/secrets"
)

// NewWakeCommand returns the onboarding subcommand.
func NewWakeCommand() *cli.Command {
	return &cli.Command{
		Name:   "wake",
		Usage:  "Initialize the todoglass home directory (~/.todoglass)",
		Action: runWake,
	}
}

func runWake(_ context.Context, cmd *cli.Command) error {
	out := stdout(cmd)
	root := config.HomePath()
	created := false

	// Ensure directories exist.
	dirs := []string{
		root,
		filepath.Join(root, "data"),
		filepath.Join(root, "backups"),
	}
	for _, d := range dirs {
		if _, err := os.Stat(d); err != nil {
			if err := os.MkdirAll(d, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", d, err)
			}
			fmt.Fprintf(out, "  Created %s\n", d)
			created = true
		}
	}

	// Write default config if missing.
	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); err != nil {
		if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", filepath.Dir(configPath), err)
		}
		if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Fprintf(out, "  Created %s\n", configPath)
		created = true
	}

	// Write default .env if missing.
	dotenvPath := config.DotenvPath()
	if _, err := os.Stat(dotenvPath); err != nil {
		if err := os.WriteFile(dotenvPath, []byte(defaultDotenv), 0o600); err != nil {
			return fmt.Errorf("write .env: %w", err)
		}
		fmt.Fprintf(out, "  Created %s\n", dotenvPath)
		created = true
	}

	// Generate the age identity when the config asks for encryption.
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Storage.Encrypt {
		if _, err := os.Stat(cfg.Storage.KeyFile); err != nil {
			if err := secrets.GenerateIdentity(cfg.Storage.KeyFile); err != nil {
				return fmt.Errorf("generate age identity: %w", err)
			}
			fmt.Fprintf(out, "  Created %s\n", cfg.Storage.KeyFile)
			created = true
		}
	}

	if !created {
		fmt.Fprintf(out, "Already awake. %s is complete, nothing to do.\n", root)
		return nil
	}

	fmt.Fprintln(out, wakeMessage(root))
	return nil
}

const defaultConfig = `{
	// todoglass configuration

	"storage": {
		// "file" keeps one JSON file per key, "sqlite" a single database,
		// "memory" nothing at all.
		"driver": "file",
		"key": "glassmorphism-todos",
		// Seal stored tasks with an age identity (~/.todoglass/.age-key).
		"encrypt": false
	},

	"gateway": {
		"host": "127.0.0.1",
		"port": 18421
	},

	"events": {
		"buffer_size": 256
		// "activity_log": "${{ .Env.HOME }}/.todoglass/activity.jsonl"
	},

	"backup": {
		// Snapshots taken while "todoglass serve" runs. Empty disables.
		"cron": "",
		"keep": 10
	}
}
`

const defaultDotenv = `# todoglass environment variables
# This file is loaded automatically. Existing env vars are never overridden.

# TODOGLASS_PATH=...
`

func wakeMessage(root string) string {
	return fmt.Sprintf(`
  Good morning. Your glass is clean.

  Home set up at %s
  Config, data and backups all live there.

  Next steps:
    1. Tweak %s/config.jsonc if you feel like it
    2. Run: todoglass add "Water the plants"
    3. Run: todoglass (opens the dashboard)
`, root, root)
}
