// Package app assembles the task store and its collaborators from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dohr-michael/todoglass/internal/config"
	"github.com/dohr-michael/todoglass/internal/events"
	"github.com/dohr-michael/todoglass/internal/secrets"
	"github.com/dohr-michael/todoglass/internal/storage"
	"github.com/dohr-michael/todoglass/internal/storage/filekv"
	"github.com/dohr-michael/todoglass/internal/storage/sqlitekv"
	"github.com/dohr-michael/todoglass/internal/todos"
)

// ErrIdentityMissing is returned when stored tasks are sealed but the age key
// file is gone. A fresh key could never open them.
var ErrIdentityMissing = errors.New("age identity missing for sealed tasks")

// Options adjust how the app is assembled.
type Options struct {
	// Ephemeral swaps the configured storage for an in-memory KV.
	Ephemeral bool
}

// App owns the store, the bus and every resource opened for them.
type App struct {
	Config *config.Config
	Bus    *events.Bus
	Store  *todos.Store

	// RawKV is the storage before sealing. Backups read from it so they stay encrypted.
	RawKV storage.KV

	closers []func() error
}

// LoadConfig reads the config file at path. A missing file yields the defaults.
func LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("config not found, using defaults", "path", path)
		cfg = config.Default()
	} else if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// New opens storage and builds the store. Call Load (or Store.Load) before
// mutating, and Close when done.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}

	raw, closeKV, err := OpenKV(ctx, cfg.Storage, opts.Ephemeral)
	if err != nil {
		return nil, err
	}
	a.RawKV = raw
	if closeKV != nil {
		a.closers = append(a.closers, closeKV)
	}

	kv := raw
	if cfg.Storage.Encrypt && !opts.Ephemeral {
		sealer, err := openSealer(ctx, raw, cfg.Storage)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("load age identity: %w", err)
		}
		kv = secrets.NewSealedKV(raw, sealer)
		slog.Debug("storage sealed", "recipient", sealer.Recipient())
	}

	a.Bus = events.NewBus(cfg.Events.BufferSize)
	a.closers = append(a.closers, func() error { a.Bus.Close(); return nil })

	if cfg.Events.ActivityLog != "" && !opts.Ephemeral {
		al := storage.NewActivityLog(cfg.Events.ActivityLog, a.Bus)
		a.closers = append(a.closers, func() error { al.Close(); return nil })
	}

	a.Store = todos.NewStore(kv,
		todos.WithKey(cfg.Storage.Key),
		todos.WithPublisher(a.Bus),
	)
	return a, nil
}

// openSealer loads the age identity, generating it only when nothing sealed
// is stored yet.
func openSealer(ctx context.Context, raw storage.KV, cfg config.StorageConfig) (*secrets.Sealer, error) {
	if _, err := os.Stat(cfg.KeyFile); errors.Is(err, os.ErrNotExist) {
		blob, ok, err := raw.Load(ctx, cfg.Key)
		if err != nil {
			return nil, fmt.Errorf("inspect stored tasks: %w", err)
		}
		if ok && secrets.IsSealed(blob) {
			return nil, fmt.Errorf("%w: %s", ErrIdentityMissing, cfg.KeyFile)
		}
	}
	return secrets.LoadSealer(cfg.KeyFile)
}

// Load runs the initial load and waits for it.
func (a *App) Load(ctx context.Context) {
	a.Store.Load(ctx)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// OpenKV opens the configured storage driver. The returned close func may be nil.
func OpenKV(ctx context.Context, cfg config.StorageConfig, ephemeral bool) (storage.KV, func() error, error) {
	if ephemeral {
		return storage.NewMemory(nil), nil, nil
	}
	switch cfg.Driver {
	case config.DriverFile, "":
		slog.Debug("storage opened", "driver", config.DriverFile, "dir", cfg.Path)
		return filekv.New(cfg.Path), nil, nil
	case config.DriverSQLite:
		db, err := sqlitekv.Open(ctx, cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		slog.Debug("storage opened", "driver", config.DriverSQLite, "path", cfg.Path)
		return db, db.Close, nil
	case config.DriverMemory:
		return storage.NewMemory(nil), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
