// Package heartbeat lets the status command find a running gateway.
package heartbeat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Status represents the liveness state of the gateway.
type Status string

const (
	StatusAlive Status = "alive"
	StatusStale Status = "stale"
	StatusDead  Status = "dead"
)

// DefaultInterval is how often a running gateway refreshes its file.
const DefaultInterval = 30 * time.Second

// Info describes the process that owns the heartbeat. Addr is empty when
// it exposes no endpoint.
type Info struct {
	Addr   string `json:"addr,omitempty"`
	Driver string `json:"driver"`
	Path   string `json:"path"`
	Key    string `json:"key"`
}

// Serves reports whether the owner holds the collection stored under key at
// driver and path.
func (i Info) Serves(driver, path, key string) bool {
	return i.Driver == driver && i.Key == key && filepath.Clean(i.Path) == filepath.Clean(path)
}

// Heartbeat is the data written to the heartbeat file.
type Heartbeat struct {
	Info
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

// URL returns the gateway base URL.
func (hb *Heartbeat) URL() string {
	return "http://" + hb.Addr
}

// Writer periodically rewrites the heartbeat file until stopped.
type Writer struct {
	path     string
	info     Info
	interval time.Duration
	started  time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWriter creates a writer for path. A non-positive interval means DefaultInterval.
func NewWriter(path string, info Info, interval time.Duration) *Writer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Writer{path: path, info: info, interval: interval}
}

// Start writes the first heartbeat synchronously, then keeps refreshing it.
func (w *Writer) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return nil
	}

	w.started = time.Now()
	if err := w.write(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := w.write(); err != nil {
					slog.Warn("heartbeat write failed", "path", w.path, "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop stops writing and removes the heartbeat file.
func (w *Writer) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel == nil {
		return
	}

	w.cancel()
	<-w.done
	w.cancel = nil

	_ = os.Remove(w.path)
}

func (w *Writer) write() error {
	hb := Heartbeat{
		Info:      w.info,
		PID:       os.Getpid(),
		StartedAt: w.started,
		Timestamp: time.Now(),
		Uptime:    time.Since(w.started).Truncate(time.Second).String(),
	}

	data, err := json.MarshalIndent(hb, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return err
	}

	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, w.path)
}

// Check reads a heartbeat file and reports whether its gateway looks alive.
// A heartbeat older than maxAge is stale; a missing file is dead.
func Check(path string, maxAge time.Duration) (Status, *Heartbeat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return StatusDead, nil, nil
		}
		return StatusDead, nil, fmt.Errorf("read heartbeat: %w", err)
	}

	var hb Heartbeat
	if err := json.Unmarshal(data, &hb); err != nil {
		return StatusDead, nil, fmt.Errorf("unmarshal heartbeat: %w", err)
	}

	if time.Since(hb.Timestamp) > maxAge {
		return StatusStale, &hb, nil
	}
	return StatusAlive, &hb, nil
}
