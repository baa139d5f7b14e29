package backup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cron "github.com/netresearch/go-cron"

	"github.com/dohr-michael/todoglass/internal/events"
	"github.com/dohr-michael/todoglass/internal/storage"
)

// ParseCron parses a standard 5-field cron expression or a descriptor such as @daily.
func ParseCron(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", expr, err)
	}
	return schedule, nil
}

// Config holds the scheduler dependencies.
type Config struct {
	KV   storage.KV
	Key  string
	Dir  string
	Keep int
	Cron string
	Bus  *events.Bus // optional
}

// Scheduler takes a snapshot and prunes old ones on every cron activation.
type Scheduler struct {
	cfg      Config
	schedule cron.Schedule
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler validates the cron expression. Expressions that can never
// fire, such as "0 0 30 2 *", are rejected.
func NewScheduler(cfg Config) (*Scheduler, error) {
	schedule, err := ParseCron(cfg.Cron)
	if err != nil {
		return nil, err
	}
	if schedule.Next(time.Now()).IsZero() {
		return nil, fmt.Errorf("cron %q never fires", cfg.Cron)
	}
	return &Scheduler{cfg: cfg, schedule: schedule, now: time.Now}, nil
}

// Next returns the next activation after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Start runs the schedule until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	slog.Info("backup scheduler started", "cron", s.cfg.Cron, "dir", s.cfg.Dir, "keep", s.cfg.Keep)
	go s.loop(ctx)
}

// Stop halts the scheduler and waits for a running backup to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	slog.Info("backup scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	for {
		next := s.schedule.Next(s.now())
		if next.IsZero() {
			slog.Warn("backup schedule has no next activation, stopping", "cron", s.cfg.Cron)
			return
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if _, err := s.RunOnce(ctx); err != nil {
				slog.Warn("scheduled backup failed", "error", err)
			}
		}
	}
}

// RunOnce takes one snapshot, prunes, and publishes backup.created.
func (s *Scheduler) RunOnce(ctx context.Context) (events.BackupCreatedPayload, error) {
	path, err := Snapshot(ctx, s.cfg.KV, s.cfg.Key, s.cfg.Dir, s.now())
	if err != nil {
		return events.BackupCreatedPayload{}, err
	}
	payload := events.BackupCreatedPayload{Path: path, Skipped: path == ""}

	if !payload.Skipped {
		pruned, err := Prune(s.cfg.Dir, s.cfg.Keep)
		if err != nil {
			return payload, fmt.Errorf("prune: %w", err)
		}
		payload.Pruned = pruned
	}

	slog.Debug("backup done", "path", payload.Path, "pruned", payload.Pruned, "skipped", payload.Skipped)
	if s.cfg.Bus != nil {
		// Wait for buffer space rather than drop it.
		if err := s.cfg.Bus.PublishAsync(ctx, events.NewTypedEvent(events.SourceBackup, payload)); err != nil {
			slog.Debug("backup event not published", "error", err)
		}
	}
	return payload, nil
}
