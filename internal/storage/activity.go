package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dohr-michael/todoglass/internal/events"
)

// activityTypes are the bus events worth keeping on disk.
var activityTypes = []events.EventType{
	events.EventTodosLoaded,
	events.EventTodosSaveFailed,
	events.EventTodoAdded,
	events.EventTodoUpdated,
	events.EventTodoDeleted,
	events.EventBackupCreated,
}

// ActivityLog appends store events to a JSONL file.
type ActivityLog struct {
	mu          sync.Mutex
	path        string
	unsubscribe func()
}

// NewActivityLog subscribes to todo events on bus and appends each one to path.
func NewActivityLog(path string, bus *events.Bus) *ActivityLog {
	al := &ActivityLog{path: path}
	al.unsubscribe = bus.Subscribe(al.handleEvent, activityTypes...)
	return al
}

// Path returns the JSONL file location.
func (al *ActivityLog) Path() string { return al.path }

// Close unsubscribes the log from the event bus.
func (al *ActivityLog) Close() {
	if al.unsubscribe != nil {
		al.unsubscribe()
	}
}

func (al *ActivityLog) handleEvent(e events.Event) {
	if err := al.append(e); err != nil {
		slog.Warn("activity log write failed", "path", al.path, "error", err)
	}
}

func (al *ActivityLog) append(e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	al.mu.Lock()
	defer al.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(al.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(al.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// ReadActivity returns the last n events recorded at path, oldest first.
// n <= 0 returns everything. A missing file yields no events.
func ReadActivity(path string, n int) ([]events.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open activity log: %w", err)
	}
	defer f.Close()

	var out []events.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e events.Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue // torn line from a crash mid-append
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read activity log: %w", err)
	}
	if n > 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}
