package heartbeat

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteReadCycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "gateway.json")

	w := NewWriter(path, Info{Addr: "127.0.0.1:18421", Driver: "file", Key: "glassmorphism-todos"}, time.Minute)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	status, hb, err := Check(path, 2*time.Minute)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if status != StatusAlive {
		t.Errorf("expected alive, got %s", status)
	}
	if hb == nil {
		t.Fatal("expected heartbeat, got nil")
	}
	if hb.PID != os.Getpid() {
		t.Errorf("PID: got %d, want %d", hb.PID, os.Getpid())
	}
	if hb.Addr != "127.0.0.1:18421" || hb.Key != "glassmorphism-todos" {
		t.Errorf("unexpected info: %+v", hb.Info)
	}
	if hb.URL() != "http://127.0.0.1:18421" {
		t.Errorf("URL() = %s", hb.URL())
	}
}

func TestRefresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.json")

	w := NewWriter(path, Info{Addr: "x"}, 20*time.Millisecond)
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	_, first, _ := Check(path, time.Minute)
	time.Sleep(80 * time.Millisecond)
	_, second, _ := Check(path, time.Minute)

	if first == nil || second == nil {
		t.Fatal("expected heartbeats")
	}
	if !second.Timestamp.After(first.Timestamp) {
		t.Errorf("timestamp not refreshed: %v then %v", first.Timestamp, second.Timestamp)
	}
}

func TestStaleDetection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.json")

	old := Heartbeat{
		Info:      Info{Addr: "127.0.0.1:1"},
		PID:       os.Getpid(),
		StartedAt: time.Now().Add(-2 * time.Hour),
		Timestamp: time.Now().Add(-1 * time.Hour),
		Uptime:    "1h0m0s",
	}
	data, _ := json.Marshal(old)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	status, hb, err := Check(path, 30*time.Minute)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if status != StatusStale {
		t.Errorf("expected stale, got %s", status)
	}
	if hb == nil || hb.Addr != "127.0.0.1:1" {
		t.Fatalf("unexpected heartbeat: %+v", hb)
	}
}

func TestDeadDetection(t *testing.T) {
	status, hb, err := Check(filepath.Join(t.TempDir(), "gateway.json"), 2*time.Minute)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if status != StatusDead {
		t.Errorf("expected dead, got %s", status)
	}
	if hb != nil {
		t.Errorf("expected nil heartbeat, got %+v", hb)
	}
}

func TestCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	status, _, err := Check(path, time.Minute)
	if err == nil || status != StatusDead {
		t.Errorf("got %s, %v; want dead with error", status, err)
	}
}

func TestStopRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.json")

	w := NewWriter(path, Info{}, 0)
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	w.Stop()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected heartbeat file to be removed after Stop")
	}
}

func TestInfoServes(t *testing.T) {
	info := Info{Driver: "file", Path: "/data/todos/", Key: "glassmorphism-todos"}

	if !info.Serves("file", "/data/todos", "glassmorphism-todos") {
		t.Error("same storage should match")
	}
	if info.Serves("sqlite", "/data/todos", "glassmorphism-todos") {
		t.Error("other driver should not match")
	}
	if info.Serves("file", "/elsewhere", "glassmorphism-todos") {
		t.Error("other path should not match")
	}
	if info.Serves("file", "/data/todos", "other") {
		t.Error("other key should not match")
	}
}
