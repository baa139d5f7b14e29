// Package backup snapshots the stored task blob and keeps a bounded history.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dohr-michael/todoglass/internal/storage"
)

const (
	filePrefix   = "todos-"
	fileExt      = ".json"
	stampLayout  = "20060102-150405"
	snapshotGlob = filePrefix + "*" + fileExt
)

// Snapshot copies the value stored under key into dir as todos-YYYYMMDD-HHMMSS.json.
// It returns an empty path when the key has never been written.
func Snapshot(ctx context.Context, kv storage.KV, key, dir string, now time.Time) (string, error) {
	value, ok, err := kv.Load(ctx, key)
	if err != nil {
		return "", fmt.Errorf("load %q: %w", key, err)
	}
	if !ok {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	path := nextName(dir, now.UTC().Format(stampLayout))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o600); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("rename snapshot: %w", err)
	}
	return path, nil
}

// nextName avoids clobbering a snapshot taken in the same second.
func nextName(dir, stamp string) string {
	path := filepath.Join(dir, filePrefix+stamp+fileExt)
	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = filepath.Join(dir, filePrefix+stamp+"_"+strconv.Itoa(i)+fileExt)
	}
}

// List returns snapshot paths in dir, newest first.
func List(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	names, err := doublestar.Glob(os.DirFS(dir), snapshotGlob, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob: %w", err)
	}
	// The timestamp layout sorts lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

// Prune deletes all but the newest keep snapshots and returns how many it removed.
// keep <= 0 keeps everything.
func Prune(dir string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	snapshots, err := List(dir)
	if err != nil {
		return 0, err
	}
	if len(snapshots) <= keep {
		return 0, nil
	}

	removed := 0
	for _, path := range snapshots[keep:] {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove %s: %w", path, err)
		}
		removed++
	}
	return removed, nil
}
