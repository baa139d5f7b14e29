package todos

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed marks a persisted blob that is not a valid task sequence.
var ErrMalformed = errors.New("malformed task data")

// Encode serializes tasks as a JSON array in collection order.
func Encode(tasks []Task) (string, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return "", fmt.Errorf("encode tasks: %w", err)
	}
	return string(data), nil
}

// Decode parses a blob produced by Encode. Anything that is not an ordered
// sequence of well-formed task records yields an ErrMalformed error.
func Decode(blob string) ([]Task, error) {
	trimmed := strings.TrimSpace(blob)
	if trimmed == "" || trimmed == "null" {
		return []Task{}, nil
	}
	if !strings.HasPrefix(trimmed, "[") {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformed)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	tasks := make([]Task, 0, len(raw))
	seen := make(map[ID]struct{}, len(raw))
	for i, r := range raw {
		if !bytes.HasPrefix(bytes.TrimSpace(r), []byte("{")) {
			return nil, fmt.Errorf("%w: record %d is not an object", ErrMalformed, i)
		}
		var t Task
		if err := json.Unmarshal(r, &t); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformed, i, err)
		}
		if t.ID == 0 {
			return nil, fmt.Errorf("%w: record %d has no id", ErrMalformed, i)
		}
		if strings.TrimSpace(t.Text) == "" {
			return nil, fmt.Errorf("%w: record %d has empty text", ErrMalformed, i)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrMalformed, t.ID)
		}
		seen[t.ID] = struct{}{}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
