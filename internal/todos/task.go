// Package todos owns the task collection: the model, its blob encoding and the
// Store that applies mutations and mirrors them to persistence.
package todos

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID identifies a task. Values are epoch-millisecond based so that blobs
// written by earlier versions (which used Date.now()) keep their ids.
type ID int64

// String returns the decimal form of the id.
func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

// ParseID parses a decimal task id.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return ID(n), nil
}

// Task is a single to-do item.
type Task struct {
	ID          ID         `json:"id"`
	Text        string     `json:"text"`
	Completed   bool       `json:"completed"`
	Important   bool       `json:"important"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// clone returns a deep copy, so callers never alias the store's CompletedAt.
func (t Task) clone() Task {
	if t.CompletedAt != nil {
		ts := *t.CompletedAt
		t.CompletedAt = &ts
	}
	return t
}

// FilterMode selects which tasks a View shows.
type FilterMode string

const (
	FilterAll       FilterMode = "all"
	FilterActive    FilterMode = "active"
	FilterCompleted FilterMode = "completed"
	FilterImportant FilterMode = "important"
)

// FilterModes lists the modes in display order.
var FilterModes = []FilterMode{FilterAll, FilterActive, FilterCompleted, FilterImportant}

// ErrUnknownFilter is returned by ParseFilterMode for unrecognised names.
var ErrUnknownFilter = errors.New("unknown filter")

// ParseFilterMode parses a filter name case-insensitively. Empty means all.
func ParseFilterMode(s string) (FilterMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FilterAll, nil
	}
	for _, m := range FilterModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want all, active, completed or important)", ErrUnknownFilter, s)
}

// Next returns the mode after m, wrapping around.
func (m FilterMode) Next() FilterMode {
	for i, fm := range FilterModes {
		if fm == m {
			return FilterModes[(i+1)%len(FilterModes)]
		}
	}
	return FilterAll
}

// View is the projection input chosen by the presentation layer.
type View struct {
	Search string     `json:"search,omitempty"`
	Filter FilterMode `json:"filter,omitempty"`
}

// IsDefault reports whether v shows everything (no search, filter all).
func (v View) IsDefault() bool {
	return v.Search == "" && (v.Filter == "" || v.Filter == FilterAll)
}

// Matches reports whether t belongs to the projection.
func (v View) Matches(t Task) bool {
	return MatchesSearch(t, v.Search) && MatchesFilter(t, v.Filter)
}

// MatchesSearch is a case-insensitive substring test. An empty term matches everything.
func MatchesSearch(t Task, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Text), strings.ToLower(term))
}

// MatchesFilter applies a filter mode. Unknown modes match everything.
func MatchesFilter(t Task, mode FilterMode) bool {
	switch mode {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	case FilterImportant:
		return t.Important
	default:
		return true
	}
}

// Counts are predicate counts over the full collection.
type Counts struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Important int `json:"important"`
}

// Filter returns the tasks matching v, preserving order.
func Filter(tasks []Task, v View) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if v.Matches(t) {
			out = append(out, t.clone())
		}
	}
	return out
}

// Count computes Counts over tasks.
func Count(tasks []Task) Counts {
	c := Counts{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			c.Completed++
		} else {
			c.Active++
		}
		if t.Important {
			c.Important++
		}
	}
	return c
}
