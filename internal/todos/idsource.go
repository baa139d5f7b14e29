package todos

import (
	"sync"
	"time"
)

// idSource hands out strictly increasing ids: the current epoch millisecond,
// or last+1 when the clock has not moved past the last id.
type idSource struct {
	mu   sync.Mutex
	last ID
	now  func() time.Time
}

func newIDSource(now func() time.Time) *idSource {
	return &idSource{now: now}
}

// Next returns a fresh id.
func (s *idSource) Next() ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ID(s.now().UnixMilli())
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}

// Observe makes sure future ids are greater than id.
func (s *idSource) Observe(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id > s.last {
		s.last = id
	}
}
