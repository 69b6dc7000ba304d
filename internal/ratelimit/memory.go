package ratelimit

import (
	"context"
	"sync"
	"time"
)

const pruneInterval = time.Minute

type window struct {
	count   int
	resetAt time.Time
}

// Memory is a process-local fixed-window limiter. The zero value is not
// usable; create one with NewMemory and share it between middleware.
type Memory struct {
	mu        sync.Mutex
	windows   map[string]*window
	now       func() time.Time
	lastPrune time.Time
}

// NewMemory returns an empty Memory limiter.
func NewMemory() *Memory {
	return NewMemoryWithClock(time.Now)
}

// NewMemoryWithClock returns a Memory limiter reading time from now.
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{
		windows:   make(map[string]*window),
		now:       now,
		lastPrune: now(),
	}
}

// Allow counts one request against policy for key.
func (m *Memory) Allow(_ context.Context, policy Policy, key string) (Result, error) {
	now := m.now()
	k := string(policy.Class) + ":" + key

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pruneLocked(now)

	w, ok := m.windows[k]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(policy.Window)}
		m.windows[k] = w
	}
	w.count++

	return ResultFor(policy, w.count, w.resetAt, now), nil
}

// Len returns the number of live windows.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

func (m *Memory) pruneLocked(now time.Time) {
	if now.Sub(m.lastPrune) < pruneInterval {
		return
	}
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
	m.lastPrune = now
}
