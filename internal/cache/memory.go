package cache

import (
	"context"
	"sync"
	"time"

	"mirror/webuntis/internal/payload"
)

type entry struct {
	stored  time.Time
	payload payload.Payload
}

// Memory is the in-process Store. Stale entries are evicted on read and by Sweep.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, entries: make(map[string]entry)}
}

func (m *Memory) expired(e entry, now time.Time) bool {
	return now.Sub(e.stored) > m.ttl
}

func (m *Memory) Get(_ context.Context, signature string) (payload.Payload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[signature]
	if !ok {
		return payload.Payload{}, ErrMiss
	}
	if m.expired(e, m.now()) {
		delete(m.entries, signature)
		return payload.Payload{}, ErrMiss
	}
	return e.payload, nil
}

func (m *Memory) Set(_ context.Context, signature string, p payload.Payload) error {
	p.ID = ""
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[signature] = entry{stored: m.now(), payload: p}
	return nil
}

func (m *Memory) Sweep(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for sig, e := range m.entries {
		if m.expired(e, now) {
			delete(m.entries, sig)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
