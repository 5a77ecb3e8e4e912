package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"mirror/webuntis/internal/config"
	"mirror/webuntis/internal/payload"
)

type countingStore struct {
	sweeps atomic.Int32
}

func (s *countingStore) Get(context.Context, string) (payload.Payload, error) {
	return payload.Payload{}, nil
}

func (s *countingStore) Set(context.Context, string, payload.Payload) error { return nil }

func (s *countingStore) Sweep(context.Context) (int, error) {
	s.sweeps.Add(1)
	return 1, nil
}

func TestCacheSweepJobRunsUntilCancelled(t *testing.T) {
	store := &countingStore{}
	ctx, cancel := context.WithCancel(context.Background())
	StartCacheSweepJob(ctx, config.Config{CacheSweepInterval: 10 * time.Millisecond}, store)

	deadline := time.Now().Add(time.Second)
	for store.sweeps.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least two sweeps, got %d", store.sweeps.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	time.Sleep(30 * time.Millisecond)
	after := store.sweeps.Load()
	time.Sleep(50 * time.Millisecond)
	if store.sweeps.Load() != after {
		t.Fatalf("expected sweeps to stop after cancel")
	}
}
