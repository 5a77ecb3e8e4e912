package jobs

import (
	"context"
	"log"
	"time"

	"mirror/webuntis/internal/cache"
	"mirror/webuntis/internal/config"
)

func StartCacheSweepJob(ctx context.Context, cfg config.Config, store cache.Store) {
	if store == nil {
		log.Printf("cache sweep job disabled: no cache configured")
		return
	}
	interval := cfg.CacheSweepInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := sweepOnce(ctx, store); removed > 0 {
					log.Printf("cache sweep job evicted %d entries", removed)
				}
			}
		}
	}()
}

func sweepOnce(ctx context.Context, store cache.Store) int {
	removed, err := store.Sweep(ctx)
	if err != nil {
		log.Printf("[WARN] cache sweep job error: %v", err)
		return 0
	}
	return removed
}
