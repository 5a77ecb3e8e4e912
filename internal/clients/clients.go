package clients

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"mirror/webuntis/internal/cache"
	"mirror/webuntis/internal/config"
	"mirror/webuntis/internal/untis"
)

// Clients holds the outbound connections of the server.
type Clients struct {
	Untis *untis.Client
	Redis *redis.Client
}

// New builds the upstream client and, when REDIS_ADDR is set, a pinged
// Redis client.
func New(ctx context.Context, cfg config.Config) (*Clients, error) {
	c := &Clients{Untis: untis.New(cfg.UpstreamTimeout, cfg.UpstreamRate, cfg.UpstreamBurst)}
	if cfg.RedisAddr == "" {
		return c, nil
	}
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := ping(ctx, c.Redis, 5*time.Second); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Cache returns the payload cache backed by Redis when configured, in
// memory otherwise.
func (c *Clients) Cache(ttl time.Duration) cache.Store {
	if c.Redis != nil {
		return cache.NewRedis(c.Redis, ttl)
	}
	return cache.NewMemory(ttl)
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Untis != nil {
		c.Untis.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Printf("redis close error: %v", err)
		}
	}
}

func ping(ctx context.Context, client *redis.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return client.Ping(ctx).Err()
}
