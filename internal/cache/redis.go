package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mirror/webuntis/internal/payload"
)

// Redis is a Store shared between server instances. Expiry is delegated to
// Redis, so Sweep has nothing to do.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func payloadKey(signature string) string {
	return fmt.Sprintf("webuntis:payload:%s", signature)
}

func encode(p payload.Payload) ([]byte, error) {
	p.ID = ""
	return json.Marshal(p)
}

func decode(data []byte) (payload.Payload, error) {
	var p payload.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return payload.Payload{}, err
	}
	return p, nil
}

func (r *Redis) Get(ctx context.Context, signature string) (payload.Payload, error) {
	if r.client == nil {
		return payload.Payload{}, errors.New("redis_not_configured")
	}
	value, err := r.client.Get(ctx, payloadKey(signature)).Bytes()
	if err == redis.Nil {
		return payload.Payload{}, ErrMiss
	}
	if err != nil {
		return payload.Payload{}, err
	}
	return decode(value)
}

func (r *Redis) Set(ctx context.Context, signature string, p payload.Payload) error {
	if r.client == nil {
		return errors.New("redis_not_configured")
	}
	data, err := encode(p)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, payloadKey(signature), data, r.ttl).Err()
}

func (r *Redis) Sweep(context.Context) (int, error) {
	return 0, nil
}
