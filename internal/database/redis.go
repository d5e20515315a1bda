package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients splits blocking work (BLPOP on the job queue, subscriptions)
// from the cache/token client so a long poll never starves a request.
type RedisClients struct {
	Cache  *redis.Client
	Queue  *redis.Client
	PubSub *redis.Client
}

func NewRedisClients(redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clients := &RedisClients{}
	for _, slot := range []struct {
		name string
		dst  **redis.Client
	}{
		{"cache", &clients.Cache},
		{"queue", &clients.Queue},
		{"pubsub", &clients.PubSub},
	} {
		o := *opt
		c := redis.NewClient(&o)
		if err := c.Ping(ctx).Err(); err != nil {
			c.Close()
			clients.Close()
			return nil, fmt.Errorf("failed to ping Redis (%s): %w", slot.name, err)
		}
		*slot.dst = c
	}

	return clients, nil
}

// Ping checks the cache connection; used by the health endpoint.
func (r *RedisClients) Ping(ctx context.Context) error {
	return r.Cache.Ping(ctx).Err()
}

func (r *RedisClients) Close() {
	for _, c := range []*redis.Client{r.Cache, r.Queue, r.PubSub} {
		if c != nil {
			c.Close()
		}
	}
}
