package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"vocab-backend/internal/srs"
)

const histogramKeyPrefix = "streak_hist:"

// MemoryHistogramCache keeps histograms in process. Suitable for a single
// replica or for tests.
type MemoryHistogramCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	hist    srs.Histogram
	expires time.Time
}

func NewMemoryHistogramCache(ttl time.Duration) *MemoryHistogramCache {
	return &MemoryHistogramCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryHistogramCache) Get(_ context.Context, day string) (srs.Histogram, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[day]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, day)
		return nil, false, nil
	}
	return copyHistogram(e.hist), true, nil
}

func (c *MemoryHistogramCache) Set(_ context.Context, day string, h srs.Histogram) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Only one day is ever live; drop the rest.
	for k := range c.entries {
		if k != day {
			delete(c.entries, k)
		}
	}
	c.entries[day] = memoryEntry{hist: copyHistogram(h), expires: c.now().Add(c.ttl)}
	return nil
}

// RedisHistogramCache shares histograms across replicas.
type RedisHistogramCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisHistogramCache(client *redis.Client, ttl time.Duration) *RedisHistogramCache {
	return &RedisHistogramCache{client: client, ttl: ttl}
}

func (c *RedisHistogramCache) Get(ctx context.Context, day string) (srs.Histogram, bool, error) {
	data, err := c.client.Get(ctx, histogramKeyPrefix+day).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var h srs.Histogram
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, false, err
	}
	return h, true, nil
}

func (c *RedisHistogramCache) Set(ctx context.Context, day string, h srs.Histogram) error {
	data, err := json.Marshal(h)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, histogramKeyPrefix+day, data, c.ttl).Err()
}

func copyHistogram(h srs.Histogram) srs.Histogram {
	out := make(srs.Histogram, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
