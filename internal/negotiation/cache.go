package negotiation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"ucphost/pkg/platform/sentinel"
)

// ProfileCache stores fetched platform profiles by URL.
// Get returns sentinel.ErrNotFound on a miss or an expired entry.
type ProfileCache interface {
	Get(ctx context.Context, profileURL string) (*Profile, error)
	Set(ctx context.Context, profileURL string, profile *Profile, ttl time.Duration) error
}

type memoryEntry struct {
	profile   *Profile
	expiresAt time.Time
}

// MemoryProfileCache is a process-local TTL cache.
type MemoryProfileCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryProfileCache creates an empty in-memory cache.
func NewMemoryProfileCache() *MemoryProfileCache {
	return &MemoryProfileCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryProfileCache) Get(_ context.Context, profileURL string) (*Profile, error) {
	c.mu.RLock()
	entry, ok := c.entries[profileURL]
	c.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		if current, ok := c.entries[profileURL]; ok && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, profileURL)
		}
		c.mu.Unlock()
		return nil, sentinel.ErrNotFound
	}
	return entry.profile, nil
}

func (c *MemoryProfileCache) Set(_ context.Context, profileURL string, profile *Profile, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[profileURL] = memoryEntry{profile: profile, expiresAt: c.now().Add(ttl)}
	return nil
}

// Redis key prefix for cached platform profiles
const profileKeyPrefix = "ucp:profile:"

// RedisProfileCache shares fetched profiles between host instances.
type RedisProfileCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisProfileCacheOption configures a RedisProfileCache.
type RedisProfileCacheOption func(*RedisProfileCache)

// WithKeyPrefix overrides the default key prefix.
func WithKeyPrefix(prefix string) RedisProfileCacheOption {
	return func(c *RedisProfileCache) {
		c.keyPrefix = prefix
	}
}

// NewRedisProfileCache constructs a Redis-backed profile cache.
func NewRedisProfileCache(client *redis.Client, opts ...RedisProfileCacheOption) *RedisProfileCache {
	c := &RedisProfileCache{client: client, keyPrefix: profileKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *RedisProfileCache) Get(ctx context.Context, profileURL string) (*Profile, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+profileURL).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cached profile: %w", err)
	}
	var profile Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("decode cached profile: %w", err)
	}
	return &profile, nil
}

func (c *RedisProfileCache) Set(ctx context.Context, profileURL string, profile *Profile, ttl time.Duration) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return c.client.Set(ctx, c.keyPrefix+profileURL, raw, ttl).Err()
}
