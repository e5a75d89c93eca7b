package profilestore

import (
	"context"
	"errors"
	"sync"
	"time"

	"careerarc/pkg/models"
	"careerarc/pkg/utils"
)

// ErrCacheMiss is returned when no profile is cached for a user
var ErrCacheMiss = errors.New("profile not cached")

// Entry is a cached normalized profile with where it came from
type Entry struct {
	Profile   *models.CareerProfile `json:"profile"`
	Source    string                `json:"source"`
	TaskID    string                `json:"task_id,omitempty"`
	Warning   *string               `json:"warning,omitempty"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// Cache keeps the latest normalized profile of each user
type Cache interface {
	Get(ctx context.Context, userID string) (*Entry, error)
	Put(ctx context.Context, userID string, entry *Entry) error
	Invalidate(ctx context.Context, userID string) error
}

// MemoryCache is a process-local Cache with a fixed time to live
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]*Entry
	now     func() time.Time
}

// NewMemoryCache creates an in-memory cache. A zero ttl never expires entries.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, userID string) (*Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[userID]
	if !ok {
		return nil, ErrCacheMiss
	}
	if c.ttl > 0 && c.now().Sub(entry.UpdatedAt) > c.ttl {
		return nil, ErrCacheMiss
	}
	cp := *entry
	return &cp, nil
}

func (c *MemoryCache) Put(ctx context.Context, userID string, entry *Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cp := *entry
	c.entries[userID] = &cp
	return nil
}

func (c *MemoryCache) Invalidate(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, userID)
	return nil
}

// RedisCache shares cached profiles between service instances
type RedisCache struct {
	client *utils.RedisClient
	ttl    time.Duration
}

// NewRedisCache creates a Redis backed cache
func NewRedisCache(client *utils.RedisClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func profileKey(userID string) string {
	return "careerarc:profile:" + userID
}

func (c *RedisCache) Get(ctx context.Context, userID string) (*Entry, error) {
	var entry Entry
	if err := c.client.GetJSON(ctx, profileKey(userID), &entry); err != nil {
		if errors.Is(err, utils.ErrRedisKeyNotFound) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return &entry, nil
}

func (c *RedisCache) Put(ctx context.Context, userID string, entry *Entry) error {
	return c.client.SetJSON(ctx, profileKey(userID), entry, c.ttl)
}

func (c *RedisCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Delete(ctx, profileKey(userID))
}
