package usercache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/pptbot/pptbot/internal/domain"
)

// Store is the subset of the Redis client the cache needs. The instrumented
// wrapper from pkg/redis satisfies it.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Cache provides Redis-backed caching for user profiles.
type Cache struct {
	store Store
}

// NewCache constructs a user cache backed by the provided store.
func NewCache(store Store) *Cache {
	return &Cache{store: store}
}

// Get fetches a cached user profile if it exists.
func (c *Cache) Get(ctx context.Context, userID int64) (*domain.User, error) {
	if c == nil || c.store == nil {
		return nil, nil
	}

	data, err := c.store.Get(ctx, cacheKey(userID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached user: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("decode cached user: %w", err)
	}

	return &user, nil
}

// Set stores the user profile in cache for the provided TTL.
func (c *Cache) Set(ctx context.Context, userID int64, user *domain.User, ttl time.Duration) error {
	if c == nil || c.store == nil || user == nil {
		return nil
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user for cache: %w", err)
	}

	if err := c.store.Set(ctx, cacheKey(userID), payload, ttl); err != nil {
		return fmt.Errorf("set cached user: %w", err)
	}

	return nil
}

// Invalidate removes the cached profile entry if it exists.
func (c *Cache) Invalidate(ctx context.Context, userID int64) error {
	if c == nil || c.store == nil {
		return nil
	}

	if err := c.store.Delete(ctx, cacheKey(userID)); err != nil {
		return fmt.Errorf("delete cached user: %w", err)
	}

	return nil
}

func cacheKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}
