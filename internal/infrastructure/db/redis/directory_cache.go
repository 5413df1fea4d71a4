package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

const defaultDirectoryTTL = 5 * time.Minute

// DirectoryCache keeps the expert directory of each role as a JSON blob.
// Key format: experts:directory:<role>
type DirectoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDirectoryCache creates a DirectoryCache. A non-positive ttl falls back to
// defaultDirectoryTTL.
func NewDirectoryCache(client *redis.Client, ttl time.Duration) *DirectoryCache {
	if ttl <= 0 {
		ttl = defaultDirectoryTTL
	}
	return &DirectoryCache{client: client, ttl: ttl}
}

func (c *DirectoryCache) Get(ctx context.Context, role string) ([]ports.ExpertListing, bool, error) {
	raw, err := c.client.Get(ctx, c.key(role)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("directory cache get: %w", err)
	}

	var listings []ports.ExpertListing
	if err := json.Unmarshal(raw, &listings); err != nil {
		return nil, false, fmt.Errorf("directory cache decode: %w", err)
	}
	return listings, true, nil
}

func (c *DirectoryCache) Set(ctx context.Context, role string, listings []ports.ExpertListing) error {
	raw, err := json.Marshal(listings)
	if err != nil {
		return fmt.Errorf("directory cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(role), raw, c.ttl).Err()
}

// Invalidate drops the cached directories of the given roles.
func (c *DirectoryCache) Invalidate(ctx context.Context, roles ...string) error {
	if len(roles) == 0 {
		return nil
	}
	keys := make([]string, len(roles))
	for i, r := range roles {
		keys[i] = c.key(r)
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *DirectoryCache) key(role string) string {
	return "experts:directory:" + role
}
