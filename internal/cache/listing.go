// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// listing.go provides a Valkey-backed cache of category listings.
// A listing is the JSON body served for one category, item kind,
// language and descendants flag, so repeated requests skip the two
// aggregation queries entirely.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// listingKeyPrefix is the Valkey key prefix for cached listings.
	listingKeyPrefix = "listing:"

	// DefaultListingTTL is how long a listing stays cached.
	DefaultListingTTL = 5 * time.Minute
)

// ListingKey identifies one cached listing.
type ListingKey struct {
	CategoryID  uuid.UUID
	Kind        string // "courses", "blogposts", "persons" or "overview"
	Language    string
	Descendants bool
}

// String returns the Valkey key without the prefix.
func (k ListingKey) String() string {
	desc := "0"
	if k.Descendants {
		desc = "1"
	}
	return fmt.Sprintf("%s:%s:%s:%s", k.CategoryID, k.Kind, k.Language, desc)
}

// ListingCache stores category listings in Valkey. A nil *ListingCache is
// valid and never hits, so callers work unchanged without Valkey.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewListingCache creates a listing cache backed by the given Valkey client.
func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	if ttl == 0 {
		ttl = DefaultListingTTL
	}
	return &ListingCache{client: client, ttl: ttl}
}

// Get decodes a cached listing into dst. Returns false on miss or error.
func (lc *ListingCache) Get(ctx context.Context, key ListingKey, dst any) bool {
	if lc == nil {
		return false
	}
	val, err := lc.client.Get(ctx, listingKeyPrefix+key.String()).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		slog.Warn("listing cache get error", "key", key.String(), "error", err)
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		slog.Warn("listing cache decode error", "key", key.String(), "error", err)
		return false
	}
	slog.Debug("listing cache hit", "key", key.String())
	return true
}

// Set encodes and stores a listing with the configured TTL.
func (lc *ListingCache) Set(ctx context.Context, key ListingKey, v any) {
	if lc == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("listing cache encode error", "key", key.String(), "error", err)
		return
	}
	if err := lc.client.Set(ctx, listingKeyPrefix+key.String(), data, lc.ttl).Err(); err != nil {
		slog.Warn("listing cache set error", "key", key.String(), "error", err)
	}
}

// InvalidateCategory removes every listing of one category.
func (lc *ListingCache) InvalidateCategory(ctx context.Context, categoryID uuid.UUID) {
	if lc == nil {
		return
	}
	deleted := lc.deleteMatching(ctx, listingKeyPrefix+categoryID.String()+":*")
	slog.Debug("listing cache invalidated", "category_id", categoryID, "deleted", deleted)
}

// InvalidateAll removes all cached listings. Publishing an item can change
// the listings of every category it is tagged with and of their ancestors,
// so publish and unpublish clear the whole cache.
func (lc *ListingCache) InvalidateAll(ctx context.Context) {
	if lc == nil {
		return
	}
	if deleted := lc.deleteMatching(ctx, listingKeyPrefix+"*"); deleted > 0 {
		slog.Info("listing cache fully cleared", "deleted", deleted)
	}
}

// deleteMatching scans for keys matching pattern and deletes them in
// batches. Returns the number of keys deleted.
func (lc *ListingCache) deleteMatching(ctx context.Context, pattern string) int {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := lc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("listing cache scan error", "error", err)
			return deleted
		}
		if len(keys) > 0 {
			if err := lc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("listing cache bulk delete error", "error", err)
			} else {
				deleted += len(keys)
			}
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return deleted
}
