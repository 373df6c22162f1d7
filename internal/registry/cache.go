package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const marketCacheKey = "registry:market"

// MarketCache keeps the latest market snapshot in Redis so marketplace
// listing reads do not hit the upstream on every navigation.
type MarketCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewMarketCache creates a market cache with the given TTL
func NewMarketCache(rdb *redis.Client, ttl time.Duration) *MarketCache {
	return &MarketCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached market snapshot, or (nil, nil) on a miss
func (c *MarketCache) Get(ctx context.Context) (*Market, error) {
	data, err := c.rdb.Get(ctx, marketCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read market cache: %w", err)
	}

	var market Market
	if err := json.Unmarshal(data, &market); err != nil {
		return nil, fmt.Errorf("failed to decode market cache: %w", err)
	}
	return &market, nil
}

// Set stores a market snapshot with the cache TTL
func (c *MarketCache) Set(ctx context.Context, market *Market) error {
	data, err := json.Marshal(market)
	if err != nil {
		return fmt.Errorf("failed to encode market snapshot: %w", err)
	}
	if err := c.rdb.Set(ctx, marketCacheKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write market cache: %w", err)
	}
	return nil
}
