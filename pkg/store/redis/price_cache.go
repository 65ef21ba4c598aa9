package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

const priceKeyPrefix = "price:last:"

// PriceCache stores the last successfully fetched token price. Entries do
// not expire.
type PriceCache struct {
	redis *redis.Client
}

// NewPriceCache creates a price cache
func NewPriceCache(redisClient *RedisClient) *PriceCache {
	return &PriceCache{redis: redisClient.GetClient()}
}

// SetLastPrice stores price for tokenID
func (c *PriceCache) SetLastPrice(ctx context.Context, tokenID string, price decimal.Decimal) error {
	if err := c.redis.Set(ctx, priceKeyPrefix+tokenID, price.String(), 0).Err(); err != nil {
		return fmt.Errorf("failed to cache price: %w", err)
	}
	return nil
}

// GetLastPrice returns the stored price; ok is false when none is stored
func (c *PriceCache) GetLastPrice(ctx context.Context, tokenID string) (decimal.Decimal, bool, error) {
	raw, err := c.redis.Get(ctx, priceKeyPrefix+tokenID).Result()
	if err == redis.Nil {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to read cached price: %w", err)
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to parse cached price %q: %w", raw, err)
	}
	return price, true, nil
}
