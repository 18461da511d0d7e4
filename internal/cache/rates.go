package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ratesKeyPrefix is the Redis key prefix for cached exchange-rate tables.
const ratesKeyPrefix = "fx:rates:"

// GetRates retrieves the cached rate table for a base currency.
// Returns ErrCacheMiss if nothing is cached.
func (c *Cache) GetRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	result, err := c.client.HGetAll(ctx, ratesKeyPrefix+base).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	rates := make(map[string]decimal.Decimal, len(result))
	for code, raw := range result {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			// Skip corrupted field
			continue
		}
		rates[code] = rate
	}
	if len(rates) == 0 {
		return nil, ErrCacheMiss
	}

	return rates, nil
}

// SetRates stores a rate table for a base currency with a TTL.
func (c *Cache) SetRates(ctx context.Context, base string, rates map[string]decimal.Decimal, ttl time.Duration) error {
	if len(rates) == 0 {
		return nil
	}

	key := ratesKeyPrefix + base
	fields := make(map[string]any, len(rates))
	for code, rate := range rates {
		fields[code] = rate.String()
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis cache rates: %w", err)
	}
	return nil
}
