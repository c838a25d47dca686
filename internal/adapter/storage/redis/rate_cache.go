package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RateCache keeps the most recent exchange rate quote per currency in Redis.
// Only the globally newest quote is cached; historical lookups go to Postgres.
type RateCache struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewRateCache creates a Redis-backed rate cache.
func NewRateCache(client *goredis.Client, ttl time.Duration) *RateCache {
	return &RateCache{
		client: client,
		prefix: "rate:",
		ttl:    ttl,
	}
}

type cachedQuote struct {
	Date time.Time       `json:"date"`
	Rate decimal.Decimal `json:"rate"`
}

// Get retrieves the cached quote for a currency.
// Returns nil, nil on a cache miss.
func (c *RateCache) Get(ctx context.Context, currency string) (*domain.ExchangeRateQuote, error) {
	val, err := c.client.Get(ctx, c.prefix+currency).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis rate get: %w", err)
	}

	var cq cachedQuote
	if err := json.Unmarshal(val, &cq); err != nil {
		return nil, fmt.Errorf("redis rate decode: %w", err)
	}

	return &domain.ExchangeRateQuote{
		Currency: currency,
		Date:     cq.Date,
		Rate:     cq.Rate,
	}, nil
}

// Set stores a quote under its currency key.
func (c *RateCache) Set(ctx context.Context, q *domain.ExchangeRateQuote) error {
	payload, err := json.Marshal(cachedQuote{Date: q.Date, Rate: q.Rate})
	if err != nil {
		return fmt.Errorf("redis rate encode: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+q.Currency, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis rate set: %w", err)
	}
	return nil
}
