package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/adapter/storage/redis"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateCache_SetGet(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	cache := redis.NewRateCache(client, time.Hour)
	ctx := context.Background()

	quote := &domain.ExchangeRateQuote{
		Currency: "EUR",
		Date:     time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		Rate:     decimal.RequireFromString("4.3500"),
	}

	require.NoError(t, cache.Set(ctx, quote))

	got, err := cache.Get(ctx, "EUR")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "EUR", got.Currency)
	assert.True(t, quote.Date.Equal(got.Date))
	assert.True(t, quote.Rate.Equal(got.Rate))
}

func TestRateCache_Miss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	cache := redis.NewRateCache(client, time.Hour)

	got, err := cache.Get(context.Background(), "USD")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRateCache_Expiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	cache := redis.NewRateCache(client, time.Minute)
	ctx := context.Background()

	quote := &domain.ExchangeRateQuote{
		Currency: "CHF",
		Date:     time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		Rate:     decimal.RequireFromString("4.5990"),
	}
	require.NoError(t, cache.Set(ctx, quote))

	mr.FastForward(2 * time.Minute)

	got, err := cache.Get(ctx, "CHF")
	require.NoError(t, err)
	assert.Nil(t, got, "expired entry should be a miss")
}

func TestRateCache_Overwrite(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	cache := redis.NewRateCache(client, time.Hour)
	ctx := context.Background()

	older := &domain.ExchangeRateQuote{
		Currency: "USD",
		Date:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Rate:     decimal.RequireFromString("3.9400"),
	}
	newer := &domain.ExchangeRateQuote{
		Currency: "USD",
		Date:     time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		Rate:     decimal.RequireFromString("3.9500"),
	}

	require.NoError(t, cache.Set(ctx, older))
	require.NoError(t, cache.Set(ctx, newer))

	got, err := cache.Get(ctx, "USD")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, newer.Date.Equal(got.Date))
	assert.True(t, newer.Rate.Equal(got.Rate))
}
