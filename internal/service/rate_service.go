package service

import (
	"context"
	"fmt"
	"time"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/domain"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/ports"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RateLookup implements ports.RateSource and ports.RateService on top of
// the quote store with an optional cache in front. The reference currency
// is always worth exactly 1 and is never stored as a quote.
type RateLookup struct {
	quotes    ports.QuoteRepository
	cache     ports.QuoteCache
	reference string
	log       zerolog.Logger
}

// NewRateLookup creates a rate lookup. cache may be nil.
func NewRateLookup(quotes ports.QuoteRepository, cache ports.QuoteCache, referenceCurrency string, log zerolog.Logger) *RateLookup {
	return &RateLookup{
		quotes:    quotes,
		cache:     cache,
		reference: referenceCurrency,
		log:       log,
	}
}

// LatestRate resolves the newest quote with date <= asOf. It never falls
// back to a stale or default rate: a currency without a usable quote is
// an error.
func (s *RateLookup) LatestRate(ctx context.Context, currency string, asOf time.Time) (decimal.Decimal, error) {
	if currency == s.reference {
		return decimal.NewFromInt(1), nil
	}

	// The cache only ever holds the globally newest quote, so it can
	// serve a lookup only when that quote is already effective at asOf.
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, currency)
		if err != nil {
			s.log.Warn().Err(err).Str("currency", currency).Msg("rate cache lookup failed, falling through to store")
		} else if cached != nil && !cached.Date.After(asOf) {
			return cached.Rate, nil
		}
	}

	quote, err := s.quotes.Latest(ctx, currency, asOf)
	if err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("rate lookup for %s: %w", currency, err))
	}
	if quote == nil {
		return decimal.Zero, apperror.ErrRateUnavailable(currency)
	}
	return quote.Rate, nil
}

// ListLatest returns the newest quote per currency for display.
func (s *RateLookup) ListLatest(ctx context.Context, asOf time.Time) ([]domain.ExchangeRateQuote, error) {
	quotes, err := s.quotes.LatestAll(ctx, asOf)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("listing rates: %w", err))
	}
	return quotes, nil
}
