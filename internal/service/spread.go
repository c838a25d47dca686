package service

import (
	"fmt"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/config"

	"github.com/shopspring/decimal"
)

// SpreadPolicy selects the broker margin applied to a settlement. The
// promotional spread applies while the account still has monthly
// allowance left; once the allowance is used up the standard spread
// applies. Settlements are never blocked by the allowance.
type SpreadPolicy struct {
	promo    decimal.Decimal
	standard decimal.Decimal
}

// NewSpreadPolicy parses the configured spread strings.
func NewSpreadPolicy(cfg config.BrokerConfig) (*SpreadPolicy, error) {
	promo, err := decimal.NewFromString(cfg.PromoSpread)
	if err != nil {
		return nil, fmt.Errorf("parsing promo spread %q: %w", cfg.PromoSpread, err)
	}
	standard, err := decimal.NewFromString(cfg.StandardSpread)
	if err != nil {
		return nil, fmt.Errorf("parsing standard spread %q: %w", cfg.StandardSpread, err)
	}
	if promo.IsNegative() || standard.IsNegative() ||
		promo.GreaterThanOrEqual(decimal.NewFromInt(1)) ||
		standard.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("spreads must be in [0, 1): promo=%s standard=%s", promo, standard)
	}
	return &SpreadPolicy{promo: promo, standard: standard}, nil
}

// SpreadFor returns the spread for an account that has already made
// monthCount settlements this calendar month against the given allowance.
func (p *SpreadPolicy) SpreadFor(monthCount, allowance int) decimal.Decimal {
	if monthCount < allowance {
		return p.promo
	}
	return p.standard
}
