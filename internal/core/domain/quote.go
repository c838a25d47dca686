package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRateQuote is a dated mid rate for one currency against the
// reference currency, expressed as units of reference currency per 1 unit
// of the quoted currency. At most one quote exists per (currency, date).
// The reference currency itself is implicitly 1 and is never stored.
type ExchangeRateQuote struct {
	Currency string          `json:"currency"`
	Date     time.Time       `json:"date"`
	Rate     decimal.Decimal `json:"rate"`
}
