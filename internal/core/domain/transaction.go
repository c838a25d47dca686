package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Visibility partitions the transaction log into the rows end users see
// and the internal clearing/profit bookkeeping.
type Visibility string

const (
	VisibilityUser          Visibility = "user"
	VisibilityDeposit       Visibility = "deposit"
	VisibilityAdminNoProfit Visibility = "admin-noprofit"
	VisibilityAdminProfit   Visibility = "admin-profit"
)

// UserVisible lists the tags shown in a wallet's history.
func UserVisible() []Visibility {
	return []Visibility{VisibilityUser, VisibilityDeposit}
}

// TransactionRecord is an immutable, append-only ledger entry. A single
// settlement produces four records (user, admin-noprofit x2, admin-profit);
// a deposit produces exactly one.
type TransactionRecord struct {
	ID                  uuid.UUID       `json:"id"`
	AccountID           uuid.UUID       `json:"account_id"`
	SourceNumber        string          `json:"source_account_number"`
	SourceCurrency      string          `json:"source_currency"`
	DestinationNumber   string          `json:"destination_account_number"`
	DestinationCurrency string          `json:"destination_currency"`
	Amount              decimal.Decimal `json:"amount"`
	Rate                decimal.Decimal `json:"rate"`
	ResultAmount        decimal.Decimal `json:"result_amount"`
	Visibility          Visibility      `json:"visibility"`
	CreatedAt           time.Time       `json:"created_at"`
}
