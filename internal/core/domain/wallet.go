package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletStatus represents the lifecycle state of a wallet.
// The only transition is active -> deleted, and it is terminal.
type WalletStatus string

const (
	WalletStatusActive  WalletStatus = "active"
	WalletStatusDeleted WalletStatus = "deleted"
)

// Wallet is a per-account, per-currency balance holder identified by a
// unique IBAN-shaped account number. Master wallets (the clearing
// counterparties owned by the broker account) are ordinary wallets and
// obey the same invariants.
type Wallet struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"account_id"`
	Currency      string          `json:"currency"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	Status        WalletStatus    `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsActive returns true if the wallet accepts deposits and settlements.
func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}

// CanDelete returns true if the wallet may transition to deleted.
// Deletion is only permitted while the balance is exactly zero.
func (w *Wallet) CanDelete() bool {
	return w.Balance.IsZero()
}

// MasterSide distinguishes the role a clearing wallet plays in a
// settlement: the buy side receives the source currency debited from the
// user, the sell side is debited the destination currency credited to the
// user.
type MasterSide string

const (
	MasterSideBuy  MasterSide = "buy"
	MasterSideSell MasterSide = "sell"
)
