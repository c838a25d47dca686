package ports

import (
	"context"
	"time"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for
// pessimistic locking. Lookups never return deleted wallets.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByNumber(ctx context.Context, accountNumber string) (*domain.Wallet, error)
	GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, accountNumber string) (*domain.Wallet, error)
	GetByOwnerAndCurrency(ctx context.Context, accountID uuid.UUID, currency string) (*domain.Wallet, error)
	ListByOwner(ctx context.Context, accountID uuid.UUID) ([]domain.Wallet, error)
	CountByOwner(ctx context.Context, accountID uuid.UUID) (int, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error
	UpdateStatus(ctx context.Context, walletID uuid.UUID, status domain.WalletStatus) error
}

// TransactionRepository defines persistence for the append-only ledger.
// Rows are only ever inserted, never updated or deleted.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, record *domain.TransactionRecord) error
	ListForWallet(ctx context.Context, accountNumber string, visibilities []domain.Visibility) ([]domain.TransactionRecord, error)
	// CountMonthlySettlements counts an account's user-visible settlements
	// in the given calendar month; it feeds the spread policy.
	CountMonthlySettlements(ctx context.Context, accountID uuid.UUID, year int, month time.Month) (int, error)
}

// QuoteRepository defines persistence for daily exchange rate quotes.
type QuoteRepository interface {
	// Upsert stores a quote, replacing any existing quote for the same
	// (currency, date) pair.
	Upsert(ctx context.Context, quote *domain.ExchangeRateQuote) error
	// Latest returns the quote with the most recent date <= asOf for the
	// currency, or nil when none exists.
	Latest(ctx context.Context, currency string, asOf time.Time) (*domain.ExchangeRateQuote, error)
	// LatestAll returns the newest quote per currency as of the given
	// date, sorted by currency code.
	LatestAll(ctx context.Context, asOf time.Time) ([]domain.ExchangeRateQuote, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
