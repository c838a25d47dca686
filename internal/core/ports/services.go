package ports

import (
	"context"
	"time"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateSource resolves the most recent exchange rate for a currency as of
// a date. Implementations must return apperror.ErrRateUnavailable-class
// errors when no quote exists; they must never fall back to a stale or
// zero rate.
type RateSource interface {
	LatestRate(ctx context.Context, currency string, asOf time.Time) (decimal.Decimal, error)
}

// QuoteCache holds the newest quote per currency for fast lookup. A nil
// quote with nil error means a cache miss.
type QuoteCache interface {
	Get(ctx context.Context, currency string) (*domain.ExchangeRateQuote, error)
	Set(ctx context.Context, quote *domain.ExchangeRateQuote) error
}

// MasterWalletResolver resolves the clearing wallet for a currency and
// side. Injected so the clearing counterparties are configurable and
// substitutable in tests rather than a hardcoded account id.
type MasterWalletResolver interface {
	Resolve(ctx context.Context, currency string, side domain.MasterSide) (*domain.Wallet, error)
}

// TokenService validates (and, for tooling, issues) the bearer tokens
// that identify the calling account. Full authentication lives outside
// this service.
type TokenService interface {
	Generate(accountID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed token claims.
type TokenClaims struct {
	AccountID uuid.UUID
}

// --- Service Ports (Business Logic) ---

// SettlementService is the transfer/settlement engine: the only component
// that mutates more than one wallet at a time.
type SettlementService interface {
	SettleTransfer(ctx context.Context, req TransferRequest) (*SettlementResult, error)
	Deposit(ctx context.Context, req DepositRequest) (*domain.TransactionRecord, error)
	Estimate(ctx context.Context, req TransferRequest) (*Estimate, error)
}

// TransferRequest holds validated input for a settlement. MonthlyCount
// and MonthlyAllowance are supplied by the caller (the engine does not
// query them itself) and drive the promotional spread selection.
type TransferRequest struct {
	AccountID         uuid.UUID
	SourceNumber      string
	DestinationNumber string
	Amount            decimal.Decimal
	MonthlyCount      int
	MonthlyAllowance  int
}

// SettlementResult is the outcome of a committed settlement: the four
// ledger entries in creation order plus the figures behind them.
type SettlementResult struct {
	Entries            []domain.TransactionRecord
	Spread             decimal.Decimal
	EffectiveRate      decimal.Decimal
	ConvertedAmount    decimal.Decimal
	BrokerFee          decimal.Decimal
	SourceBalance      decimal.Decimal
	DestinationBalance decimal.Decimal
}

// Estimate previews a settlement without executing it.
type Estimate struct {
	Spread          decimal.Decimal
	EffectiveRate   decimal.Decimal
	ConvertedAmount decimal.Decimal
}

// DepositRequest holds validated input for a wallet deposit.
type DepositRequest struct {
	AccountID     uuid.UUID
	AccountNumber string
	Amount        decimal.Decimal
}

// WalletService defines wallet lifecycle and history operations.
type WalletService interface {
	Create(ctx context.Context, accountID uuid.UUID, currency string) (*domain.Wallet, error)
	List(ctx context.Context, accountID uuid.UUID) ([]domain.Wallet, error)
	Delete(ctx context.Context, accountID uuid.UUID, accountNumber string) error
	History(ctx context.Context, accountID uuid.UUID, accountNumber string) ([]domain.TransactionRecord, error)
}

// AccountService provisions accounts and reports allowance usage.
type AccountService interface {
	Create(ctx context.Context, username string, accountType domain.AccountType) (*domain.Account, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	// MonthlyUsage returns the number of user-visible settlements the
	// account has made in the calendar month containing at, together with
	// the account's monthly allowance.
	MonthlyUsage(ctx context.Context, id uuid.UUID, at time.Time) (count int, allowance int, err error)
}

// RateService exposes the published rates for display.
type RateService interface {
	ListLatest(ctx context.Context, asOf time.Time) ([]domain.ExchangeRateQuote, error)
}
