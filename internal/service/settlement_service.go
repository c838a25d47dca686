package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/config"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/domain"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/ports"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SettlementEngine implements ports.SettlementService. It is the only
// component that mutates more than one wallet at a time: each settlement
// moves funds through the per-currency clearing wallets and appends the
// four-row audit trail in a single database transaction.
type SettlementEngine struct {
	wallets    ports.WalletRepository
	ledger     ports.TransactionRepository
	rates      ports.RateSource
	masters    ports.MasterWalletResolver
	transactor ports.DBTransactor
	spread     *SpreadPolicy
	retries    int
	backoff    time.Duration
	log        zerolog.Logger
}

// NewSettlementEngine creates the settlement engine.
func NewSettlementEngine(
	wallets ports.WalletRepository,
	ledger ports.TransactionRepository,
	rates ports.RateSource,
	masters ports.MasterWalletResolver,
	transactor ports.DBTransactor,
	spread *SpreadPolicy,
	cfg config.BrokerConfig,
	log zerolog.Logger,
) *SettlementEngine {
	return &SettlementEngine{
		wallets:    wallets,
		ledger:     ledger,
		rates:      rates,
		masters:    masters,
		transactor: transactor,
		spread:     spread,
		retries:    cfg.CommitRetries,
		backoff:    cfg.CommitBackoff,
		log:        log,
	}
}

// conversion holds the figures derived from the rates and spread.
type conversion struct {
	Spread        decimal.Decimal
	Ratio         decimal.Decimal // srcRate / dstRate, before spread
	EffectiveRate decimal.Decimal
	Converted     decimal.Decimal
	BrokerFee     decimal.Decimal
}

// convert derives the settlement figures. The broker fee is computed on
// the pre-spread ratio, so converted + fee can differ from the raw
// conversion by at most one cent of rounding.
func (s *SettlementEngine) convert(ctx context.Context, srcCurrency, dstCurrency string, amount decimal.Decimal, spread decimal.Decimal, asOf time.Time) (*conversion, error) {
	srcRate, err := s.rates.LatestRate(ctx, srcCurrency, asOf)
	if err != nil {
		return nil, err
	}
	dstRate, err := s.rates.LatestRate(ctx, dstCurrency, asOf)
	if err != nil {
		return nil, err
	}

	ratio := srcRate.Div(dstRate)
	effectiveRate := ratio.Mul(decimal.NewFromInt(1).Sub(spread))
	converted := amount.Mul(effectiveRate).Round(2)
	fee := amount.Mul(ratio).Mul(spread).Round(2)

	return &conversion{
		Spread:        spread,
		Ratio:         ratio,
		EffectiveRate: effectiveRate,
		Converted:     converted,
		BrokerFee:     fee,
	}, nil
}

// SettleTransfer executes a spread-adjusted transfer between two user
// wallets. On a serialization failure the whole settlement restarts from
// validation so every retry sees fresh balances and rates.
func (s *SettlementEngine) SettleTransfer(ctx context.Context, req ports.TransferRequest) (*ports.SettlementResult, error) {
	if err := validateTransfer(req.SourceNumber, req.DestinationNumber, req.Amount); err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		result, err := s.settleOnce(ctx, req)
		if err == nil {
			return result, nil
		}
		if !isSerializationFailure(err) {
			return nil, err
		}
		if attempt >= s.retries {
			s.log.Warn().
				Str("source", req.SourceNumber).
				Int("attempts", attempt+1).
				Msg("settlement retries exhausted")
			return nil, apperror.ErrSettlementConflict(err)
		}
		s.log.Debug().
			Str("source", req.SourceNumber).
			Int("attempt", attempt+1).
			Msg("settlement conflicted, retrying")

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("settlement interrupted: %w", ctx.Err())
		case <-time.After(s.backoff * time.Duration(attempt+1)):
		}
	}
}

func (s *SettlementEngine) settleOnce(ctx context.Context, req ports.TransferRequest) (*ports.SettlementResult, error) {
	source, err := s.ownedWallet(ctx, req.AccountID, req.SourceNumber)
	if err != nil {
		return nil, err
	}
	// Transfers convert between the caller's own wallets, so the
	// destination goes through the same ownership check as the source.
	destination, err := s.ownedWallet(ctx, req.AccountID, req.DestinationNumber)
	if err != nil {
		return nil, err
	}

	// Fail fast before touching rates or locks.
	if source.Balance.LessThan(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	now := time.Now().UTC()
	spread := s.spread.SpreadFor(req.MonthlyCount, req.MonthlyAllowance)
	conv, err := s.convert(ctx, source.Currency, destination.Currency, req.Amount, spread, now)
	if err != nil {
		return nil, err
	}

	buyMaster, err := s.masters.Resolve(ctx, source.Currency, domain.MasterSideBuy)
	if err != nil {
		return nil, err
	}
	sellMaster, err := s.masters.Resolve(ctx, destination.Currency, domain.MasterSideSell)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock every involved wallet in sorted account-number order so two
	// concurrent settlements over the same wallets cannot deadlock.
	// Wallets may alias (same-currency transfers share one master), so
	// the set is deduplicated first.
	numbers := dedupeSorted([]string{
		source.AccountNumber,
		destination.AccountNumber,
		buyMaster.AccountNumber,
		sellMaster.AccountNumber,
	})

	locked := make(map[string]*domain.Wallet, len(numbers))
	for _, number := range numbers {
		w, err := s.wallets.GetByNumberForUpdate(ctx, dbTx, number)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("lock wallet %s: %w", number, err))
		}
		if w == nil {
			return nil, apperror.ErrWalletNotFound()
		}
		locked[number] = w
	}

	// Apply the four balance deltas against the locked snapshots.
	deltas := map[string]decimal.Decimal{}
	add := func(number string, d decimal.Decimal) {
		deltas[number] = deltas[number].Add(d)
	}
	add(source.AccountNumber, req.Amount.Neg())
	add(buyMaster.AccountNumber, req.Amount)
	add(destination.AccountNumber, conv.Converted)
	add(sellMaster.AccountNumber, conv.Converted.Neg())

	finals := make(map[string]decimal.Decimal, len(locked))
	for number, w := range locked {
		finals[number] = w.Balance.Add(deltas[number])
	}

	// Authoritative checks on the locked state.
	if finals[source.AccountNumber].IsNegative() {
		return nil, apperror.ErrInsufficientFunds()
	}
	if finals[sellMaster.AccountNumber].IsNegative() {
		return nil, apperror.ErrClearingUnavailable()
	}

	for _, number := range numbers {
		if err := s.wallets.UpdateBalance(ctx, dbTx, locked[number].ID, finals[number]); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("update balance %s: %w", number, err))
		}
	}

	one := decimal.NewFromInt(1)
	entries := []domain.TransactionRecord{
		{
			ID:                  uuid.New(),
			AccountID:           req.AccountID,
			SourceNumber:        source.AccountNumber,
			SourceCurrency:      source.Currency,
			DestinationNumber:   destination.AccountNumber,
			DestinationCurrency: destination.Currency,
			Amount:              req.Amount,
			Rate:                conv.EffectiveRate,
			ResultAmount:        conv.Converted,
			Visibility:          domain.VisibilityUser,
			CreatedAt:           now,
		},
		{
			ID:                  uuid.New(),
			AccountID:           buyMaster.AccountID,
			SourceNumber:        source.AccountNumber,
			SourceCurrency:      source.Currency,
			DestinationNumber:   buyMaster.AccountNumber,
			DestinationCurrency: source.Currency,
			Amount:              req.Amount,
			Rate:                one,
			ResultAmount:        req.Amount,
			Visibility:          domain.VisibilityAdminNoProfit,
			CreatedAt:           now,
		},
		{
			ID:                  uuid.New(),
			AccountID:           sellMaster.AccountID,
			SourceNumber:        sellMaster.AccountNumber,
			SourceCurrency:      destination.Currency,
			DestinationNumber:   destination.AccountNumber,
			DestinationCurrency: destination.Currency,
			Amount:              conv.Converted,
			Rate:                one,
			ResultAmount:        conv.Converted,
			Visibility:          domain.VisibilityAdminNoProfit,
			CreatedAt:           now,
		},
		{
			ID:                  uuid.New(),
			AccountID:           sellMaster.AccountID,
			SourceNumber:        source.AccountNumber,
			SourceCurrency:      destination.Currency,
			DestinationNumber:   sellMaster.AccountNumber,
			DestinationCurrency: destination.Currency,
			Amount:              conv.BrokerFee,
			Rate:                conv.EffectiveRate,
			ResultAmount:        conv.BrokerFee,
			Visibility:          domain.VisibilityAdminProfit,
			CreatedAt:           now,
		},
	}

	for i := range entries {
		if err := s.ledger.Create(ctx, dbTx, &entries[i]); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("append ledger row %d: %w", i, err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit settlement: %w", err)
	}

	s.log.Info().
		Str("account_id", req.AccountID.String()).
		Str("source", source.AccountNumber).
		Str("destination", destination.AccountNumber).
		Str("amount", req.Amount.String()).
		Str("converted", conv.Converted.String()).
		Str("spread", conv.Spread.String()).
		Msg("settlement committed")

	return &ports.SettlementResult{
		Entries:            entries,
		Spread:             conv.Spread,
		EffectiveRate:      conv.EffectiveRate,
		ConvertedAmount:    conv.Converted,
		BrokerFee:          conv.BrokerFee,
		SourceBalance:      finals[source.AccountNumber],
		DestinationBalance: finals[destination.AccountNumber],
	}, nil
}

// Deposit credits external funds to a wallet and appends a single
// deposit-tagged ledger row.
func (s *SettlementEngine) Deposit(ctx context.Context, req ports.DepositRequest) (*domain.TransactionRecord, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrNonPositiveAmount()
	}

	wallet, err := s.ownedWallet(ctx, req.AccountID, req.AccountNumber)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	locked, err := s.wallets.GetByNumberForUpdate(ctx, dbTx, wallet.AccountNumber)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if locked == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	newBalance := locked.Balance.Add(req.Amount)
	if err := s.wallets.UpdateBalance(ctx, dbTx, locked.ID, newBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	now := time.Now().UTC()
	record := &domain.TransactionRecord{
		ID:                  uuid.New(),
		AccountID:           req.AccountID,
		SourceNumber:        locked.AccountNumber,
		SourceCurrency:      locked.Currency,
		DestinationNumber:   locked.AccountNumber,
		DestinationCurrency: locked.Currency,
		Amount:              req.Amount,
		Rate:                decimal.NewFromInt(1),
		ResultAmount:        req.Amount,
		Visibility:          domain.VisibilityDeposit,
		CreatedAt:           now,
	}
	if err := s.ledger.Create(ctx, dbTx, record); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("append deposit row: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit deposit: %w", err))
	}

	s.log.Info().
		Str("account_id", req.AccountID.String()).
		Str("wallet", locked.AccountNumber).
		Str("amount", req.Amount.String()).
		Msg("deposit committed")

	return record, nil
}

// Estimate previews a settlement using current rates without locking or
// mutating anything. Funds are not checked; the preview is advisory.
func (s *SettlementEngine) Estimate(ctx context.Context, req ports.TransferRequest) (*ports.Estimate, error) {
	if err := validateTransfer(req.SourceNumber, req.DestinationNumber, req.Amount); err != nil {
		return nil, err
	}

	source, err := s.ownedWallet(ctx, req.AccountID, req.SourceNumber)
	if err != nil {
		return nil, err
	}
	destination, err := s.ownedWallet(ctx, req.AccountID, req.DestinationNumber)
	if err != nil {
		return nil, err
	}

	spread := s.spread.SpreadFor(req.MonthlyCount, req.MonthlyAllowance)
	conv, err := s.convert(ctx, source.Currency, destination.Currency, req.Amount, spread, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return &ports.Estimate{
		Spread:          conv.Spread,
		EffectiveRate:   conv.EffectiveRate,
		ConvertedAmount: conv.Converted,
	}, nil
}

// ownedWallet fetches an active wallet and verifies ownership. A wallet
// owned by someone else reads as not found so account numbers cannot be
// probed.
func (s *SettlementEngine) ownedWallet(ctx context.Context, accountID uuid.UUID, number string) (*domain.Wallet, error) {
	wallet, err := s.wallets.GetByNumber(ctx, number)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fetch wallet %s: %w", number, err))
	}
	if wallet == nil || wallet.AccountID != accountID {
		return nil, apperror.ErrWalletNotFound()
	}
	return wallet, nil
}

func validateTransfer(source, destination string, amount decimal.Decimal) error {
	if source == destination {
		return apperror.ErrSameWalletTransfer()
	}
	if !amount.IsPositive() {
		return apperror.ErrNonPositiveAmount()
	}
	return nil
}

func dedupeSorted(numbers []string) []string {
	sort.Strings(numbers)
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if len(out) == 0 || n != out[len(out)-1] {
			out = append(out, n)
		}
	}
	return out
}

// isSerializationFailure reports whether err is a retryable transaction
// conflict (serialization failure or deadlock).
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
