package service

import (
	"context"
	"fmt"
	"time"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/domain"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/ports"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// walletIDAttempts bounds the retry loop for identifier collisions.
const walletIDAttempts = 5

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	wallets  ports.WalletRepository
	accounts ports.AccountRepository
	ledger   ports.TransactionRepository
	log      zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	wallets ports.WalletRepository,
	accounts ports.AccountRepository,
	ledger ports.TransactionRepository,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		wallets:  wallets,
		accounts: accounts,
		ledger:   ledger,
		log:      log,
	}
}

// Create opens a zero-balance wallet in the given currency, subject to
// the account's wallet allowance. Deleted wallets do not count against
// the allowance.
func (s *WalletServiceImpl) Create(ctx context.Context, accountID uuid.UUID, currency string) (*domain.Wallet, error) {
	if !validCurrencyCode(currency) {
		return nil, apperror.Validation("Currency must be a three-letter ISO 4217 code")
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fetch account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}

	count, err := s.wallets.CountByOwner(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("count wallets: %w", err))
	}
	if count >= account.WalletAllowance {
		return nil, apperror.ErrWalletLimitExceeded()
	}

	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:        uuid.New(),
		AccountID: accountID,
		Currency:  currency,
		Status:    domain.WalletStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The 9-digit wallet identifier is random; regenerate on the rare
	// collision with an existing account number.
	for attempt := 0; ; attempt++ {
		number := domain.AccountNumberFor(domain.NewWalletID())
		existing, err := s.wallets.GetByNumber(ctx, number)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("check account number: %w", err))
		}
		if existing == nil {
			wallet.AccountNumber = number
			break
		}
		if attempt >= walletIDAttempts {
			return nil, apperror.InternalError(fmt.Errorf("could not allocate a unique account number"))
		}
	}

	if err := s.wallets.Create(ctx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("account_id", accountID.String()).
		Str("wallet", wallet.AccountNumber).
		Str("currency", currency).
		Msg("wallet created")

	return wallet, nil
}

// List returns the account's active wallets.
func (s *WalletServiceImpl) List(ctx context.Context, accountID uuid.UUID) ([]domain.Wallet, error) {
	wallets, err := s.wallets.ListByOwner(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list wallets: %w", err))
	}
	return wallets, nil
}

// Delete soft-deletes an empty wallet. The ledger rows that reference it
// are retained.
func (s *WalletServiceImpl) Delete(ctx context.Context, accountID uuid.UUID, accountNumber string) error {
	wallet, err := s.ownedWallet(ctx, accountID, accountNumber)
	if err != nil {
		return err
	}
	if !wallet.CanDelete() {
		return apperror.ErrWalletNotEmpty()
	}

	if err := s.wallets.UpdateStatus(ctx, wallet.ID, domain.WalletStatusDeleted); err != nil {
		return apperror.InternalError(fmt.Errorf("delete wallet: %w", err))
	}

	s.log.Info().
		Str("account_id", accountID.String()).
		Str("wallet", accountNumber).
		Msg("wallet deleted")

	return nil
}

// History returns the wallet's user-visible ledger rows, newest first.
func (s *WalletServiceImpl) History(ctx context.Context, accountID uuid.UUID, accountNumber string) ([]domain.TransactionRecord, error) {
	if _, err := s.ownedWallet(ctx, accountID, accountNumber); err != nil {
		return nil, err
	}

	records, err := s.ledger.ListForWallet(ctx, accountNumber, domain.UserVisible())
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list wallet history: %w", err))
	}
	return records, nil
}

func (s *WalletServiceImpl) ownedWallet(ctx context.Context, accountID uuid.UUID, number string) (*domain.Wallet, error) {
	wallet, err := s.wallets.GetByNumber(ctx, number)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fetch wallet %s: %w", number, err))
	}
	if wallet == nil || wallet.AccountID != accountID {
		return nil, apperror.ErrWalletNotFound()
	}
	return wallet, nil
}

func validCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, ch := range code {
		if ch < 'A' || ch > 'Z' {
			return false
		}
	}
	return true
}
