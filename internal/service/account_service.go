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

// AccountServiceImpl implements ports.AccountService.
type AccountServiceImpl struct {
	accounts ports.AccountRepository
	ledger   ports.TransactionRepository
	log      zerolog.Logger
}

// NewAccountService creates a new AccountServiceImpl.
func NewAccountService(
	accounts ports.AccountRepository,
	ledger ports.TransactionRepository,
	log zerolog.Logger,
) *AccountServiceImpl {
	return &AccountServiceImpl{
		accounts: accounts,
		ledger:   ledger,
		log:      log,
	}
}

// Create provisions an account with the allowances of its tier.
func (s *AccountServiceImpl) Create(ctx context.Context, username string, accountType domain.AccountType) (*domain.Account, error) {
	if username == "" {
		return nil, apperror.Validation("Username must not be empty")
	}
	if accountType != domain.AccountTypePersonal && accountType != domain.AccountTypeBusiness {
		return nil, apperror.Validation("Account type must be personal or business")
	}

	transactions, wallets := accountType.Allowances()
	account := &domain.Account{
		ID:                   uuid.New(),
		Username:             username,
		Type:                 accountType,
		TransactionAllowance: transactions,
		WalletAllowance:      wallets,
		CreatedAt:            time.Now().UTC(),
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create account: %w", err))
	}

	s.log.Info().
		Str("account_id", account.ID.String()).
		Str("type", string(accountType)).
		Msg("account created")

	return account, nil
}

// Get fetches an account by id.
func (s *AccountServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fetch account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	return account, nil
}

// MonthlyUsage reports the settlements already made in the calendar
// month containing at, alongside the account's monthly allowance.
func (s *AccountServiceImpl) MonthlyUsage(ctx context.Context, id uuid.UUID, at time.Time) (int, int, error) {
	account, err := s.Get(ctx, id)
	if err != nil {
		return 0, 0, err
	}

	count, err := s.ledger.CountMonthlySettlements(ctx, id, at.Year(), at.Month())
	if err != nil {
		return 0, 0, apperror.InternalError(fmt.Errorf("count monthly settlements: %w", err))
	}
	return count, account.TransactionAllowance, nil
}
