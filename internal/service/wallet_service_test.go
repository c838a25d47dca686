package service

import (
	"context"
	"testing"
	"time"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/domain"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/ports/mocks"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type walletFixture struct {
	svc      *WalletServiceImpl
	wallets  *mocks.MockWalletRepository
	accounts *mocks.MockAccountRepository
	ledger   *mocks.MockTransactionRepository
}

func newWalletFixture(t *testing.T) *walletFixture {
	ctrl := gomock.NewController(t)
	wallets := mocks.NewMockWalletRepository(ctrl)
	accounts := mocks.NewMockAccountRepository(ctrl)
	ledger := mocks.NewMockTransactionRepository(ctrl)
	return &walletFixture{
		svc:      NewWalletService(wallets, accounts, ledger, zerolog.Nop()),
		wallets:  wallets,
		accounts: accounts,
		ledger:   ledger,
	}
}

func personalAccount(id uuid.UUID) *domain.Account {
	transactions, wallets := domain.AccountTypePersonal.Allowances()
	return &domain.Account{
		ID:                   id,
		Username:             "anowak",
		Type:                 domain.AccountTypePersonal,
		TransactionAllowance: transactions,
		WalletAllowance:      wallets,
		CreatedAt:            time.Now().UTC(),
	}
}

func TestWalletService_Create(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()
	accountID := uuid.New()

	f.accounts.EXPECT().GetByID(ctx, accountID).Return(personalAccount(accountID), nil)
	f.wallets.EXPECT().CountByOwner(ctx, accountID).Return(2, nil)
	f.wallets.EXPECT().GetByNumber(ctx, gomock.Any()).Return(nil, nil)

	var created *domain.Wallet
	f.wallets.EXPECT().Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, w *domain.Wallet) error {
			created = w
			return nil
		})

	wallet, err := f.svc.Create(ctx, accountID, "EUR")
	require.NoError(t, err)
	require.NotNil(t, wallet)
	require.NotNil(t, created)

	assert.Equal(t, accountID, wallet.AccountID)
	assert.Equal(t, "EUR", wallet.Currency)
	assert.Equal(t, domain.WalletStatusActive, wallet.Status)
	assert.True(t, wallet.Balance.IsZero())
	assert.True(t, domain.ValidAccountNumber(wallet.AccountNumber))
}

func TestWalletService_Create_InvalidCurrency(t *testing.T) {
	f := newWalletFixture(t)

	for _, code := range []string{"", "EU", "EURO", "eur", "E1R"} {
		_, err := f.svc.Create(context.Background(), uuid.New(), code)

		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr, "code %q", code)
		assert.Equal(t, "VAL_001", appErr.Code)
	}
}

func TestWalletService_Create_AccountMissing(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()
	accountID := uuid.New()

	f.accounts.EXPECT().GetByID(ctx, accountID).Return(nil, nil)

	_, err := f.svc.Create(ctx, accountID, "EUR")

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ACC_001", appErr.Code)
}

func TestWalletService_Create_AllowanceExhausted(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()
	accountID := uuid.New()

	// Personal tier allows five wallets.
	f.accounts.EXPECT().GetByID(ctx, accountID).Return(personalAccount(accountID), nil)
	f.wallets.EXPECT().CountByOwner(ctx, accountID).Return(5, nil)

	_, err := f.svc.Create(ctx, accountID, "EUR")

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WAL_003", appErr.Code)
}

func TestWalletService_Create_RegeneratesOnCollision(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()
	accountID := uuid.New()

	f.accounts.EXPECT().GetByID(ctx, accountID).Return(personalAccount(accountID), nil)
	f.wallets.EXPECT().CountByOwner(ctx, accountID).Return(0, nil)

	taken := &domain.Wallet{ID: uuid.New()}
	gomock.InOrder(
		f.wallets.EXPECT().GetByNumber(ctx, gomock.Any()).Return(taken, nil),
		f.wallets.EXPECT().GetByNumber(ctx, gomock.Any()).Return(nil, nil),
	)
	f.wallets.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	wallet, err := f.svc.Create(ctx, accountID, "CHF")
	require.NoError(t, err)
	assert.True(t, domain.ValidAccountNumber(wallet.AccountNumber))
}

func TestWalletService_Delete(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()
	accountID := uuid.New()

	wallet := &domain.Wallet{
		ID:            uuid.New(),
		AccountID:     accountID,
		AccountNumber: srcNumber,
		Balance:       decimal.Zero,
		Status:        domain.WalletStatusActive,
	}
	f.wallets.EXPECT().GetByNumber(ctx, srcNumber).Return(wallet, nil)
	f.wallets.EXPECT().UpdateStatus(ctx, wallet.ID, domain.WalletStatusDeleted).Return(nil)

	err := f.svc.Delete(ctx, accountID, srcNumber)
	assert.NoError(t, err)
}

func TestWalletService_Delete_NotEmpty(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()
	accountID := uuid.New()

	wallet := &domain.Wallet{
		ID:            uuid.New(),
		AccountID:     accountID,
		AccountNumber: srcNumber,
		Balance:       decimal.RequireFromString("0.01"),
		Status:        domain.WalletStatusActive,
	}
	f.wallets.EXPECT().GetByNumber(ctx, srcNumber).Return(wallet, nil)

	err := f.svc.Delete(ctx, accountID, srcNumber)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WAL_002", appErr.Code)
}

func TestWalletService_Delete_ForeignWallet(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()

	wallet := &domain.Wallet{
		ID:            uuid.New(),
		AccountID:     uuid.New(),
		AccountNumber: srcNumber,
		Balance:       decimal.Zero,
	}
	f.wallets.EXPECT().GetByNumber(ctx, srcNumber).Return(wallet, nil)

	err := f.svc.Delete(ctx, uuid.New(), srcNumber)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WAL_001", appErr.Code)
}

func TestWalletService_History(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()
	accountID := uuid.New()

	wallet := &domain.Wallet{
		ID:            uuid.New(),
		AccountID:     accountID,
		AccountNumber: srcNumber,
	}
	records := []domain.TransactionRecord{
		{ID: uuid.New(), Visibility: domain.VisibilityUser},
		{ID: uuid.New(), Visibility: domain.VisibilityDeposit},
	}
	f.wallets.EXPECT().GetByNumber(ctx, srcNumber).Return(wallet, nil)
	f.ledger.EXPECT().ListForWallet(ctx, srcNumber, domain.UserVisible()).Return(records, nil)

	got, err := f.svc.History(ctx, accountID, srcNumber)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestWalletService_List(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()
	accountID := uuid.New()

	wallets := []domain.Wallet{
		{ID: uuid.New(), Currency: "PLN"},
		{ID: uuid.New(), Currency: "EUR"},
	}
	f.wallets.EXPECT().ListByOwner(ctx, accountID).Return(wallets, nil)

	got, err := f.svc.List(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, wallets, got)
}
