package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository. All lookups exclude
// deleted wallets: a deleted wallet is invisible to every settlement,
// deposit and listing operation.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, account_id, currency, account_number, balance, status, created_at, updated_at`

// Create inserts a new wallet into the database.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, account_id, currency, account_number, balance, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.AccountID, w.Currency, w.AccountNumber,
		w.Balance, w.Status, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByNumber fetches an active wallet by account number (non-locking read).
func (r *WalletRepo) GetByNumber(ctx context.Context, accountNumber string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE account_number = $1 AND status = 'active'`

	return scanWallet(r.pool.QueryRow(ctx, query, accountNumber), "get wallet by number")
}

// GetByNumberForUpdate fetches an active wallet by account number with
// pessimistic locking. This MUST be called within a transaction.
func (r *WalletRepo) GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, accountNumber string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE account_number = $1 AND status = 'active' FOR UPDATE`

	return scanWallet(tx.QueryRow(ctx, query, accountNumber), "get wallet for update")
}

// GetByOwnerAndCurrency fetches the owner's active wallet in a currency.
func (r *WalletRepo) GetByOwnerAndCurrency(ctx context.Context, accountID uuid.UUID, currency string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets
		WHERE account_id = $1 AND currency = $2 AND status = 'active'`

	return scanWallet(r.pool.QueryRow(ctx, query, accountID, currency), "get wallet by owner and currency")
}

// ListByOwner lists the owner's active wallets, oldest first.
func (r *WalletRepo) ListByOwner(ctx context.Context, accountID uuid.UUID) ([]domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets
		WHERE account_id = $1 AND status = 'active' ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		var w domain.Wallet
		if err := rows.Scan(
			&w.ID, &w.AccountID, &w.Currency, &w.AccountNumber,
			&w.Balance, &w.Status, &w.CreatedAt, &w.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// CountByOwner counts the owner's active wallets.
func (r *WalletRepo) CountByOwner(ctx context.Context, accountID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM wallets WHERE account_id = $1 AND status = 'active'`

	var count int
	if err := r.pool.QueryRow(ctx, query, accountID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count wallets: %w", err)
	}
	return count, nil
}

// UpdateBalance updates a wallet's balance within a transaction.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	query := `UPDATE wallets SET balance = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, balance, walletID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

// UpdateStatus flips a wallet's lifecycle status. The zero-balance guard
// lives in the service layer; the row is retained either way.
func (r *WalletRepo) UpdateStatus(ctx context.Context, walletID uuid.UUID, status domain.WalletStatus) error {
	query := `UPDATE wallets SET status = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, status, walletID)
	if err != nil {
		return fmt.Errorf("update wallet status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

func scanWallet(row pgx.Row, op string) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(
		&w.ID, &w.AccountID, &w.Currency, &w.AccountNumber,
		&w.Balance, &w.Status, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return w, nil
}
