package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository. The ledger is
// append-only: rows are inserted inside settlement transactions and never
// updated or deleted afterwards.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const transactionColumns = `id, account_id, source_number, source_currency,
		destination_number, destination_currency, amount, rate, result_amount, visibility, created_at`

// Create inserts a ledger row within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.TransactionRecord) error {
	query := `INSERT INTO transactions (id, account_id, source_number, source_currency,
		destination_number, destination_currency, amount, rate, result_amount, visibility, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.AccountID, t.SourceNumber, t.SourceCurrency,
		t.DestinationNumber, t.DestinationCurrency,
		t.Amount, t.Rate, t.ResultAmount, t.Visibility, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ListForWallet returns rows where the wallet appears as source or
// destination, restricted to the given visibility tags, newest first.
func (r *TransactionRepo) ListForWallet(ctx context.Context, accountNumber string, visibilities []domain.Visibility) ([]domain.TransactionRecord, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE (source_number = $1 OR destination_number = $1) AND visibility = ANY($2)
		ORDER BY created_at DESC`

	tags := make([]string, len(visibilities))
	for i, v := range visibilities {
		tags[i] = string(v)
	}

	rows, err := r.pool.Query(ctx, query, accountNumber, tags)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var records []domain.TransactionRecord
	for rows.Next() {
		var t domain.TransactionRecord
		if err := rows.Scan(
			&t.ID, &t.AccountID, &t.SourceNumber, &t.SourceCurrency,
			&t.DestinationNumber, &t.DestinationCurrency,
			&t.Amount, &t.Rate, &t.ResultAmount, &t.Visibility, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		records = append(records, t)
	}
	return records, rows.Err()
}

// CountMonthlySettlements counts user-visible settlements for an account
// in one calendar month. The spread policy reads this fresh on every
// transfer request.
func (r *TransactionRepo) CountMonthlySettlements(ctx context.Context, accountID uuid.UUID, year int, month time.Month) (int, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	query := `SELECT COUNT(*) FROM transactions
		WHERE account_id = $1 AND visibility = 'user' AND created_at >= $2 AND created_at < $3`

	var count int
	if err := r.pool.QueryRow(ctx, query, accountID, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("count monthly settlements: %w", err)
	}
	return count, nil
}
