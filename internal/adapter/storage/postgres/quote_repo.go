package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// QuoteRepo implements ports.QuoteRepository over the exchange_rates
// table, keyed by (currency, date).
type QuoteRepo struct {
	pool Pool
}

// NewQuoteRepo creates a new QuoteRepo.
func NewQuoteRepo(pool Pool) *QuoteRepo {
	return &QuoteRepo{pool: pool}
}

// Upsert stores a quote, replacing any existing quote for the same
// (currency, date) pair.
func (r *QuoteRepo) Upsert(ctx context.Context, q *domain.ExchangeRateQuote) error {
	query := `INSERT INTO exchange_rates (currency, date, rate)
		VALUES ($1, $2, $3)
		ON CONFLICT (currency, date) DO UPDATE SET rate = EXCLUDED.rate`

	_, err := r.pool.Exec(ctx, query, q.Currency, q.Date, q.Rate)
	if err != nil {
		return fmt.Errorf("upsert quote: %w", err)
	}
	return nil
}

// Latest returns the quote with the most recent date <= asOf, or nil
// when no quote exists for the currency.
func (r *QuoteRepo) Latest(ctx context.Context, currency string, asOf time.Time) (*domain.ExchangeRateQuote, error) {
	query := `SELECT currency, date, rate FROM exchange_rates
		WHERE currency = $1 AND date <= $2
		ORDER BY date DESC LIMIT 1`

	q := &domain.ExchangeRateQuote{}
	err := r.pool.QueryRow(ctx, query, currency, asOf).Scan(&q.Currency, &q.Date, &q.Rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest quote: %w", err)
	}
	return q, nil
}

// LatestAll returns the newest quote per currency as of the given date,
// sorted by currency code.
func (r *QuoteRepo) LatestAll(ctx context.Context, asOf time.Time) ([]domain.ExchangeRateQuote, error) {
	query := `SELECT DISTINCT ON (currency) currency, date, rate FROM exchange_rates
		WHERE date <= $1
		ORDER BY currency, date DESC`

	rows, err := r.pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("latest quotes: %w", err)
	}
	defer rows.Close()

	var quotes []domain.ExchangeRateQuote
	for rows.Next() {
		var q domain.ExchangeRateQuote
		if err := rows.Scan(&q.Currency, &q.Date, &q.Rate); err != nil {
			return nil, fmt.Errorf("scan quote row: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}
