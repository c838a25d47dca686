package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory Account Repo ---

type inMemoryAccountRepo struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*domain.Account
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.accounts[a.ID] = &cp
	return nil
}

func (r *inMemoryAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.wallets[w.ID] = &cp
	return nil
}

// GetByNumber only returns active wallets, matching the SQL implementation.
func (r *inMemoryWalletRepo) GetByNumber(ctx context.Context, accountNumber string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.AccountNumber == accountNumber && w.Status == domain.WalletStatusActive {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, accountNumber string) (*domain.Wallet, error) {
	return r.GetByNumber(ctx, accountNumber)
}

func (r *inMemoryWalletRepo) GetByOwnerAndCurrency(ctx context.Context, accountID uuid.UUID, currency string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.AccountID == accountID && w.Currency == currency && w.Status == domain.WalletStatusActive {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) ListByOwner(ctx context.Context, accountID uuid.UUID) ([]domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Wallet
	for _, w := range r.wallets {
		if w.AccountID == accountID && w.Status == domain.WalletStatusActive {
			result = append(result, *w)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *inMemoryWalletRepo) CountByOwner(ctx context.Context, accountID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, w := range r.wallets {
		if w.AccountID == accountID && w.Status == domain.WalletStatusActive {
			count++
		}
	}
	return count, nil
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.Balance = balance
	w.UpdatedAt = time.Now()
	return nil
}

func (r *inMemoryWalletRepo) UpdateStatus(ctx context.Context, walletID uuid.UUID, status domain.WalletStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.Status = status
	w.UpdatedAt = time.Now()
	return nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu      sync.RWMutex
	records []domain.TransactionRecord
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.TransactionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *t)
	return nil
}

func (r *inMemoryTransactionRepo) ListForWallet(ctx context.Context, accountNumber string, visibilities []domain.Visibility) ([]domain.TransactionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	allowed := make(map[domain.Visibility]bool, len(visibilities))
	for _, v := range visibilities {
		allowed[v] = true
	}
	var result []domain.TransactionRecord
	for _, t := range r.records {
		if (t.SourceNumber == accountNumber || t.DestinationNumber == accountNumber) && allowed[t.Visibility] {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *inMemoryTransactionRepo) CountMonthlySettlements(ctx context.Context, accountID uuid.UUID, year int, month time.Month) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	count := 0
	for _, t := range r.records {
		if t.AccountID == accountID && t.Visibility == domain.VisibilityUser &&
			!t.CreatedAt.Before(from) && t.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

// countAll returns the total number of ledger rows across all visibilities.
func (r *inMemoryTransactionRepo) countAll() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// --- In-Memory Quote Repo ---

type inMemoryQuoteRepo struct {
	mu     sync.RWMutex
	quotes map[string][]domain.ExchangeRateQuote
}

func newInMemoryQuoteRepo() *inMemoryQuoteRepo {
	return &inMemoryQuoteRepo{quotes: make(map[string][]domain.ExchangeRateQuote)}
}

func (r *inMemoryQuoteRepo) Upsert(ctx context.Context, q *domain.ExchangeRateQuote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.quotes[q.Currency]
	for i, existing := range list {
		if existing.Date.Equal(q.Date) {
			list[i] = *q
			return nil
		}
	}
	r.quotes[q.Currency] = append(list, *q)
	return nil
}

func (r *inMemoryQuoteRepo) Latest(ctx context.Context, currency string, asOf time.Time) (*domain.ExchangeRateQuote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *domain.ExchangeRateQuote
	for i := range r.quotes[currency] {
		q := r.quotes[currency][i]
		if q.Date.After(asOf) {
			continue
		}
		if best == nil || q.Date.After(best.Date) {
			cp := q
			best = &cp
		}
	}
	return best, nil
}

func (r *inMemoryQuoteRepo) LatestAll(ctx context.Context, asOf time.Time) ([]domain.ExchangeRateQuote, error) {
	r.mu.RLock()
	currencies := make([]string, 0, len(r.quotes))
	for c := range r.quotes {
		currencies = append(currencies, c)
	}
	r.mu.RUnlock()
	sort.Strings(currencies)

	var result []domain.ExchangeRateQuote
	for _, c := range currencies {
		q, _ := r.Latest(context.Background(), c, asOf)
		if q != nil {
			result = append(result, *q)
		}
	}
	return result, nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes settlements with a single mutex, standing
// in for row-level locks: once a transaction begins, no other one can
// begin until it commits or rolls back.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &memTx{release: t.mu.Unlock}, nil
}

// memTx is a pgx.Tx implementation that releases the transactor mutex on
// the first Commit or Rollback. Later calls are no-ops, matching how a
// deferred Rollback behaves after a successful Commit.
type memTx struct {
	once    sync.Once
	release func()
}

func (t *memTx) finish() {
	t.once.Do(t.release)
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) Commit(ctx context.Context) error          { t.finish(); return nil }
func (t *memTx) Rollback(ctx context.Context) error        { t.finish(); return nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }
