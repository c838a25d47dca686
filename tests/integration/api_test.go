package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/config"
	httpHandler "github.com/infoshareacademy/jpydzr8-backend-brokers/internal/adapter/http/handler"
	redisStorage "github.com/infoshareacademy/jpydzr8-backend-brokers/internal/adapter/storage/redis"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/domain"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/ports"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/service"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds the full application stack on in-memory storage: the real
// HTTP layer, middleware, services and settlement engine, with miniredis
// behind the quote cache and map-backed repositories behind the ports. A
// mutex-based transactor stands in for row-level locking.

type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis

	wallets *inMemoryWalletRepo
	ledger  *inMemoryTransactionRepo
	quotes  *inMemoryQuoteRepo

	masterAccountID uuid.UUID
	masterNumbers   map[string]string // currency -> clearing wallet number
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	log := logger.New("debug", false)

	accountRepo := newInMemoryAccountRepo()
	walletRepo := newInMemoryWalletRepo()
	txRepo := newInMemoryTransactionRepo()
	quoteRepo := newInMemoryQuoteRepo()
	transactor := newInMemoryTransactor()

	rateCache := redisStorage.NewRateCache(rdb, time.Hour)

	brokerCfg := config.BrokerConfig{
		ReferenceCurrency: "PLN",
		PromoSpread:       "0.01",
		StandardSpread:    "0.02",
		CommitRetries:     2,
		CommitBackoff:     time.Millisecond,
	}

	spreadPolicy, err := service.NewSpreadPolicy(brokerCfg)
	require.NoError(t, err)

	masterAccountID := uuid.New()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")
	rateLookup := service.NewRateLookup(quoteRepo, rateCache, "PLN", log)
	masterResolver := service.NewMasterResolver(walletRepo, masterAccountID)

	settlementSvc := service.NewSettlementEngine(
		walletRepo, txRepo, rateLookup, masterResolver, transactor, spreadPolicy, brokerCfg, log,
	)
	walletSvc := service.NewWalletService(walletRepo, accountRepo, txRepo, log)
	accountSvc := service.NewAccountService(accountRepo, txRepo, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AccountSvc:     accountSvc,
		WalletSvc:      walletSvc,
		SettlementSvc:  settlementSvc,
		RateSvc:        rateLookup,
		TokenSvc:       tokenSvc,
		HealthCheckers: []ports.HealthChecker{redisStorage.NewHealthCheck(rdb)},
		Logger:         log,
	})

	app := &testApp{
		server:          httptest.NewServer(router),
		redis:           mr,
		wallets:         walletRepo,
		ledger:          txRepo,
		quotes:          quoteRepo,
		masterAccountID: masterAccountID,
		masterNumbers:   make(map[string]string),
	}

	// Seed the published rates (PLN is the reference and never stored).
	quoteDate := time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC)
	for currency, rate := range map[string]string{"USD": "3.95", "EUR": "4.35"} {
		require.NoError(t, quoteRepo.Upsert(t.Context(), &domain.ExchangeRateQuote{
			Currency: currency,
			Date:     quoteDate,
			Rate:     decimal.RequireFromString(rate),
		}))
	}

	// Seed one funded clearing wallet per traded currency.
	for _, currency := range []string{"PLN", "USD", "EUR"} {
		number := domain.AccountNumberFor(domain.NewWalletID())
		require.NoError(t, walletRepo.Create(t.Context(), &domain.Wallet{
			ID:            uuid.New(),
			AccountID:     masterAccountID,
			Currency:      currency,
			AccountNumber: number,
			Balance:       decimal.RequireFromString("1000000.00"),
			Status:        domain.WalletStatusActive,
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		}))
		app.masterNumbers[currency] = number
	}

	return app
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

type envelope struct {
	Data      map[string]interface{} `json:"data"`
	ErrorCode string                 `json:"error_code"`
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

// createAccount provisions an account through the API and returns its token.
func (a *testApp) createAccount(t *testing.T, username, accountType string) string {
	t.Helper()
	code, env := a.do(t, http.MethodPost, "/api/v1/accounts", "", map[string]string{
		"username":     username,
		"account_type": accountType,
	})
	require.Equal(t, http.StatusCreated, code)
	token, ok := env.Data["token"].(string)
	require.True(t, ok)
	return token
}

// createWallet opens a wallet through the API and returns its number.
func (a *testApp) createWallet(t *testing.T, token, currency string) string {
	t.Helper()
	code, env := a.do(t, http.MethodPost, "/api/v1/wallets", token, map[string]string{
		"currency": currency,
	})
	require.Equal(t, http.StatusCreated, code)
	number, ok := env.Data["account_number"].(string)
	require.True(t, ok)
	return number
}

// deposit funds a wallet through the API.
func (a *testApp) deposit(t *testing.T, token, number, amount string) {
	t.Helper()
	code, _ := a.do(t, http.MethodPost, "/api/v1/wallets/"+number+"/deposits", token, map[string]string{
		"amount": amount,
	})
	require.Equal(t, http.StatusCreated, code)
}

// masterBalance reads a clearing wallet balance straight from the repo.
func (a *testApp) masterBalance(t *testing.T, currency string) decimal.Decimal {
	t.Helper()
	w, err := a.wallets.GetByNumber(t.Context(), a.masterNumbers[currency])
	require.NoError(t, err)
	require.NotNil(t, w)
	return w.Balance
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_AccountProvisioning(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	code, env := app.do(t, http.MethodPost, "/api/v1/accounts", "", map[string]string{
		"username":     "jkowalski",
		"account_type": "personal",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.NotEmpty(t, env.Data["token"])
	assert.Equal(t, float64(10), env.Data["transaction_allowance"])
	assert.Equal(t, float64(5), env.Data["wallet_allowance"])

	token := env.Data["token"].(string)
	code, env = app.do(t, http.MethodGet, "/api/v1/accounts/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "jkowalski", env.Data["username"])
	assert.Equal(t, float64(0), env.Data["monthly_settlements"])
}

func TestIntegration_Unauthorized(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	code, _ := app.do(t, http.MethodGet, "/api/v1/wallets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = app.do(t, http.MethodGet, "/api/v1/accounts/me", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestIntegration_FullTransferFlow(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.createAccount(t, "transfer_user", "personal")
	plnNumber := app.createWallet(t, token, "PLN")
	usdNumber := app.createWallet(t, token, "USD")

	app.deposit(t, token, plnNumber, "500.00")

	// First settlement of the month runs on the promotional spread:
	// 100 * (1/3.95) * 0.99 = 25.06 after rounding.
	code, env := app.do(t, http.MethodPost, "/api/v1/transfers", token, map[string]string{
		"source_account_number":      plnNumber,
		"destination_account_number": usdNumber,
		"amount":                     "100.00",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "25.06", env.Data["converted_amount"])
	assert.Equal(t, "0.25", env.Data["broker_fee"])
	assert.Equal(t, "0.01", env.Data["spread"])
	assert.Equal(t, "400.00", env.Data["source_balance"])
	assert.Equal(t, "25.06", env.Data["destination_balance"])

	// One settlement (the deposit does not count) is now on record.
	code, env = app.do(t, http.MethodGet, "/api/v1/accounts/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), env.Data["monthly_settlements"])

	// A settlement writes four ledger rows, a deposit one: five in total.
	assert.Equal(t, 5, app.ledger.countAll())

	// The wallet history shows only the user and deposit rows.
	code, env = app.do(t, http.MethodGet, "/api/v1/wallets/"+plnNumber+"/transactions", token, nil)
	require.Equal(t, http.StatusOK, code)
	items := env.Data["items"].([]interface{})
	require.Len(t, items, 2)

	// The clearing wallets absorbed the source amount and funded the
	// conversion.
	assert.True(t, app.masterBalance(t, "PLN").Equal(decimal.RequireFromString("1000100.00")))
	assert.True(t, app.masterBalance(t, "USD").Equal(decimal.RequireFromString("999974.94")))
}

func TestIntegration_Estimate(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.createAccount(t, "estimate_user", "personal")
	plnNumber := app.createWallet(t, token, "PLN")
	usdNumber := app.createWallet(t, token, "USD")

	// Estimates need no funds and move nothing.
	code, env := app.do(t, http.MethodPost, "/api/v1/transfers/estimate", token, map[string]string{
		"source_account_number":      plnNumber,
		"destination_account_number": usdNumber,
		"amount":                     "100.00",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "25.06", env.Data["converted_amount"])
	assert.Equal(t, "0.01", env.Data["spread"])
	assert.Equal(t, 0, app.ledger.countAll())
}

func TestIntegration_TransferRejections(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.createAccount(t, "reject_user", "personal")
	plnNumber := app.createWallet(t, token, "PLN")
	usdNumber := app.createWallet(t, token, "USD")
	app.deposit(t, token, plnNumber, "50.00")

	// Same wallet on both sides.
	code, env := app.do(t, http.MethodPost, "/api/v1/transfers", token, map[string]string{
		"source_account_number":      plnNumber,
		"destination_account_number": plnNumber,
		"amount":                     "10.00",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "TRF_001", env.ErrorCode)

	// More than the wallet holds.
	code, env = app.do(t, http.MethodPost, "/api/v1/transfers", token, map[string]string{
		"source_account_number":      plnNumber,
		"destination_account_number": usdNumber,
		"amount":                     "51.00",
	})
	assert.Equal(t, http.StatusPaymentRequired, code)
	assert.Equal(t, "TRF_003", env.ErrorCode)

	// Someone else's wallet as the source.
	otherToken := app.createAccount(t, "reject_other", "personal")
	otherNumber := app.createWallet(t, otherToken, "PLN")
	code, env = app.do(t, http.MethodPost, "/api/v1/transfers", token, map[string]string{
		"source_account_number":      otherNumber,
		"destination_account_number": usdNumber,
		"amount":                     "10.00",
	})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "WAL_001", env.ErrorCode)

	// Someone else's wallet as the destination.
	code, env = app.do(t, http.MethodPost, "/api/v1/transfers", token, map[string]string{
		"source_account_number":      plnNumber,
		"destination_account_number": otherNumber,
		"amount":                     "10.00",
	})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "WAL_001", env.ErrorCode)

	// Nothing was written to the ledger beyond the funding deposit.
	assert.Equal(t, 1, app.ledger.countAll())
}

func TestIntegration_WalletLifecycle(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.createAccount(t, "wallet_user", "personal")

	// A personal account may hold at most five wallets.
	currencies := []string{"PLN", "USD", "EUR", "GBP", "CHF"}
	numbers := make([]string, 0, len(currencies))
	for _, c := range currencies {
		numbers = append(numbers, app.createWallet(t, token, c))
	}

	code, env := app.do(t, http.MethodPost, "/api/v1/wallets", token, map[string]string{"currency": "JPY"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "WAL_003", env.ErrorCode)

	// A funded wallet cannot be deleted.
	app.deposit(t, token, numbers[0], "25.00")
	code, env = app.do(t, http.MethodDelete, "/api/v1/wallets/"+numbers[0], token, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "WAL_002", env.ErrorCode)

	// An empty one can, which frees its allowance slot.
	code, _ = app.do(t, http.MethodDelete, "/api/v1/wallets/"+numbers[4], token, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = app.do(t, http.MethodPost, "/api/v1/wallets", token, map[string]string{"currency": "JPY"})
	assert.Equal(t, http.StatusCreated, code)

	// Deleted wallets disappear from the listing.
	code, env = app.do(t, http.MethodGet, "/api/v1/wallets", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(5), env.Data["total"])
}

func TestIntegration_RateUnavailable(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.createAccount(t, "rate_user", "personal")
	plnNumber := app.createWallet(t, token, "PLN")
	gbpNumber := app.createWallet(t, token, "GBP")
	app.deposit(t, token, plnNumber, "100.00")

	// No GBP quote was seeded, so the settlement must refuse.
	code, env := app.do(t, http.MethodPost, "/api/v1/transfers", token, map[string]string{
		"source_account_number":      plnNumber,
		"destination_account_number": gbpNumber,
		"amount":                     "10.00",
	})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "RATE_001", env.ErrorCode)
}

func TestIntegration_PublishedRates(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	code, env := app.do(t, http.MethodGet, "/api/v1/rates", "", nil)
	require.Equal(t, http.StatusOK, code)

	items := env.Data["items"].([]interface{})
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "EUR", first["currency"])
	assert.Equal(t, "4.35", first["rate"])
	second := items[1].(map[string]interface{})
	assert.Equal(t, "USD", second["currency"])

	// As-of filtering hides quotes that did not exist yet.
	code, env = app.do(t, http.MethodGet, "/api/v1/rates?date=2024-01-01", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, env.Data["items"])
}

func TestIntegration_SpreadSwitchesAfterAllowance(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.createAccount(t, "spread_user", "personal")
	plnNumber := app.createWallet(t, token, "PLN")
	usdNumber := app.createWallet(t, token, "USD")
	app.deposit(t, token, plnNumber, fmt.Sprintf("%d.00", 100*12))

	// Ten promotional settlements, then the standard spread kicks in.
	for i := 0; i < 10; i++ {
		code, env := app.do(t, http.MethodPost, "/api/v1/transfers", token, map[string]string{
			"source_account_number":      plnNumber,
			"destination_account_number": usdNumber,
			"amount":                     "100.00",
		})
		require.Equal(t, http.StatusCreated, code)
		assert.Equal(t, "0.01", env.Data["spread"], "settlement %d should be promotional", i+1)
	}

	code, env := app.do(t, http.MethodPost, "/api/v1/transfers", token, map[string]string{
		"source_account_number":      plnNumber,
		"destination_account_number": usdNumber,
		"amount":                     "100.00",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "0.02", env.Data["spread"])
	assert.Equal(t, "24.81", env.Data["converted_amount"])
	assert.Equal(t, "0.51", env.Data["broker_fee"])
}
