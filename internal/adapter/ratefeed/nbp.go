// Package ratefeed pulls daily mid rates from the NBP table A endpoint
// and persists them as exchange rate quotes.
package ratefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/config"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/domain"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const nbpDateFormat = "2006-01-02"

// Client fetches exchange rate tables from the NBP public API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an NBP API client.
func NewClient(cfg config.RateFeedConfig) *Client {
	return &Client{
		baseURL: cfg.URL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

type nbpTable struct {
	Table         string    `json:"table"`
	No            string    `json:"no"`
	EffectiveDate string    `json:"effectiveDate"`
	Rates         []nbpRate `json:"rates"`
}

type nbpRate struct {
	Currency string      `json:"currency"`
	Code     string      `json:"code"`
	Mid      json.Number `json:"mid"`
}

// FetchLatest retrieves the current table A publication. Rates are
// expressed in PLN per one unit of the quoted currency.
func (c *Client) FetchLatest(ctx context.Context) ([]domain.ExchangeRateQuote, error) {
	url := fmt.Sprintf("%s/exchangerates/tables/A?format=json", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building nbp request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching nbp table: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nbp table request returned status %d", resp.StatusCode)
	}

	var tables []nbpTable
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&tables); err != nil {
		return nil, fmt.Errorf("decoding nbp table: %w", err)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("nbp response contained no tables")
	}

	table := tables[0]
	date, err := time.Parse(nbpDateFormat, table.EffectiveDate)
	if err != nil {
		return nil, fmt.Errorf("parsing nbp effective date %q: %w", table.EffectiveDate, err)
	}

	quotes := make([]domain.ExchangeRateQuote, 0, len(table.Rates))
	for _, r := range table.Rates {
		rate, err := decimal.NewFromString(r.Mid.String())
		if err != nil {
			return nil, fmt.Errorf("parsing mid rate for %s: %w", r.Code, err)
		}
		quotes = append(quotes, domain.ExchangeRateQuote{
			Currency: r.Code,
			Date:     date,
			Rate:     rate,
		})
	}
	return quotes, nil
}

// Refresher periodically pulls the latest table and stores the quotes.
type Refresher struct {
	client   *Client
	quotes   ports.QuoteRepository
	cache    ports.QuoteCache
	interval time.Duration
	log      zerolog.Logger
}

// NewRefresher creates a refresher. cache may be nil when no cache is
// configured.
func NewRefresher(client *Client, quotes ports.QuoteRepository, cache ports.QuoteCache, interval time.Duration, log zerolog.Logger) *Refresher {
	return &Refresher{
		client:   client,
		quotes:   quotes,
		cache:    cache,
		interval: interval,
		log:      log,
	}
}

// Run refreshes once immediately, then on every tick until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	if err := r.RefreshOnce(ctx); err != nil {
		r.log.Error().Err(err).Msg("initial rate refresh failed")
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.RefreshOnce(ctx); err != nil {
				r.log.Error().Err(err).Msg("rate refresh failed")
			}
		}
	}
}

// RefreshOnce fetches the current publication and upserts every quote.
// Quotes that fail to persist are logged and skipped so one bad row
// does not block the rest of the table.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	quotes, err := r.client.FetchLatest(ctx)
	if err != nil {
		return err
	}
	if len(quotes) == 0 {
		r.log.Warn().Msg("nbp publication contained no rates")
		return nil
	}

	stored := 0
	for i := range quotes {
		q := &quotes[i]
		if err := r.quotes.Upsert(ctx, q); err != nil {
			r.log.Error().Err(err).Str("currency", q.Currency).Msg("storing quote failed")
			continue
		}
		if r.cache != nil {
			if err := r.cache.Set(ctx, q); err != nil {
				r.log.Warn().Err(err).Str("currency", q.Currency).Msg("caching quote failed")
			}
		}
		stored++
	}

	r.log.Info().
		Int("stored", stored).
		Int("fetched", len(quotes)).
		Time("effective_date", quotes[0].Date).
		Msg("exchange rates refreshed")
	return nil
}
