package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// CoinGeckoClient fetches spot prices from a CoinGecko compatible
// /simple/price endpoint. Requests are rate limited and guarded by a circuit
// breaker so a failing upstream is not hammered on every sample.
type CoinGeckoClient struct {
	httpClient *http.Client
	baseURL    string
	currency   string
	ids        map[string]string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

// CoinGeckoOptions configures a CoinGeckoClient. Zero values fall back to
// defaults.
type CoinGeckoOptions struct {
	BaseURL  string
	Currency string
	IDs      map[string]string // overrides merged over DefaultIDs
	RPS      float64
	Timeout  time.Duration
}

// NewCoinGeckoClient creates a client from opts.
func NewCoinGeckoClient(opts CoinGeckoOptions) *CoinGeckoClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}

	ids := make(map[string]string, len(DefaultIDs)+len(opts.IDs))
	for sym, id := range DefaultIDs {
		ids[sym] = id
	}
	for sym, id := range opts.IDs {
		ids[strings.ToUpper(sym)] = id
	}

	st := gobreaker.Settings{Name: "price-oracle"}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 3
	}

	return &CoinGeckoClient{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		currency:   strings.ToLower(opts.Currency),
		ids:        ids,
		limiter:    rate.NewLimiter(limit, 1),
		breaker:    gobreaker.NewCircuitBreaker(st),
	}
}

// CoinID returns the coin id used for symbol. Unknown symbols map to their
// lower-cased ticker.
func (c *CoinGeckoClient) CoinID(symbol string) string {
	if id, ok := c.ids[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

// GetPrices returns prices for symbols keyed by upper-case symbol. Symbols
// the endpoint does not know are omitted.
func (c *CoinGeckoClient) GetPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	symbols = normalize(symbols)
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}

	idSet := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		idSet[c.CoinID(s)] = true
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.querySimplePrice(ctx, ids)
	})
	if err != nil {
		return nil, fmt.Errorf("price oracle: %w", err)
	}

	prices := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		path := fmt.Sprintf(`$[%q][%q]`, c.CoinID(s), c.currency)
		v, err := jsonpath.Get(path, result)
		if err != nil {
			log.Debug().Str("symbol", s).Str("path", path).Msg("price missing from oracle response")
			continue
		}
		if f, ok := v.(float64); ok {
			prices[s] = f
		}
	}
	return prices, nil
}

// querySimplePrice executes the HTTP request and decodes the body into a
// generic JSON document for path extraction.
func (c *CoinGeckoClient) querySimplePrice(ctx context.Context, ids []string) (interface{}, error) {
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", c.currency)
	endpoint := c.baseURL + "/simple/price?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
