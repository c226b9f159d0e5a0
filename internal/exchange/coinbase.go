package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/pnl-tracker/internal/model"
)

const (
	coinbaseBaseURL = "https://api.coinbase.com"
	coinbaseVersion = "2024-01-01"
	// maxPages bounds pagination when following next_uri.
	maxPages = 20
)

// coinbaseConnector reads accounts and trades from the Coinbase v2 REST API.
type coinbaseConnector struct {
	name       string
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
	backoff    time.Duration
	maxBackoff time.Duration
	attempts   int
}

func newCoinbaseConnector(cfg Config) (Connector, error) {
	if cfg.Credentials.APIKey == "" {
		return nil, missing(cfg, "api key")
	}
	if cfg.Credentials.APISecret == "" {
		return nil, missing(cfg, "api secret")
	}
	base := cfg.BaseURL
	if base == "" {
		base = coinbaseBaseURL
	}
	return &coinbaseConnector{
		name:       cfg.Name,
		apiKey:     cfg.Credentials.APIKey,
		apiSecret:  cfg.Credentials.APISecret,
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		now:        time.Now,
		backoff:    2 * time.Second,
		maxBackoff: 30 * time.Second,
		attempts:   4,
	}, nil
}

func (c *coinbaseConnector) Name() string { return c.name }
func (c *coinbaseConnector) Kind() Kind   { return KindCoinbase }

type cbMoney struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type cbPagination struct {
	NextURI string `json:"next_uri"`
}

type cbAccount struct {
	ID            string  `json:"id"`
	Balance       cbMoney `json:"balance"`
	NativeBalance cbMoney `json:"native_balance"`
}

type cbTransaction struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	Amount       cbMoney   `json:"amount"`
	NativeAmount cbMoney   `json:"native_amount"`
	CreatedAt    time.Time `json:"created_at"`
}

type cbErrorBody struct {
	Errors []struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	} `json:"errors"`
}

// statusError is returned for non-2xx responses.
type statusError struct {
	Status  int
	Message string
}

func (e *statusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("coinbase status %d", e.Status)
	}
	return fmt.Sprintf("coinbase status %d: %s", e.Status, e.Message)
}

// ValidateCredentials checks the key pair against /v2/user. A 401 or 403
// means invalid credentials, not an error.
func (c *coinbaseConnector) ValidateCredentials(ctx context.Context) (bool, error) {
	var out json.RawMessage
	err := c.get(ctx, "/v2/user", &out)
	if err == nil {
		return true, nil
	}
	if se, ok := err.(*statusError); ok && (se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden) {
		return false, nil
	}
	return false, err
}

// GetBalances returns every non-zero account. The unit price is derived from
// the account's native balance.
func (c *coinbaseConnector) GetBalances(ctx context.Context) ([]model.HoldingSource, error) {
	accounts, err := c.accounts(ctx)
	if err != nil {
		return nil, err
	}

	at := c.now()
	var out []model.HoldingSource
	for _, a := range accounts {
		qty, err := decimal.NewFromString(a.Balance.Amount)
		if err != nil || !qty.IsPositive() {
			continue
		}
		native, err := decimal.NewFromString(a.NativeBalance.Amount)
		if err != nil {
			native = decimal.Zero
		}
		out = append(out, model.HoldingSource{
			Symbol:    strings.ToUpper(a.Balance.Currency),
			Quantity:  qty.InexactFloat64(),
			UnitPrice: native.Div(qty).InexactFloat64(),
			Value:     native.InexactFloat64(),
			UpdatedAt: at,
		})
	}
	return out, nil
}

// GetTransactions returns up to limit completed buys and sells per account.
func (c *coinbaseConnector) GetTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	accounts, err := c.accounts(ctx)
	if err != nil {
		return nil, err
	}

	var out []model.Transaction
	for _, a := range accounts {
		path := fmt.Sprintf("/v2/accounts/%s/transactions?limit=%d", url.PathEscape(a.ID), limit)
		var page struct {
			Data []cbTransaction `json:"data"`
		}
		if err := c.get(ctx, path, &page); err != nil {
			return nil, err
		}
		for _, t := range page.Data {
			if tx, ok := convertTransaction(t); ok {
				out = append(out, tx)
			}
		}
	}
	return out, nil
}

func convertTransaction(t cbTransaction) (model.Transaction, bool) {
	var side model.Side
	switch t.Type {
	case "buy":
		side = model.SideBuy
	case "sell":
		side = model.SideSell
	default:
		return model.Transaction{}, false
	}
	if t.Status != "" && t.Status != "completed" {
		return model.Transaction{}, false
	}

	amount, err := decimal.NewFromString(t.Amount.Amount)
	if err != nil {
		return model.Transaction{}, false
	}
	amount = amount.Abs()
	if amount.IsZero() {
		return model.Transaction{}, false
	}
	native, err := decimal.NewFromString(t.NativeAmount.Amount)
	if err != nil {
		return model.Transaction{}, false
	}

	return model.Transaction{
		ID:         t.ID,
		Symbol:     strings.ToUpper(t.Amount.Currency),
		Side:       side,
		Amount:     amount.InexactFloat64(),
		UnitPrice:  native.Abs().Div(amount).InexactFloat64(),
		OccurredAt: t.CreatedAt,
	}, true
}

func (c *coinbaseConnector) accounts(ctx context.Context) ([]cbAccount, error) {
	var all []cbAccount
	path := "/v2/accounts?limit=100"
	for page := 0; path != "" && page < maxPages; page++ {
		var resp struct {
			Data       []cbAccount  `json:"data"`
			Pagination cbPagination `json:"pagination"`
		}
		if err := c.get(ctx, path, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Data...)
		path = resp.Pagination.NextURI
	}
	return all, nil
}

// sign returns the hex HMAC-SHA256 of timestamp+method+path+body.
func (c *coinbaseConnector) sign(timestamp, method, path, body string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(timestamp + method + path + body))
	return hex.EncodeToString(mac.Sum(nil))
}

// get performs a signed GET, retrying rate limited responses with
// exponential backoff.
func (c *coinbaseConnector) get(ctx context.Context, path string, out interface{}) error {
	backoff := c.backoff

	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > c.maxBackoff {
				backoff = c.maxBackoff
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return err
		}
		ts := strconv.FormatInt(c.now().Unix(), 10)
		req.Header.Set("CB-ACCESS-KEY", c.apiKey)
		req.Header.Set("CB-ACCESS-SIGN", c.sign(ts, http.MethodGet, path, ""))
		req.Header.Set("CB-ACCESS-TIMESTAMP", ts)
		req.Header.Set("CB-VERSION", coinbaseVersion)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = &statusError{Status: resp.StatusCode}
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			se := &statusError{Status: resp.StatusCode}
			var body cbErrorBody
			if json.Unmarshal(data, &body) == nil && len(body.Errors) > 0 {
				se.Message = body.Errors[0].Message
			}
			return se
		}

		return json.Unmarshal(data, out)
	}
	return lastErr
}
