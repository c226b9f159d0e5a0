package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/pnl-tracker/internal/apperrors"
	"github.com/ndewijer/pnl-tracker/internal/model"
)

const testAddress = "0x2222222222222222222222222222222222222222"

// TestNew tests connector construction through the registry.
//
// WHY: Missing or unknown settings must surface as ConfigError so only that
// source's connection attempt is blocked.
func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{name: "unknown kind", cfg: Config{Name: "x", Kind: "kraken"}, wantErr: apperrors.ErrUnknownExchange},
		{name: "coinbase without key", cfg: Config{Kind: KindCoinbase, Credentials: model.Credentials{APISecret: "s"}}},
		{name: "coinbase without secret", cfg: Config{Kind: KindCoinbase, Credentials: model.Credentials{APIKey: "k"}}},
		{name: "basechain without address", cfg: Config{Kind: KindBasechain, Wallet: fakeReader{}}},
		{name: "basechain bad address", cfg: Config{Kind: KindBasechain, Credentials: model.Credentials{Address: "0x1"}, Wallet: fakeReader{}}, wantErr: apperrors.ErrInvalidCredentials},
		{name: "basechain without provider", cfg: Config{Kind: KindBasechain, Credentials: model.Credentials{Address: testAddress}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)

			require.Error(t, err)
			assert.True(t, apperrors.IsConfig(err))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	t.Run("defaults name to kind", func(t *testing.T) {
		c, err := New(Config{Kind: KindSimulated})

		require.NoError(t, err)
		assert.Equal(t, "simulated", c.Name())
		assert.Equal(t, KindSimulated, c.Kind())
	})

	t.Run("lists kinds", func(t *testing.T) {
		assert.Equal(t, []Kind{KindBasechain, KindCoinbase, KindSimulated}, Kinds())
	})
}

type fakeReader struct {
	balances []model.HoldingSource
	err      error
}

func (f fakeReader) Balances(_ context.Context, _ string) ([]model.HoldingSource, error) {
	return f.balances, f.err
}

func TestBasechainConnector(t *testing.T) {
	reader := fakeReader{balances: []model.HoldingSource{{Symbol: "ETH", Quantity: 2}}}
	c, err := New(Config{Name: "base", Kind: KindBasechain, Credentials: model.Credentials{Address: testAddress}, Wallet: reader})
	require.NoError(t, err)

	ok, err := c.ValidateCredentials(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	txs, err := c.GetTransactions(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, txs)

	balances, err := c.GetBalances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reader.balances, balances)
	assert.Equal(t, model.SourceKindWallet, SourceKind(c.Kind()))
}

func TestSimulatedConnector(t *testing.T) {
	ctx := context.Background()
	data := &SimulatedData{
		Balances: map[string]float64{"btc": 0.5, "DUST": 0},
		Prices:   map[string]float64{"BTC": 60000},
		Transactions: []model.Transaction{
			{ID: "1", Symbol: "BTC", Side: model.SideBuy, Amount: 1, UnitPrice: 100},
			{ID: "2", Symbol: "BTC", Side: model.SideSell, Amount: 0.5, UnitPrice: 200},
		},
	}

	t.Run("serves configured data", func(t *testing.T) {
		c, err := New(Config{Name: "demo", Kind: KindSimulated, Simulated: data})
		require.NoError(t, err)

		balances, err := c.GetBalances(ctx)
		require.NoError(t, err)
		require.Len(t, balances, 1)
		assert.Equal(t, "BTC", balances[0].Symbol)
		assert.Equal(t, 30000.0, balances[0].Value)

		txs, err := c.GetTransactions(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, txs, 1)
	})

	t.Run("injected failures", func(t *testing.T) {
		boom := errors.New("exchange down")
		c, err := New(Config{Name: "demo", Kind: KindSimulated, Simulated: &SimulatedData{FailBalances: boom, FailTransactions: boom, Invalid: true}})
		require.NoError(t, err)

		_, err = c.GetBalances(ctx)
		assert.ErrorIs(t, err, boom)
		_, err = c.GetTransactions(ctx, 0)
		assert.ErrorIs(t, err, boom)
		ok, err := c.ValidateCredentials(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func newCoinbase(t *testing.T, handler http.HandlerFunc) *coinbaseConnector {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		Name:        "cb",
		Kind:        KindCoinbase,
		BaseURL:     srv.URL,
		Credentials: model.Credentials{APIKey: "key", APISecret: "secret"},
	})
	require.NoError(t, err)
	cb := c.(*coinbaseConnector)
	cb.now = func() time.Time { return time.Unix(1700000000, 0) }
	cb.backoff = time.Millisecond
	cb.maxBackoff = time.Millisecond
	return cb
}

// TestCoinbaseConnector tests request signing, balance derivation and
// transaction import.
//
// WHY: Coinbase rejects unsigned requests, and imported trades feed the cost
// basis directly, so unit prices must be derived from native amounts.
func TestCoinbaseConnector(t *testing.T) {
	ctx := context.Background()

	t.Run("signs requests", func(t *testing.T) {
		c := newCoinbase(t, func(w http.ResponseWriter, r *http.Request) {
			mac := hmac.New(sha256.New, []byte("secret"))
			mac.Write([]byte("1700000000GET/v2/user"))
			assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), r.Header.Get("CB-ACCESS-SIGN"))
			assert.Equal(t, "key", r.Header.Get("CB-ACCESS-KEY"))
			assert.Equal(t, "1700000000", r.Header.Get("CB-ACCESS-TIMESTAMP"))
			_, _ = w.Write([]byte(`{"data":{"id":"u1"}}`))
		})

		ok, err := c.ValidateCredentials(ctx)

		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unauthorized is invalid, not an error", func(t *testing.T) {
		c := newCoinbase(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"errors":[{"id":"authentication_error","message":"invalid signature"}]}`))
		})

		ok, err := c.ValidateCredentials(ctx)

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("balances follow pagination and derive price", func(t *testing.T) {
		c := newCoinbase(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.RequestURI() {
			case "/v2/accounts?limit=100":
				_, _ = w.Write([]byte(`{"pagination":{"next_uri":"/v2/accounts?limit=100&starting_after=a1"},"data":[
					{"id":"a1","balance":{"amount":"0.5","currency":"BTC"},"native_balance":{"amount":"30000.00","currency":"USD"}}]}`))
			case "/v2/accounts?limit=100&starting_after=a1":
				_, _ = w.Write([]byte(`{"pagination":{"next_uri":null},"data":[
					{"id":"a2","balance":{"amount":"0.0","currency":"ETH"},"native_balance":{"amount":"0.00","currency":"USD"}}]}`))
			default:
				t.Errorf("unexpected request %s", r.URL.RequestURI())
			}
		})

		balances, err := c.GetBalances(ctx)

		require.NoError(t, err)
		require.Len(t, balances, 1)
		assert.Equal(t, "BTC", balances[0].Symbol)
		assert.Equal(t, 0.5, balances[0].Quantity)
		assert.Equal(t, 60000.0, balances[0].UnitPrice)
		assert.Equal(t, 30000.0, balances[0].Value)
	})

	t.Run("imports completed buys and sells", func(t *testing.T) {
		c := newCoinbase(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/v2/accounts":
				_, _ = w.Write([]byte(`{"data":[{"id":"a1","balance":{"amount":"1","currency":"BTC"},"native_balance":{"amount":"1","currency":"USD"}}]}`))
			case "/v2/accounts/a1/transactions":
				assert.Equal(t, "25", r.URL.Query().Get("limit"))
				_, _ = w.Write([]byte(`{"data":[
					{"id":"t1","type":"buy","status":"completed","amount":{"amount":"0.5","currency":"BTC"},"native_amount":{"amount":"20000","currency":"USD"},"created_at":"2024-03-01T10:00:00Z"},
					{"id":"t2","type":"sell","status":"completed","amount":{"amount":"-0.1","currency":"BTC"},"native_amount":{"amount":"-5000","currency":"USD"},"created_at":"2024-03-02T10:00:00Z"},
					{"id":"t3","type":"send","status":"completed","amount":{"amount":"-0.1","currency":"BTC"},"native_amount":{"amount":"-5000","currency":"USD"},"created_at":"2024-03-03T10:00:00Z"},
					{"id":"t4","type":"buy","status":"pending","amount":{"amount":"1","currency":"BTC"},"native_amount":{"amount":"50000","currency":"USD"},"created_at":"2024-03-04T10:00:00Z"}]}`))
			default:
				t.Errorf("unexpected request %s", r.URL.RequestURI())
			}
		})

		txs, err := c.GetTransactions(ctx, 25)

		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, "t1", txs[0].ID)
		assert.Equal(t, model.SideBuy, txs[0].Side)
		assert.Equal(t, 40000.0, txs[0].UnitPrice)
		assert.Equal(t, model.SideSell, txs[1].Side)
		assert.Equal(t, 0.1, txs[1].Amount)
		assert.Equal(t, 50000.0, txs[1].UnitPrice)
	})

	t.Run("retries rate limited responses", func(t *testing.T) {
		calls := 0
		c := newCoinbase(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte(`{"data":{}}`))
		})

		ok, err := c.ValidateCredentials(ctx)

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		c := newCoinbase(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := c.GetBalances(ctx)

		assert.ErrorContains(t, err, "503")
	})
}

// TestGuard tests the breaker and error wrapping around a connector.
//
// WHY: One failing exchange must be reported by name and short-circuited
// without affecting other sources.
func TestGuard(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("timeout")
	inner, err := New(Config{Name: "flaky", Kind: KindSimulated, Simulated: &SimulatedData{FailBalances: boom}})
	require.NoError(t, err)

	g := Guard(inner, GuardOptions{FailureThreshold: 2})

	for i := 0; i < 2; i++ {
		_, err := g.GetBalances(ctx)
		var fe *apperrors.SourceFetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "flaky", fe.Source)
		assert.Equal(t, "balances", fe.Op)
		assert.ErrorIs(t, err, boom)
	}

	assert.Equal(t, "open", State(g))
	_, err = g.GetBalances(ctx)
	assert.ErrorContains(t, err, "circuit breaker is open")
	assert.Equal(t, "", State(inner))
	assert.Equal(t, "flaky", g.Name())
	assert.Equal(t, KindSimulated, g.Kind())
}
