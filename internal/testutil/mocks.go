package testutil

import (
	"context"
	"sync"

	"github.com/ndewijer/pnl-tracker/internal/accounting"
	"github.com/ndewijer/pnl-tracker/internal/exchange"
	"github.com/ndewijer/pnl-tracker/internal/model"
)

// MockOracle is a mock price oracle for testing. It returns the configured
// prices for requested symbols and records every call.
type MockOracle struct {
	mu sync.Mutex
	// Prices is the price table served to callers
	Prices map[string]float64
	// MockError is returned together with any prices
	MockError error
	// QueryCount tracks how many times GetPrices was called
	QueryCount int
	// LastSymbols holds the symbols of the most recent call
	LastSymbols []string
	// Hook, if set, runs at the start of every call
	Hook func(ctx context.Context)
}

// NewMockOracle creates a mock oracle serving prices.
func NewMockOracle(prices map[string]float64) *MockOracle {
	if prices == nil {
		prices = map[string]float64{}
	}
	return &MockOracle{Prices: prices}
}

// GetPrices returns the configured prices for symbols.
func (m *MockOracle) GetPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	if m.Hook != nil {
		m.Hook(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCount++
	m.LastSymbols = append([]string(nil), symbols...)

	if m.MockError != nil {
		return map[string]float64{}, m.MockError
	}
	out := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		if p, ok := m.Prices[s]; ok {
			out[s] = p
		}
	}
	return out, nil
}

// WithError configures the mock to return the specified error.
func (m *MockOracle) WithError(err error) *MockOracle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MockError = err
	return m
}

// SetPrice updates a single price.
func (m *MockOracle) SetPrice(symbol string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prices[symbol] = price
}

// MockBalanceFetcher serves fixed source results.
type MockBalanceFetcher struct {
	mu      sync.Mutex
	Results []accounting.SourceResult
	Calls   int
}

// FetchBalances returns the configured results.
func (m *MockBalanceFetcher) FetchBalances(_ context.Context) []accounting.SourceResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	out := make([]accounting.SourceResult, len(m.Results))
	copy(out, m.Results)
	return out
}

// MockConnector is an exchange.Connector with canned responses.
type MockConnector struct {
	mu           sync.Mutex
	ConnName     string
	ConnKind     exchange.Kind
	Valid        bool
	ValidateErr  error
	Balances     []model.HoldingSource
	BalancesErr  error
	Transactions []model.Transaction
	TxErr        error
	BalanceCalls int
	TxCalls      int
}

// NewMockConnector creates a valid simulated-kind connector named name.
func NewMockConnector(name string) *MockConnector {
	return &MockConnector{ConnName: name, ConnKind: exchange.KindSimulated, Valid: true}
}

func (m *MockConnector) Name() string        { return m.ConnName }
func (m *MockConnector) Kind() exchange.Kind { return m.ConnKind }

func (m *MockConnector) ValidateCredentials(_ context.Context) (bool, error) {
	return m.Valid, m.ValidateErr
}

func (m *MockConnector) GetTransactions(_ context.Context, limit int) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TxCalls++
	if m.TxErr != nil {
		return nil, m.TxErr
	}
	txs := m.Transactions
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return append([]model.Transaction(nil), txs...), nil
}

func (m *MockConnector) GetBalances(_ context.Context) ([]model.HoldingSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BalanceCalls++
	if m.BalancesErr != nil {
		return nil, m.BalancesErr
	}
	return append([]model.HoldingSource(nil), m.Balances...), nil
}

// MockWalletReader is an exchange.BalanceReader returning fixed balances.
type MockWalletReader struct {
	Holdings []model.HoldingSource
	Err      error
}

// Balances returns the configured balances.
func (m MockWalletReader) Balances(_ context.Context, _ string) ([]model.HoldingSource, error) {
	return m.Holdings, m.Err
}
