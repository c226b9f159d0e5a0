package exchange

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ndewijer/pnl-tracker/internal/model"
)

// SimulatedData configures a simulated exchange. The Fail fields inject
// errors into the matching calls.
type SimulatedData struct {
	Balances         map[string]float64
	Prices           map[string]float64
	Transactions     []model.Transaction
	Invalid          bool
	FailBalances     error
	FailTransactions error
}

// simulatedConnector serves configured data. It stands in for real
// exchanges in demos and tests.
type simulatedConnector struct {
	name string
	mu   sync.Mutex
	data SimulatedData
	now  func() time.Time
}

func newSimulatedConnector(cfg Config) (Connector, error) {
	data := SimulatedData{}
	if cfg.Simulated != nil {
		data = *cfg.Simulated
	}
	return &simulatedConnector{name: cfg.Name, data: data, now: time.Now}, nil
}

func (c *simulatedConnector) Name() string { return c.name }
func (c *simulatedConnector) Kind() Kind   { return KindSimulated }

func (c *simulatedConnector) ValidateCredentials(_ context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.data.Invalid, nil
}

func (c *simulatedConnector) GetTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data.FailTransactions != nil {
		return nil, c.data.FailTransactions
	}
	txs := c.data.Transactions
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	out := make([]model.Transaction, len(txs))
	copy(out, txs)
	return out, nil
}

func (c *simulatedConnector) GetBalances(ctx context.Context) ([]model.HoldingSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data.FailBalances != nil {
		return nil, c.data.FailBalances
	}
	at := c.now()
	out := make([]model.HoldingSource, 0, len(c.data.Balances))
	for sym, qty := range c.data.Balances {
		if qty <= 0 {
			continue
		}
		sym = strings.ToUpper(sym)
		price := c.data.Prices[sym]
		out = append(out, model.HoldingSource{
			Symbol:    sym,
			Quantity:  qty,
			UnitPrice: price,
			Value:     qty * price,
			UpdatedAt: at,
		})
	}
	return out, nil
}
