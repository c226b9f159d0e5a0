package exchange

import (
	"context"

	"github.com/ndewijer/pnl-tracker/internal/apperrors"
	"github.com/ndewijer/pnl-tracker/internal/model"
	"github.com/ndewijer/pnl-tracker/internal/wallet"
)

// basechainConnector reports the balances of a Base chain address. The chain
// has no trade history to import.
type basechainConnector struct {
	name    string
	address string
	reader  BalanceReader
}

func newBasechainConnector(cfg Config) (Connector, error) {
	if cfg.Credentials.Address == "" {
		return nil, missing(cfg, "address")
	}
	if !wallet.ValidAddress(cfg.Credentials.Address) {
		return nil, &apperrors.ConfigError{Source: cfg.Name, Reason: "invalid address", Err: apperrors.ErrInvalidCredentials}
	}
	if cfg.Wallet == nil {
		return nil, missing(cfg, "wallet provider")
	}
	return &basechainConnector{name: cfg.Name, address: cfg.Credentials.Address, reader: cfg.Wallet}, nil
}

func (c *basechainConnector) Name() string { return c.name }
func (c *basechainConnector) Kind() Kind   { return KindBasechain }

// ValidateCredentials reports whether the address is well formed.
func (c *basechainConnector) ValidateCredentials(_ context.Context) (bool, error) {
	return wallet.ValidAddress(c.address), nil
}

func (c *basechainConnector) GetTransactions(_ context.Context, _ int) ([]model.Transaction, error) {
	return nil, nil
}

func (c *basechainConnector) GetBalances(ctx context.Context) ([]model.HoldingSource, error) {
	return c.reader.Balances(ctx, c.address)
}
