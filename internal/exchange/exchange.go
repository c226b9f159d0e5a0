// Package exchange connects external balance and trade feeds. Every feed
// implements Connector; the concrete variant is chosen by Kind through a
// registry of factories.
package exchange

import (
	"context"
	"fmt"
	"sort"

	"github.com/ndewijer/pnl-tracker/internal/apperrors"
	"github.com/ndewijer/pnl-tracker/internal/model"
)

// Kind identifies a connector variant.
type Kind string

const (
	KindCoinbase  Kind = "coinbase"
	KindBasechain Kind = "basechain"
	KindSimulated Kind = "simulated"
)

// Connector is the capability every exchange or chain feed offers.
// Transactions carry the feed's own identifiers; callers namespace them.
type Connector interface {
	Name() string
	Kind() Kind
	ValidateCredentials(ctx context.Context) (bool, error)
	GetTransactions(ctx context.Context, limit int) ([]model.Transaction, error)
	GetBalances(ctx context.Context) ([]model.HoldingSource, error)
}

// BalanceReader reads on-chain balances for an address.
type BalanceReader interface {
	Balances(ctx context.Context, address string) ([]model.HoldingSource, error)
}

// Config carries everything a factory may need. Fields irrelevant to a kind
// are ignored.
type Config struct {
	Name        string
	Kind        Kind
	Credentials model.Credentials
	BaseURL     string
	Wallet      BalanceReader
	Simulated   *SimulatedData
}

// Factory builds a connector from cfg.
type Factory func(cfg Config) (Connector, error)

var registry = map[Kind]Factory{
	KindCoinbase:  newCoinbaseConnector,
	KindBasechain: newBasechainConnector,
	KindSimulated: newSimulatedConnector,
}

// New builds the connector registered for cfg.Kind. Unknown kinds and
// missing settings are reported as ConfigError.
func New(cfg Config) (Connector, error) {
	factory, ok := registry[cfg.Kind]
	if !ok {
		return nil, &apperrors.ConfigError{Source: cfg.Name, Reason: fmt.Sprintf("kind %q", cfg.Kind), Err: apperrors.ErrUnknownExchange}
	}
	if cfg.Name == "" {
		cfg.Name = string(cfg.Kind)
	}
	return factory(cfg)
}

// Kinds lists the registered connector kinds.
func Kinds() []Kind {
	out := make([]Kind, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SourceKind maps a connector kind to its holding source kind.
func SourceKind(k Kind) model.SourceKind {
	if k == KindBasechain {
		return model.SourceKindWallet
	}
	return model.SourceKindExchange
}

func missing(cfg Config, field string) error {
	return &apperrors.ConfigError{Source: cfg.Name, Reason: field + " is required"}
}
