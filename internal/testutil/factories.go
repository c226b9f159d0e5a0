package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/ndewijer/pnl-tracker/internal/accounting"
	"github.com/ndewijer/pnl-tracker/internal/model"
	"github.com/ndewijer/pnl-tracker/internal/service"
)

// TransactionBuilder provides a fluent interface for creating transactions
type TransactionBuilder struct {
	tx model.Transaction
}

// NewTransaction creates a TransactionBuilder with defaults: a manual buy
// of 1 unit at 100.
func NewTransaction(symbol string) *TransactionBuilder {
	return &TransactionBuilder{tx: model.Transaction{
		ID:         MakeID(),
		Symbol:     symbol,
		Side:       model.SideBuy,
		Amount:     1,
		UnitPrice:  100,
		OccurredAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Source:     model.SourceManual,
	}}
}

// WithID sets a custom ID
func (b *TransactionBuilder) WithID(id string) *TransactionBuilder {
	b.tx.ID = id
	return b
}

// Sell makes the transaction a sell
func (b *TransactionBuilder) Sell() *TransactionBuilder {
	b.tx.Side = model.SideSell
	return b
}

// WithAmount sets the amount
func (b *TransactionBuilder) WithAmount(amount float64) *TransactionBuilder {
	b.tx.Amount = amount
	return b
}

// WithPrice sets the unit price
func (b *TransactionBuilder) WithPrice(price float64) *TransactionBuilder {
	b.tx.UnitPrice = price
	return b
}

// WithFee sets the fee
func (b *TransactionBuilder) WithFee(fee float64) *TransactionBuilder {
	b.tx.Fee = fee
	return b
}

// WithDate sets the occurrence time
func (b *TransactionBuilder) WithDate(at time.Time) *TransactionBuilder {
	b.tx.OccurredAt = at
	return b
}

// WithSource sets the source tag
func (b *TransactionBuilder) WithSource(source string) *TransactionBuilder {
	b.tx.Source = source
	return b
}

// Build returns the transaction without storing it
func (b *TransactionBuilder) Build() model.Transaction {
	return b.tx
}

// Append stores the transaction through svc and returns the stored copy
func (b *TransactionBuilder) Append(t *testing.T, svc *service.TransactionService) model.Transaction {
	t.Helper()

	stored, err := svc.Append(context.Background(), b.tx)
	if err != nil {
		t.Fatalf("Failed to append transaction: %v", err)
	}
	return stored
}

// Holding creates a priced holding for a source result.
func Holding(symbol string, quantity, unitPrice float64) model.HoldingSource {
	return model.HoldingSource{
		Symbol:    symbol,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Value:     quantity * unitPrice,
		UpdatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// ExchangeResult creates a successful exchange source result.
func ExchangeResult(name string, holdings ...model.HoldingSource) accounting.SourceResult {
	return accounting.SourceResult{Name: name, Kind: model.SourceKindExchange, Holdings: holdings}
}

// FailedResult creates a failed source result.
func FailedResult(name string, err error) accounting.SourceResult {
	return accounting.SourceResult{Name: name, Kind: model.SourceKindExchange, Err: err}
}
