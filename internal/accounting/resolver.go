// Package accounting turns the transaction ledger and source balances into
// positions, a unified valuation, daily snapshots and notification events.
// Everything here is synchronous and free of I/O.
package accounting

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/pnl-tracker/internal/model"
)

var hundred = decimal.NewFromInt(100)

// fold is the running average-cost state of one symbol.
type fold struct {
	held     decimal.Decimal
	invested decimal.Decimal
	avgCost  decimal.Decimal
	fees     decimal.Decimal
}

// apply folds one transaction into the state.
//
// A buy adds amount*price to invested and recomputes the average cost.
// A sell removes amount*avgCost from invested, using the pre-sell average, and
// leaves the average cost untouched. Oversells are applied arithmetically and
// may drive held negative; such positions are dropped after folding.
func (f *fold) apply(t model.Transaction) {
	amount := decimal.NewFromFloat(t.Amount)

	switch t.Side {
	case model.SideBuy:
		f.invested = f.invested.Add(amount.Mul(decimal.NewFromFloat(t.UnitPrice)))
		f.held = f.held.Add(amount)
		if f.held.IsPositive() {
			f.avgCost = f.invested.Div(f.held)
		}
	case model.SideSell:
		f.invested = f.invested.Sub(amount.Mul(f.avgCost))
		f.held = f.held.Sub(amount)
	}

	if t.Fee > 0 {
		f.fees = f.fees.Add(decimal.NewFromFloat(t.Fee))
	}
}

// Resolve folds the transactions, grouped by symbol in the given order, into
// positions valued at prices. Symbols missing from prices are valued at 0.
// Positions whose held amount is not positive are excluded.
//
// Resolve has no hidden state: identical inputs always give identical output.
func Resolve(transactions []model.Transaction, prices map[string]float64) map[string]model.Position {
	folds := make(map[string]*fold)
	for _, t := range transactions {
		symbol := strings.ToUpper(t.Symbol)
		f, ok := folds[symbol]
		if !ok {
			f = &fold{}
			folds[symbol] = f
		}
		f.apply(t)
	}

	positions := make(map[string]model.Position, len(folds))
	for symbol, f := range folds {
		if !f.held.IsPositive() {
			continue
		}

		price := decimal.NewFromFloat(lookupPrice(prices, symbol))
		value := f.held.Mul(price)
		pnl := value.Sub(f.invested)
		pnlPct := decimal.Zero
		if f.invested.IsPositive() {
			pnlPct = pnl.Div(f.invested).Mul(hundred)
		}

		positions[symbol] = model.Position{
			Symbol:        symbol,
			Amount:        f.held.InexactFloat64(),
			AverageCost:   f.avgCost.InexactFloat64(),
			Invested:      f.invested.InexactFloat64(),
			Fees:          f.fees.InexactFloat64(),
			CurrentPrice:  price.InexactFloat64(),
			CurrentValue:  value.InexactFloat64(),
			PnL:           pnl.InexactFloat64(),
			PnLPercentage: pnlPct.InexactFloat64(),
		}
	}
	return positions
}

// FilterBySource returns the transactions tagged with the given source, in order.
func FilterBySource(transactions []model.Transaction, source string) []model.Transaction {
	var out []model.Transaction
	for _, t := range transactions {
		if t.Source == source {
			out = append(out, t)
		}
	}
	return out
}

// Symbols returns the distinct upper-cased symbols of the transactions.
func Symbols(transactions []model.Transaction) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range transactions {
		s := strings.ToUpper(t.Symbol)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func lookupPrice(prices map[string]float64, symbol string) float64 {
	if p, ok := prices[symbol]; ok {
		return p
	}
	return prices[strings.ToLower(symbol)]
}
