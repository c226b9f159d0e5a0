package accounting

import (
	"sort"
	"strings"
	"time"

	"github.com/ndewijer/pnl-tracker/internal/model"
)

// SourceResult is what one source returned for a run. A non-nil Err means
// the source failed; its holdings are ignored and the failure is reported.
type SourceResult struct {
	Name     string
	Kind     model.SourceKind
	Holdings []model.HoldingSource
	Err      error
}

// Aggregate merges holdings across sources. Quantities are summed per symbol
// and value is the sum of each source's quantity times that source's own
// price, so sources reporting different prices keep their own valuation.
// A failed source contributes nothing and is listed in Failures; the others
// are aggregated as usual.
func Aggregate(results []SourceResult) model.Aggregation {
	agg := model.Aggregation{
		Holdings: make(map[string]model.AggregatedHolding),
		Failures: []model.SourceFailure{},
	}

	for _, r := range results {
		if r.Err != nil {
			agg.Failures = append(agg.Failures, model.SourceFailure{
				Source: r.Name,
				Kind:   r.Kind,
				Error:  r.Err.Error(),
			})
			continue
		}

		for _, h := range r.Holdings {
			symbol := strings.ToUpper(strings.TrimSpace(h.Symbol))
			if symbol == "" {
				continue
			}
			value := h.Quantity * h.UnitPrice

			holding := agg.Holdings[symbol]
			holding.Symbol = symbol
			holding.Quantity += h.Quantity
			holding.Value += value
			holding.Sources = mergeShare(holding.Sources, model.SourceShare{
				Source:    r.Name,
				Kind:      r.Kind,
				Quantity:  h.Quantity,
				UnitPrice: h.UnitPrice,
				Value:     value,
				UpdatedAt: h.UpdatedAt,
			})
			agg.Holdings[symbol] = holding
		}
	}

	for symbol, h := range agg.Holdings {
		if h.Quantity > 0 {
			h.AveragePrice = h.Value / h.Quantity
		}
		agg.Holdings[symbol] = h
		agg.TotalValue += h.Value
	}
	return agg
}

// mergeShare adds a source's contribution, combining repeated reports from the
// same source for one symbol.
func mergeShare(shares []model.SourceShare, s model.SourceShare) []model.SourceShare {
	for i := range shares {
		if shares[i].Source != s.Source {
			continue
		}
		shares[i].Quantity += s.Quantity
		shares[i].Value += s.Value
		if shares[i].Quantity != 0 {
			shares[i].UnitPrice = shares[i].Value / shares[i].Quantity
		}
		if s.UpdatedAt.After(shares[i].UpdatedAt) {
			shares[i].UpdatedAt = s.UpdatedAt
		}
		return shares
	}
	return append(shares, s)
}

// ValueBySource attributes the aggregated value to each source.
func ValueBySource(agg model.Aggregation) map[string]float64 {
	out := make(map[string]float64)
	for _, h := range agg.Holdings {
		for _, s := range h.Sources {
			out[s.Source] += s.Value
		}
	}
	return out
}

// SortedHoldings returns the holdings ordered by value, largest first.
func SortedHoldings(agg model.Aggregation) []model.AggregatedHolding {
	out := make([]model.AggregatedHolding, 0, len(agg.Holdings))
	for _, h := range agg.Holdings {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// ManualSource turns resolved positions into the manual ledger's holdings.
func ManualSource(positions map[string]model.Position, at time.Time) SourceResult {
	holdings := make([]model.HoldingSource, 0, len(positions))
	for _, p := range positions {
		holdings = append(holdings, model.HoldingSource{
			Symbol:    p.Symbol,
			Quantity:  p.Amount,
			UnitPrice: p.CurrentPrice,
			Value:     p.CurrentValue,
			UpdatedAt: at,
		})
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })
	return SourceResult{Name: model.SourceManual, Kind: model.SourceKindManual, Holdings: holdings}
}

// PriceHoldings fills in the unit price and value of holdings reported without
// a price, using prices from the oracle. Holdings that carry their own price
// are left untouched.
func PriceHoldings(holdings []model.HoldingSource, prices map[string]float64) []model.HoldingSource {
	out := make([]model.HoldingSource, len(holdings))
	for i, h := range holdings {
		if h.UnitPrice == 0 {
			h.UnitPrice = lookupPrice(prices, strings.ToUpper(h.Symbol))
		}
		h.Value = h.Quantity * h.UnitPrice
		out[i] = h
	}
	return out
}
