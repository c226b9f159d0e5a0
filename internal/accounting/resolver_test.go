package accounting_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/pnl-tracker/internal/accounting"
	"github.com/ndewijer/pnl-tracker/internal/model"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func buy(symbol string, amount, price float64) model.Transaction {
	return model.Transaction{Symbol: symbol, Side: model.SideBuy, Amount: amount, UnitPrice: price, OccurredAt: t0, Source: model.SourceManual}
}

func sell(symbol string, amount, price float64) model.Transaction {
	return model.Transaction{Symbol: symbol, Side: model.SideSell, Amount: amount, UnitPrice: price, OccurredAt: t0, Source: model.SourceManual}
}

// TestResolve_AverageCost tests the buy and sell branches of the cost-basis fold.
//
// WHY: Average cost drives every reported P&L figure. Only buys may move it;
// sells must shrink invested at the pre-sell average, whatever the sale price.
func TestResolve_AverageCost(t *testing.T) {
	t.Run("two buys average their prices", func(t *testing.T) {
		txs := []model.Transaction{
			buy("BTC", 0.5, 45000),
			buy("BTC", 0.5, 47000),
		}

		positions := accounting.Resolve(txs, nil)

		require.Contains(t, positions, "BTC")
		p := positions["BTC"]
		assert.Equal(t, 1.0, p.Amount)
		assert.Equal(t, 46000.0, p.AverageCost)
		assert.Equal(t, 46000.0, p.Invested)
	})

	t.Run("sell keeps average cost and uses it for invested", func(t *testing.T) {
		for _, salePrice := range []float64{0, 10000, 46000, 90000} {
			txs := []model.Transaction{
				buy("BTC", 0.5, 45000),
				buy("BTC", 0.5, 47000),
				sell("BTC", 0.2, salePrice),
			}

			p := accounting.Resolve(txs, nil)["BTC"]

			assert.Equal(t, 0.8, p.Amount, "sale price %v", salePrice)
			assert.Equal(t, 36800.0, p.Invested, "sale price %v", salePrice)
			assert.Equal(t, 46000.0, p.AverageCost, "sale price %v", salePrice)
		}
	})

	t.Run("buy after sell moves the average", func(t *testing.T) {
		txs := []model.Transaction{
			buy("ETH", 2, 1000),
			sell("ETH", 1, 5000),
			buy("ETH", 1, 3000),
		}

		p := accounting.Resolve(txs, nil)["ETH"]

		assert.Equal(t, 2.0, p.Amount)
		assert.Equal(t, 4000.0, p.Invested)
		assert.Equal(t, 2000.0, p.AverageCost)
	})

	t.Run("symbols are folded independently and case-insensitively", func(t *testing.T) {
		txs := []model.Transaction{
			buy("btc", 1, 100),
			buy("ETH", 1, 10),
			buy("BTC", 1, 300),
		}

		positions := accounting.Resolve(txs, nil)

		assert.Len(t, positions, 2)
		assert.Equal(t, 200.0, positions["BTC"].AverageCost)
		assert.Equal(t, 10.0, positions["ETH"].AverageCost)
	})
}

// TestResolve_BuySequenceProperty checks average cost against total spent over
// total held for generated buy sequences.
//
// WHY: The buy branch must not accumulate rounding drift across many entries.
func TestResolve_BuySequenceProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		var txs []model.Transaction
		var spent, held float64
		n := 1 + rng.Intn(20)
		for i := 0; i < n; i++ {
			amount := float64(1+rng.Intn(1000)) / 100
			price := float64(rng.Intn(10000000)) / 100
			txs = append(txs, buy("SOL", amount, price))
			spent += amount * price
			held += amount
		}

		p := accounting.Resolve(txs, nil)["SOL"]

		assert.InDelta(t, held, p.Amount, 1e-9)
		assert.InDelta(t, spent, p.Invested, 1e-6)
		assert.InDelta(t, spent/held, p.AverageCost, 1e-6)
	}
}

// TestResolve_Filtering tests exclusion of empty and oversold positions.
//
// WHY: Oversells are applied arithmetically rather than rejected, so positions
// with nothing left must still disappear from the report.
func TestResolve_Filtering(t *testing.T) {
	t.Run("fully sold position is excluded", func(t *testing.T) {
		txs := []model.Transaction{
			buy("BTC", 1, 100),
			sell("BTC", 1, 200),
			buy("ETH", 1, 10),
		}

		positions := accounting.Resolve(txs, nil)

		assert.NotContains(t, positions, "BTC")
		assert.Contains(t, positions, "ETH")
	})

	t.Run("oversell is applied, not rejected", func(t *testing.T) {
		txs := []model.Transaction{
			buy("BTC", 1, 100),
			sell("BTC", 3, 100),
		}

		assert.NotContains(t, accounting.Resolve(txs, nil), "BTC")
	})

	t.Run("oversell carries into later buys", func(t *testing.T) {
		txs := []model.Transaction{
			buy("BTC", 1, 100),
			sell("BTC", 3, 100),
			buy("BTC", 3, 100),
		}

		p := accounting.Resolve(txs, nil)["BTC"]

		assert.Equal(t, 1.0, p.Amount)
		assert.Equal(t, 100.0, p.Invested)
	})
}

// TestResolve_Valuation tests price attachment and P&L.
//
// WHY: Missing prices are normal (partial oracle results) and must value the
// position at 0 instead of failing.
func TestResolve_Valuation(t *testing.T) {
	txs := []model.Transaction{
		buy("BTC", 2, 100),
		buy("DOGE", 10, 1),
		buy("FREE", 5, 0),
	}
	prices := map[string]float64{"BTC": 150, "FREE": 2}

	positions := accounting.Resolve(txs, prices)

	btc := positions["BTC"]
	assert.Equal(t, 150.0, btc.CurrentPrice)
	assert.Equal(t, 300.0, btc.CurrentValue)
	assert.Equal(t, 100.0, btc.PnL)
	assert.Equal(t, 50.0, btc.PnLPercentage)

	doge := positions["DOGE"]
	assert.Equal(t, 0.0, doge.CurrentPrice)
	assert.Equal(t, -10.0, doge.PnL)
	assert.Equal(t, -100.0, doge.PnLPercentage)

	free := positions["FREE"]
	assert.Equal(t, 10.0, free.PnL)
	assert.Equal(t, 0.0, free.PnLPercentage, "nothing invested means 0%")
}

func TestResolve_Idempotent(t *testing.T) {
	txs := []model.Transaction{
		buy("BTC", 0.5, 45000),
		buy("ETH", 3, 2000),
		sell("BTC", 0.1, 50000),
	}
	prices := map[string]float64{"BTC": 60000, "ETH": 2500}

	first := accounting.Resolve(txs, prices)
	second := accounting.Resolve(txs, prices)

	assert.Equal(t, first, second)
}

func TestFilterBySource(t *testing.T) {
	imported := buy("BTC", 1, 1)
	imported.Source = "coinbase"
	txs := []model.Transaction{buy("BTC", 1, 1), imported, buy("ETH", 1, 1)}

	manual := accounting.FilterBySource(txs, model.SourceManual)

	assert.Len(t, manual, 2)
	assert.Equal(t, []string{"BTC", "ETH"}, accounting.Symbols(txs))
}
