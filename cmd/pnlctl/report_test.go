package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/pnl-tracker/internal/model"
)

func testSummary() model.PortfolioSummary {
	return model.PortfolioSummary{
		Currency:      "USD",
		TotalValue:    170,
		Invested:      100,
		PnL:           50,
		PnLPercentage: 50,
		Holdings: []model.AggregatedHolding{
			{Symbol: "BTC", Quantity: 1, Value: 150, Sources: []model.SourceShare{{Source: "manual"}}},
			{Symbol: "ETH", Quantity: 2, Value: 20, Sources: []model.SourceShare{{Source: "demo"}}},
		},
		Failures: []model.SourceFailure{{Source: "kraken", Error: "timeout"}},
		Display: model.SummaryDisplay{
			TotalValue:  "$170.00",
			DailyChange: "+$70.00",
			DailyPct:    "+70.00%",
			PnL:         "+$50.00",
		},
	}
}

// WHY: The report is the only human-facing view outside the API; each table
// must carry the formatted amounts the summary endpoint exposes.
func TestReportMarkdown(t *testing.T) {
	positions := []model.Position{{
		Symbol: "BTC", Amount: 1, AverageCost: 100, Invested: 100,
		CurrentPrice: 150, CurrentValue: 150, PnL: 50, PnLPercentage: 50,
	}}

	md := reportMarkdown(testSummary(), positions)

	assert.Contains(t, md, "# Portfolio $170.00")
	assert.Contains(t, md, "- Today: +$70.00 (+70.00%)")
	assert.Contains(t, md, "- Invested: $100.00")
	assert.Contains(t, md, "| BTC | 1 | $100.00 | $150.00 | $150.00 | +$50.00 | +50.00% |")
	assert.Contains(t, md, "| ETH | 2 | $20.00 | demo |")
	assert.Contains(t, md, "- **kraken**: timeout")
	assert.NotContains(t, md, "Updated:")
}

func TestReportMarkdownEmpty(t *testing.T) {
	md := reportMarkdown(model.PortfolioSummary{Currency: "USD", Display: model.SummaryDisplay{TotalValue: "$0.00"}}, nil)

	assert.Contains(t, md, "# Portfolio $0.00")
	assert.NotContains(t, md, "## Positions")
	assert.NotContains(t, md, "## Balances")
	assert.NotContains(t, md, "## Unavailable sources")
}

func TestWriteReport(t *testing.T) {
	md := reportMarkdown(testSummary(), nil)

	t.Run("plain", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeReport(&buf, md, false, "dark"))
		assert.Equal(t, md, buf.String())
	})

	t.Run("styled", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeReport(&buf, md, true, "notty"))
		out := buf.String()
		assert.Contains(t, out, "Portfolio")
		assert.Contains(t, out, "kraken")
		assert.NotEqual(t, md, out)
	})
}
