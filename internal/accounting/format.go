package accounting

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
)

// FormatMoney renders an amount in the display currency, e.g. "$1,234.56".
// Unknown currency codes fall back to USD.
func FormatMoney(amount float64, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		currency = money.USD
		cur = money.GetCurrency(currency)
	}
	factor := math.Pow10(cur.Fraction)
	return money.New(int64(math.Round(amount*factor)), currency).Display()
}

// FormatSignedMoney is FormatMoney with an explicit plus sign for gains.
func FormatSignedMoney(amount float64, currency string) string {
	if amount > 0 {
		return "+" + FormatMoney(amount, currency)
	}
	return FormatMoney(amount, currency)
}

// FormatPercent renders a signed percentage with two decimals.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%+.2f%%", pct)
}
