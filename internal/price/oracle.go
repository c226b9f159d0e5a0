// Package price provides current unit prices for asset symbols.
package price

import (
	"context"
	"strings"
)

// Oracle returns current unit prices in the display currency. Unresolvable
// symbols are omitted from the result; a network failure is returned as an
// error.
type Oracle interface {
	GetPrices(ctx context.Context, symbols []string) (map[string]float64, error)
}

// DefaultIDs maps ticker symbols to CoinGecko coin ids.
var DefaultIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"WETH":  "weth",
	"USDC":  "usd-coin",
	"USDT":  "tether",
	"DAI":   "dai",
	"SOL":   "solana",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"MATIC": "matic-network",
	"LINK":  "chainlink",
	"CBETH": "coinbase-wrapped-staked-eth",
}

func normalize(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
