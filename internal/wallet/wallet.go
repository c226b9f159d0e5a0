// Package wallet reads on-chain balances over Ethereum-style JSON-RPC.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/pnl-tracker/internal/model"
)

// balanceOfSelector is the ERC-20 balanceOf(address) function selector.
const balanceOfSelector = "0x70a08231"

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidAddress reports whether address is a 0x-prefixed 20 byte hex address.
func ValidAddress(address string) bool {
	return addressPattern.MatchString(address)
}

// Token is an ERC-20 contract read alongside the native balance.
type Token struct {
	Symbol   string
	Contract string
	Decimals int32
}

// Provider fetches native and token balances for an address.
type Provider struct {
	httpClient   *http.Client
	rpcURL       string
	nativeSymbol string
	tokens       []Token
	nextID       atomic.Int64
	now          func() time.Time
}

// NewProvider creates a Provider talking to rpcURL.
func NewProvider(rpcURL, nativeSymbol string, tokens []Token) *Provider {
	if nativeSymbol == "" {
		nativeSymbol = "ETH"
	}
	return &Provider{
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		rpcURL:       rpcURL,
		nativeSymbol: strings.ToUpper(nativeSymbol),
		tokens:       tokens,
		now:          time.Now,
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	ID     int64     `json:"id"`
	Result string    `json:"result"`
	Error  *rpcError `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Balances returns the non-zero balances held by address. Prices are left at
// zero for the caller to fill. Any failed call fails the whole read.
func (p *Provider) Balances(ctx context.Context, address string) ([]model.HoldingSource, error) {
	if !ValidAddress(address) {
		return nil, fmt.Errorf("invalid wallet address %q", address)
	}

	amounts := make([]decimal.Decimal, len(p.tokens)+1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	g.Go(func() error {
		raw, err := p.call(gctx, "eth_getBalance", address, "latest")
		if err != nil {
			return fmt.Errorf("native balance: %w", err)
		}
		v, err := parseQuantity(raw)
		if err != nil {
			return fmt.Errorf("native balance: %w", err)
		}
		amounts[0] = decimal.NewFromBigInt(v, -18)
		return nil
	})

	for i, tok := range p.tokens {
		i, tok := i, tok
		g.Go(func() error {
			call := map[string]string{
				"to":   tok.Contract,
				"data": balanceOfSelector + strings.Repeat("0", 24) + strings.ToLower(address[2:]),
			}
			raw, err := p.call(gctx, "eth_call", call, "latest")
			if err != nil {
				return fmt.Errorf("%s balance: %w", tok.Symbol, err)
			}
			v, err := parseQuantity(raw)
			if err != nil {
				return fmt.Errorf("%s balance: %w", tok.Symbol, err)
			}
			amounts[i+1] = decimal.NewFromBigInt(v, -tok.Decimals)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	at := p.now()
	var out []model.HoldingSource
	for i, amt := range amounts {
		if !amt.IsPositive() {
			continue
		}
		symbol := p.nativeSymbol
		if i > 0 {
			symbol = strings.ToUpper(p.tokens[i-1].Symbol)
		}
		out = append(out, model.HoldingSource{
			Symbol:    symbol,
			Quantity:  amt.InexactFloat64(),
			UpdatedAt: at,
		})
	}
	return out, nil
}

func (p *Provider) call(ctx context.Context, method string, params ...interface{}) (string, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      p.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.rpcURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("rpc status %d", resp.StatusCode)
	}

	var response rpcResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return "", err
	}
	if response.Error != nil {
		return "", fmt.Errorf("rpc error %d: %s", response.Error.Code, response.Error.Message)
	}
	return response.Result, nil
}

// parseQuantity decodes a 0x-prefixed hex quantity. "0x" alone is zero.
func parseQuantity(raw string) (*big.Int, error) {
	hex := strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	if len(hex) == len(raw) {
		return nil, fmt.Errorf("quantity %q is not hex", raw)
	}
	if hex == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(hex, 16)
	if !ok {
		return nil, fmt.Errorf("quantity %q is not hex", raw)
	}
	return v, nil
}
