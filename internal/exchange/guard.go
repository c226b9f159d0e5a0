package exchange

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/ndewijer/pnl-tracker/internal/apperrors"
	"github.com/ndewijer/pnl-tracker/internal/model"
)

// GuardOptions tunes Guard. Zero values select the defaults.
type GuardOptions struct {
	RPS              float64 // 0 disables rate limiting
	Burst            int
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// guarded wraps a connector with a per-connector rate limiter and circuit
// breaker. Failures are returned as SourceFetchError naming the connector.
type guarded struct {
	inner   Connector
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// Guard wraps c. A connector whose calls keep failing is short-circuited
// until the breaker's open timeout elapses.
func Guard(c Connector, opts GuardOptions) Connector {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 3
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 60 * time.Second
	}
	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}

	st := gobreaker.Settings{Name: c.Name()}
	st.Interval = 60 * time.Second
	st.Timeout = opts.OpenTimeout
	threshold := opts.FailureThreshold
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= threshold
	}

	return &guarded{
		inner:   c,
		limiter: rate.NewLimiter(limit, opts.Burst),
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

func (g *guarded) Name() string { return g.inner.Name() }
func (g *guarded) Kind() Kind   { return g.inner.Kind() }

func (g *guarded) ValidateCredentials(ctx context.Context) (bool, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return false, g.wrap("validate", err)
	}
	ok, err := g.inner.ValidateCredentials(ctx)
	if err != nil {
		return false, g.wrap("validate", err)
	}
	return ok, nil
}

func (g *guarded) GetTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, g.wrap("transactions", err)
	}
	res, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.GetTransactions(ctx, limit)
	})
	if err != nil {
		return nil, g.wrap("transactions", err)
	}
	return res.([]model.Transaction), nil
}

func (g *guarded) GetBalances(ctx context.Context) ([]model.HoldingSource, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, g.wrap("balances", err)
	}
	res, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.GetBalances(ctx)
	})
	if err != nil {
		return nil, g.wrap("balances", err)
	}
	return res.([]model.HoldingSource), nil
}

// State reports the breaker state of a guarded connector, or "" for an
// unguarded one.
func State(c Connector) string {
	if g, ok := c.(*guarded); ok {
		return g.breaker.State().String()
	}
	return ""
}

func (g *guarded) wrap(op string, err error) error {
	return &apperrors.SourceFetchError{Source: g.inner.Name(), Op: op, Err: err}
}
