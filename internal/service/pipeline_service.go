package service

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ndewijer/pnl-tracker/internal/accounting"
	"github.com/ndewijer/pnl-tracker/internal/apperrors"
	"github.com/ndewijer/pnl-tracker/internal/metrics"
	"github.com/ndewijer/pnl-tracker/internal/model"
	"github.com/ndewijer/pnl-tracker/internal/price"
	"github.com/ndewijer/pnl-tracker/internal/repository"
)

// priceSource names the price oracle in failure metrics.
const priceSource = "price-oracle"

// BalanceFetcher reads balances from every connected source.
type BalanceFetcher interface {
	FetchBalances(ctx context.Context) []accounting.SourceResult
}

// Deliverer delivers notification events once per key.
type Deliverer interface {
	Deliver(ctx context.Context, events []model.NotificationEvent) ([]model.NotificationEvent, error)
}

// PipelineOptions configures a PipelineService.
type PipelineOptions struct {
	Currency        string
	StartingBalance float64
	Location        *time.Location
	Metrics         *metrics.Registry // optional
}

// PipelineService runs price fetch, resolve, aggregate, sample and evaluate
// as one step. At most one run is in flight; a trigger arriving meanwhile is
// dropped with ErrPipelineBusy. A run whose context is cancelled before its
// results are applied is discarded.
type PipelineService struct {
	running sync.Mutex

	mu         sync.RWMutex
	engine     *accounting.Engine
	last       *accounting.Output
	lastAt     time.Time
	lastPrices map[string]float64
	pending    *model.SyncReport

	txService    *TransactionService
	sources      BalanceFetcher
	oracle       price.Oracle
	settings     *SettingsService
	snapshotRepo *repository.SnapshotRepository
	dispatcher   Deliverer
	opts         PipelineOptions
	now          func() time.Time
}

// NewPipelineService restores the snapshot history and creates the service.
func NewPipelineService(
	ctx context.Context,
	txService *TransactionService,
	sources BalanceFetcher,
	oracle price.Oracle,
	settings *SettingsService,
	snapshotRepo *repository.SnapshotRepository,
	dispatcher Deliverer,
	opts PipelineOptions,
) (*PipelineService, error) {
	history, err := snapshotRepo.Load(ctx)
	if err != nil {
		return nil, errors.Join(apperrors.ErrFailedToRetrieveHistory, err)
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	tracker := accounting.NewTracker(history, opts.StartingBalance, opts.Location)

	return &PipelineService{
		engine:       accounting.NewEngine(tracker, accounting.Notifier{Currency: opts.Currency}),
		lastPrices:   map[string]float64{},
		txService:    txService,
		sources:      sources,
		oracle:       oracle,
		settings:     settings,
		snapshotRepo: snapshotRepo,
		dispatcher:   dispatcher,
		opts:         opts,
		now:          time.Now,
	}, nil
}

// NotifySynced queues a sync-complete report for the next run to announce.
// Reports that arrive before that run are merged, keeping the latest sync time.
func (p *PipelineService) NotifySynced(report model.SyncReport) {
	if len(report.Synced) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending == nil {
		r := report
		r.Synced = append([]string(nil), report.Synced...)
		p.pending = &r
		return
	}
	for _, name := range report.Synced {
		if !slices.Contains(p.pending.Synced, name) {
			p.pending.Synced = append(p.pending.Synced, name)
		}
	}
	if report.SyncedAt.After(p.pending.SyncedAt) {
		p.pending.SyncedAt = report.SyncedAt
		p.pending.SyncID = report.SyncID
	}
}

// Run executes one pipeline run.
func (p *PipelineService) Run(ctx context.Context) (accounting.Output, error) {
	if !p.running.TryLock() {
		if m := p.opts.Metrics; m != nil {
			m.PipelineSkipped.Inc()
		}
		return accounting.Output{}, apperrors.ErrPipelineBusy
	}
	defer p.running.Unlock()

	start := time.Now()
	out, err := p.run(ctx)
	result := metrics.ResultOK
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		result = metrics.ResultCancelled
		log.Debug().Err(err).Msg("pipeline run discarded")
	case err != nil:
		result = metrics.ResultError
		log.Error().Err(err).Msg("pipeline run failed")
	default:
		log.Info().
			Float64("total_value", out.Aggregation.TotalValue).
			Int("positions", len(out.Positions)).
			Int("failures", len(out.Aggregation.Failures)).
			Dur("duration", time.Since(start)).
			Msg("pipeline run complete")
	}
	if m := p.opts.Metrics; m != nil {
		m.ObserveRun(result, time.Since(start))
		if err == nil {
			m.PortfolioValue.Set(out.Aggregation.TotalValue)
		}
	}
	return out, err
}

func (p *PipelineService) run(ctx context.Context) (accounting.Output, error) {
	transactions := p.txService.Snapshot()
	results := p.sources.FetchBalances(ctx)
	if err := ctx.Err(); err != nil {
		return accounting.Output{}, err
	}

	prices, err := p.oracle.GetPrices(ctx, collectSymbols(transactions, results))
	if err := ctx.Err(); err != nil {
		return accounting.Output{}, err
	}
	if err != nil {
		log.Warn().Err(err).Msg("price fetch failed, using last known prices")
		if m := p.opts.Metrics; m != nil {
			m.SourceFailures.WithLabelValues(priceSource).Inc()
		}
	}

	settings, err := p.settings.GetNotificationSettings(ctx)
	if err != nil {
		return accounting.Output{}, errors.Join(apperrors.ErrFailedToRetrieveSettings, err)
	}

	p.mu.Lock()
	merged := make(map[string]float64, len(p.lastPrices)+len(prices))
	for s, v := range p.lastPrices {
		merged[s] = v
	}
	for s, v := range prices {
		merged[s] = v
	}

	// Past this point the run is applied; later cancellation no longer
	// discards it.
	if err := ctx.Err(); err != nil {
		p.mu.Unlock()
		return accounting.Output{}, err
	}

	now := p.now()
	in := accounting.Input{
		Transactions: transactions,
		Prices:       merged,
		Sources:      results,
		Settings:     settings,
		Now:          now,
	}
	pending := p.pending
	if pending != nil {
		in.SyncedSources = pending.Synced
		in.SyncedAt = pending.SyncedAt
	}

	out := p.engine.Recompute(in)
	history := p.engine.Tracker().History()
	p.last = &out
	p.lastAt = now
	p.lastPrices = merged
	p.pending = nil
	p.mu.Unlock()

	applyCtx := context.WithoutCancel(ctx)
	if err := p.snapshotRepo.Save(applyCtx, history); err != nil {
		log.Error().Err(err).Msg("failed to persist snapshot history")
	}
	if p.dispatcher != nil {
		if _, err := p.dispatcher.Deliver(applyCtx, out.Events); err != nil {
			log.Error().Err(err).Msg("failed to deliver notifications")
		}
	}

	return out, nil
}

// Trigger runs the pipeline on behalf of a scheduler or change hook. A busy
// pipeline drops the trigger.
func (p *PipelineService) Trigger(ctx context.Context) {
	if _, err := p.Run(ctx); errors.Is(err, apperrors.ErrPipelineBusy) {
		log.Debug().Msg("pipeline busy, trigger dropped")
	}
}

// Positions resolves the ledger against the last known prices. It does not
// wait for a pipeline run.
func (p *PipelineService) Positions() []model.Position {
	transactions := p.txService.Snapshot()

	p.mu.RLock()
	prices := p.lastPrices
	p.mu.RUnlock()

	positions := accounting.Resolve(transactions, prices)
	out := make([]model.Position, 0, len(positions))
	for _, pos := range positions {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Summary returns the headline numbers of the last completed run.
func (p *PipelineService) Summary() (model.PortfolioSummary, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.last == nil {
		return model.PortfolioSummary{}, apperrors.ErrNoPipelineResult
	}
	out := p.last

	var invested, value float64
	for _, pos := range out.Positions {
		invested += pos.Invested
		value += pos.CurrentValue
	}
	pnl := value - invested
	pnlPct := 0.0
	if invested > 0 {
		pnlPct = pnl / invested * 100
	}

	currency := p.opts.Currency
	return model.PortfolioSummary{
		Currency:      currency,
		TotalValue:    out.Aggregation.TotalValue,
		Invested:      invested,
		PnL:           pnl,
		PnLPercentage: pnlPct,
		Today:         out.Snapshot,
		Holdings:      accounting.SortedHoldings(out.Aggregation),
		ValueBySource: accounting.ValueBySource(out.Aggregation),
		Failures:      out.Aggregation.Failures,
		Display: model.SummaryDisplay{
			TotalValue:  accounting.FormatMoney(out.Aggregation.TotalValue, currency),
			DailyChange: accounting.FormatSignedMoney(out.Snapshot.DailyChange, currency),
			DailyPct:    accounting.FormatPercent(out.Snapshot.DailyChangePercentage),
			PnL:         accounting.FormatSignedMoney(pnl, currency),
		},
		UpdatedAt: p.lastAt,
	}, nil
}

// History returns up to limit most recent daily snapshots, oldest first.
func (p *PipelineService) History(limit int) []model.DailySnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.engine.Tracker().Recent(limit)
}

// collectSymbols returns the symbols that need a price: every ledger symbol
// and every source holding reported without one.
func collectSymbols(transactions []model.Transaction, results []accounting.SourceResult) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range accounting.Symbols(transactions) {
		add(s)
	}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		for _, h := range r.Holdings {
			if h.UnitPrice == 0 {
				add(h.Symbol)
			}
		}
	}
	sort.Strings(out)
	return out
}
