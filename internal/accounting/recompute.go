package accounting

import (
	"time"

	"github.com/ndewijer/pnl-tracker/internal/model"
)

// Input is everything one pipeline run needs. Sources holds the exchange and
// wallet results; the manual source is derived from the ledger.
type Input struct {
	Transactions  []model.Transaction
	Prices        map[string]float64
	Sources       []SourceResult
	Settings      model.NotificationSettings
	Now           time.Time
	SyncedSources []string
	SyncedAt      time.Time
}

// Output is the result of one pipeline run.
type Output struct {
	Positions   map[string]model.Position `json:"positions"`
	Aggregation model.Aggregation         `json:"aggregation"`
	Snapshot    model.DailySnapshot       `json:"snapshot"`
	Events      []model.NotificationEvent `json:"events"`
	Manual      map[string]model.Position `json:"-"`
}

// Engine runs resolve, aggregate, sample and evaluate as one step. It owns the
// snapshot tracker and is not safe for concurrent use.
type Engine struct {
	tracker  *Tracker
	notifier Notifier
}

// NewEngine creates an engine over a restored tracker.
func NewEngine(tracker *Tracker, notifier Notifier) *Engine {
	return &Engine{tracker: tracker, notifier: notifier}
}

// Tracker returns the engine's snapshot tracker.
func (e *Engine) Tracker() *Tracker {
	return e.tracker
}

// Recompute runs the full accounting pipeline on in.
func (e *Engine) Recompute(in Input) Output {
	positions := Resolve(in.Transactions, in.Prices)
	manual := Resolve(FilterBySource(in.Transactions, model.SourceManual), in.Prices)

	results := make([]SourceResult, 0, len(in.Sources)+1)
	results = append(results, ManualSource(manual, in.Now))
	for _, r := range in.Sources {
		if r.Err == nil {
			r.Holdings = PriceHoldings(r.Holdings, in.Prices)
		}
		results = append(results, r)
	}
	agg := Aggregate(results)

	snap := e.tracker.Sample(agg.TotalValue, in.Now)

	events := e.notifier.Evaluate(in.Settings, &snap, Delta{
		Today:         e.tracker.DateKey(in.Now),
		At:            in.Now,
		SyncedSources: in.SyncedSources,
		SyncedAt:      in.SyncedAt,
	})

	return Output{
		Positions:   positions,
		Aggregation: agg,
		Snapshot:    snap,
		Events:      events,
		Manual:      manual,
	}
}
