package accounting

import (
	"sort"
	"time"

	"github.com/ndewijer/pnl-tracker/internal/model"
)

// DateLayout is the calendar-day key format of snapshots.
const DateLayout = "2006-01-02"

// Tracker owns the daily snapshot history and is its only writer. It keeps
// one entry per local calendar day, in chronological order, and never
// truncates; display limits are applied by callers through Recent.
//
// A Tracker is not safe for concurrent use.
type Tracker struct {
	history         []model.DailySnapshot
	startingBalance float64
	location        *time.Location
}

// NewTracker restores a tracker from persisted history. A nil location means
// time.Local.
func NewTracker(history []model.DailySnapshot, startingBalance float64, location *time.Location) *Tracker {
	if location == nil {
		location = time.Local
	}
	h := make([]model.DailySnapshot, len(history))
	copy(h, history)
	sort.SliceStable(h, func(i, j int) bool { return h[i].Date < h[j].Date })

	return &Tracker{
		history:         h,
		startingBalance: startingBalance,
		location:        location,
	}
}

// DateKey returns the local calendar day of now.
func (t *Tracker) DateKey(now time.Time) string {
	return now.In(t.location).Format(DateLayout)
}

// Sample records totalValue for the calendar day of now.
//
// The first sample of a day is compared against the latest earlier day, or
// the starting balance when there is none. Re-sampling the same day
// overwrites that day's entry and is still compared against the day before
// it, so repeated samples never compound against themselves. A sample dated
// before the latest entry is inserted in date order and the entry following
// it is re-derived against it.
func (t *Tracker) Sample(totalValue float64, now time.Time) model.DailySnapshot {
	date := t.DateKey(now)
	idx := sort.Search(len(t.history), func(i int) bool { return t.history[i].Date >= date })

	snap := buildSnapshot(date, totalValue, t.previousValue(idx))

	if idx < len(t.history) && t.history[idx].Date == date {
		t.history[idx] = snap
	} else {
		t.history = append(t.history, model.DailySnapshot{})
		copy(t.history[idx+1:], t.history[idx:])
		t.history[idx] = snap
	}

	// A backdated sample becomes the reference of the day after it.
	if next := idx + 1; next < len(t.history) {
		n := t.history[next]
		t.history[next] = buildSnapshot(n.Date, n.TotalValue, snap.TotalValue)
	}
	return snap
}

// previousValue is the value of the entry before position idx.
func (t *Tracker) previousValue(idx int) float64 {
	if idx == 0 {
		return t.startingBalance
	}
	return t.history[idx-1].TotalValue
}

func buildSnapshot(date string, totalValue, previous float64) model.DailySnapshot {
	change := totalValue - previous
	pct := 0.0
	if previous > 0 {
		pct = change / previous * 100
	}
	return model.DailySnapshot{
		Date:                  date,
		TotalValue:            totalValue,
		PreviousValue:         previous,
		DailyChange:           change,
		DailyChangePercentage: pct,
	}
}

// History returns a copy of the full history in chronological order.
func (t *Tracker) History() []model.DailySnapshot {
	out := make([]model.DailySnapshot, len(t.history))
	copy(out, t.history)
	return out
}

// Recent returns the last n entries in chronological order. n <= 0 returns all.
func (t *Tracker) Recent(n int) []model.DailySnapshot {
	if n <= 0 || n >= len(t.history) {
		return t.History()
	}
	out := make([]model.DailySnapshot, n)
	copy(out, t.history[len(t.history)-n:])
	return out
}

// Latest returns the chronologically last entry.
func (t *Tracker) Latest() (model.DailySnapshot, bool) {
	if len(t.history) == 0 {
		return model.DailySnapshot{}, false
	}
	return t.history[len(t.history)-1], true
}
