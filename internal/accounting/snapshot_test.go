package accounting_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/pnl-tracker/internal/accounting"
	"github.com/ndewijer/pnl-tracker/internal/model"
)

func day(d, hour int) time.Time {
	return time.Date(2026, 5, d, hour, 0, 0, 0, time.UTC)
}

// TestTracker_Sample tests the snapshot state machine.
//
// WHY: The tracker runs every few seconds. Same-day samples must overwrite the
// day's entry and keep comparing against the previous day, never against the
// overwritten value.
func TestTracker_Sample(t *testing.T) {
	t.Run("first sample without starting balance", func(t *testing.T) {
		tr := accounting.NewTracker(nil, 0, time.UTC)

		snap := tr.Sample(500, day(1, 9))

		assert.Equal(t, "2026-05-01", snap.Date)
		assert.Equal(t, 500.0, snap.DailyChange)
		assert.Equal(t, 0.0, snap.DailyChangePercentage)
	})

	t.Run("first sample against starting balance", func(t *testing.T) {
		tr := accounting.NewTracker(nil, 1000, time.UTC)

		snap := tr.Sample(1100, day(1, 9))

		assert.Equal(t, 1000.0, snap.PreviousValue)
		assert.Equal(t, 100.0, snap.DailyChange)
		assert.InDelta(t, 10.0, snap.DailyChangePercentage, 1e-9)
	})

	t.Run("same day overwrites and compares against previous day", func(t *testing.T) {
		tr := accounting.NewTracker(nil, 0, time.UTC)
		tr.Sample(100, day(1, 9))
		tr.Sample(110, day(2, 9))

		snap := tr.Sample(120, day(2, 18))

		history := tr.History()
		require.Len(t, history, 2)
		assert.Equal(t, 120.0, history[1].TotalValue)
		assert.Equal(t, 100.0, snap.PreviousValue)
		assert.Equal(t, 20.0, snap.DailyChange)
		assert.InDelta(t, 20.0, snap.DailyChangePercentage, 1e-9)
	})

	t.Run("same first day keeps starting balance as reference", func(t *testing.T) {
		tr := accounting.NewTracker(nil, 50, time.UTC)
		tr.Sample(60, day(1, 9))

		snap := tr.Sample(70, day(1, 10))

		assert.Len(t, tr.History(), 1)
		assert.Equal(t, 50.0, snap.PreviousValue)
		assert.Equal(t, 20.0, snap.DailyChange)
	})

	t.Run("new day compares against last entry", func(t *testing.T) {
		tr := accounting.NewTracker([]model.DailySnapshot{
			{Date: "2026-04-28", TotalValue: 10},
			{Date: "2026-04-30", TotalValue: 40},
		}, 0, time.UTC)

		snap := tr.Sample(30, day(3, 9))

		assert.Equal(t, 40.0, snap.PreviousValue)
		assert.Equal(t, -10.0, snap.DailyChange)
		assert.InDelta(t, -25.0, snap.DailyChangePercentage, 1e-9)
	})

	t.Run("date key uses the tracker location", func(t *testing.T) {
		loc := time.FixedZone("UTC+10", 10*3600)
		tr := accounting.NewTracker(nil, 0, loc)

		snap := tr.Sample(1, time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC))

		assert.Equal(t, "2026-05-02", snap.Date)
	})

	t.Run("out of order sample keeps chronology", func(t *testing.T) {
		tr := accounting.NewTracker(nil, 0, time.UTC)
		tr.Sample(100, day(1, 9))
		tr.Sample(300, day(3, 9))

		snap := tr.Sample(200, day(2, 9))

		history := tr.History()
		require.Len(t, history, 3)
		assert.Equal(t, []string{"2026-05-01", "2026-05-02", "2026-05-03"},
			[]string{history[0].Date, history[1].Date, history[2].Date})
		assert.Equal(t, 100.0, snap.PreviousValue)
		assert.Equal(t, 200.0, history[2].PreviousValue)
		assert.Equal(t, 100.0, history[2].DailyChange)
		assert.InDelta(t, 50.0, history[2].DailyChangePercentage, 1e-9)
	})

	t.Run("resampling an earlier day updates the day after it", func(t *testing.T) {
		tr := accounting.NewTracker(nil, 0, time.UTC)
		tr.Sample(100, day(1, 9))
		tr.Sample(150, day(2, 9))
		tr.Sample(300, day(3, 9))

		tr.Sample(250, day(2, 18))

		history := tr.History()
		require.Len(t, history, 3)
		assert.Equal(t, 100.0, history[1].PreviousValue)
		assert.Equal(t, 250.0, history[2].PreviousValue)
		assert.Equal(t, 50.0, history[2].DailyChange)
	})
}

func TestTracker_Recent(t *testing.T) {
	tr := accounting.NewTracker(nil, 0, time.UTC)
	for d := 1; d <= 10; d++ {
		tr.Sample(float64(d), day(d, 9))
	}

	recent := tr.Recent(3)

	require.Len(t, recent, 3)
	assert.Equal(t, "2026-05-08", recent[0].Date)
	assert.Len(t, tr.Recent(0), 10, "tracker never truncates")
	latest, ok := tr.Latest()
	assert.True(t, ok)
	assert.Equal(t, "2026-05-10", latest.Date)
}
