package app_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/pnl-tracker/internal/app"
	"github.com/ndewijer/pnl-tracker/internal/config"
	"github.com/ndewijer/pnl-tracker/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Database.Path = filepath.Join(t.TempDir(), "data", "pnl.db")
	cfg.Engine.Currency = "USD"
	cfg.Engine.Location = time.UTC
	cfg.Engine.SyncLimit = 10
	cfg.Security.CredentialKey = testutil.TestCredentialKey
	cfg.Sources.NativeSymbol = "ETH"
	cfg.Sources.Simulated = []config.SimulatedConfig{{
		Name:     "demo",
		Balances: map[string]float64{"BTC": 2},
		Prices:   map[string]float64{"BTC": 100},
	}}
	return cfg
}

// TestNew tests wiring a complete engine from configuration.
//
// WHY: The server and the CLI share this wiring; configured exchanges must
// be attached and valued without any manual setup.
func TestNew(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, err := app.New(ctx, cfg, app.Options{Live: true})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	require.NotNil(t, a.Hub)
	sources := a.Sources.ListSources()
	require.Len(t, sources, 1)
	assert.Equal(t, "demo", sources[0].Name)
	assert.True(t, sources[0].Configured)

	out, err := a.Pipeline.Run(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 200, out.Aggregation.TotalValue, 1e-9)
}

func TestNew_PersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	first, err := app.New(ctx, cfg, app.Options{})
	require.NoError(t, err)
	assert.Nil(t, first.Hub)
	_, err = first.Pipeline.Run(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := app.New(ctx, cfg, app.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })

	assert.Len(t, second.Pipeline.History(0), 1)
}

func TestNew_InvalidCredentialKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.CredentialKey = "not-a-fernet-key"

	_, err := app.New(context.Background(), cfg, app.Options{})

	assert.Error(t, err)
}
