package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/pnl-tracker/internal/api/request"
	"github.com/ndewijer/pnl-tracker/internal/apperrors"
	"github.com/ndewijer/pnl-tracker/internal/exchange"
	"github.com/ndewijer/pnl-tracker/internal/model"
	"github.com/ndewijer/pnl-tracker/internal/service"
	"github.com/ndewijer/pnl-tracker/internal/testutil"
)

// TestSourceService_Connect tests connecting exchange accounts.
//
// WHY: Bad credentials or an unknown exchange must block only that
// connection, and a successful connection must survive a restart.
func TestSourceService_Connect(t *testing.T) {
	ctx := context.Background()

	t.Run("connects and restores", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		txSvc := testutil.NewTestTransactionService(t, db)
		svc := testutil.NewTestSourceService(t, db, txSvc, service.SourceOptions{})

		info, err := svc.Connect(ctx, request.ConnectSourceRequest{Name: "demo", Kind: "simulated"})

		require.NoError(t, err)
		assert.Equal(t, "demo", info.Name)
		assert.Equal(t, "simulated", info.Kind)

		restored := testutil.NewTestSourceService(t, db, txSvc, service.SourceOptions{})
		require.NoError(t, restored.Restore(ctx))
		sources := restored.ListSources()
		require.Len(t, sources, 1)
		assert.Equal(t, "demo", sources[0].Name)
		assert.Empty(t, sources[0].LastError)
	})

	t.Run("duplicate name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSourceService(t, db, testutil.NewTestTransactionService(t, db), service.SourceOptions{})
		_, err := svc.Connect(ctx, request.ConnectSourceRequest{Name: "demo", Kind: "simulated"})
		require.NoError(t, err)

		_, err = svc.Connect(ctx, request.ConnectSourceRequest{Name: "demo", Kind: "simulated"})

		assert.ErrorIs(t, err, apperrors.ErrDuplicateSource)
	})

	t.Run("config errors", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSourceService(t, db, testutil.NewTestTransactionService(t, db), service.SourceOptions{})

		_, err := svc.Connect(ctx, request.ConnectSourceRequest{Name: "k", Kind: "kraken"})
		assert.True(t, apperrors.IsConfig(err))
		assert.ErrorIs(t, err, apperrors.ErrUnknownExchange)

		_, err = svc.Connect(ctx, request.ConnectSourceRequest{Name: "cb", Kind: "coinbase", APIKey: "only-key"})
		assert.True(t, apperrors.IsConfig(err))

		assert.Empty(t, svc.ListSources())
	})

	t.Run("basechain uses the wallet reader", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		reader := testutil.MockWalletReader{Holdings: []model.HoldingSource{testutil.Holding("ETH", 1.5, 0)}}
		svc := testutil.NewTestSourceService(t, db, testutil.NewTestTransactionService(t, db), service.SourceOptions{Wallet: reader})

		_, err := svc.Connect(ctx, request.ConnectSourceRequest{
			Name:    "base",
			Kind:    "basechain",
			Address: "0x3333333333333333333333333333333333333333",
		})
		require.NoError(t, err)

		results := svc.FetchBalances(ctx)
		require.Len(t, results, 1)
		assert.NoError(t, results[0].Err)
		assert.Equal(t, model.SourceKindWallet, results[0].Kind)
		assert.Equal(t, 1.5, results[0].Holdings[0].Quantity)
	})
}

func TestSourceService_Disconnect(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestSourceService(t, db, testutil.NewTestTransactionService(t, db), service.SourceOptions{})

	_, err := svc.Connect(ctx, request.ConnectSourceRequest{Name: "demo", Kind: "simulated"})
	require.NoError(t, err)
	svc.Attach(testutil.NewMockConnector("wallet"))

	t.Run("configured source cannot be disconnected", func(t *testing.T) {
		err := svc.Disconnect(ctx, "wallet")
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("removes connected source", func(t *testing.T) {
		require.NoError(t, svc.Disconnect(ctx, "demo"))

		sources := svc.ListSources()
		require.Len(t, sources, 1)
		assert.Equal(t, "wallet", sources[0].Name)
		assert.True(t, sources[0].Configured)
	})

	t.Run("unknown source", func(t *testing.T) {
		assert.ErrorIs(t, svc.Disconnect(ctx, "demo"), apperrors.ErrSourceNotFound)
	})
}

// TestSourceService_FetchBalances tests the per-source fan-out.
//
// WHY: One failing exchange must not block or erase the balances of the
// others; its failure is reported next to them.
func TestSourceService_FetchBalances(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	var mu sync.Mutex
	var failed []string
	svc := testutil.NewTestSourceService(t, db, testutil.NewTestTransactionService(t, db), service.SourceOptions{
		OnFailure: func(source string) {
			mu.Lock()
			defer mu.Unlock()
			failed = append(failed, source)
		},
	})

	good := testutil.NewMockConnector("good")
	good.Balances = []model.HoldingSource{testutil.Holding("BTC", 0.5, 60000)}
	bad := testutil.NewMockConnector("bad")
	bad.BalancesErr = errors.New("gateway timeout")
	svc.Attach(good)
	svc.Attach(bad)

	results := svc.FetchBalances(ctx)

	require.Len(t, results, 2)
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	assert.Equal(t, "bad", results[0].Name)
	var fe *apperrors.SourceFetchError
	require.ErrorAs(t, results[0].Err, &fe)
	assert.Equal(t, "bad", fe.Source)
	assert.NoError(t, results[1].Err)
	assert.Len(t, results[1].Holdings, 1)
	assert.Equal(t, []string{"bad"}, failed)

	for _, s := range svc.ListSources() {
		assert.Equal(t, "closed", s.Breaker)
		if s.Name == "bad" {
			assert.Contains(t, s.LastError, "gateway timeout")
		} else {
			assert.Empty(t, s.LastError)
		}
	}
}

// TestSourceService_ListSourcesBreaker tests the breaker state in listings.
//
// WHY: A source whose breaker is open is skipped until the timeout elapses;
// the listing must show it so the outage is not mistaken for stale data.
func TestSourceService_ListSourcesBreaker(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestSourceService(t, db, testutil.NewTestTransactionService(t, db), service.SourceOptions{
		Guard: exchange.GuardOptions{FailureThreshold: 1},
	})

	bad := testutil.NewMockConnector("bad")
	bad.BalancesErr = errors.New("gateway timeout")
	svc.Attach(bad)

	svc.FetchBalances(ctx)

	sources := svc.ListSources()
	require.Len(t, sources, 1)
	assert.Equal(t, "open", sources[0].Breaker)
}

// TestSourceService_Sync tests importing trades from every source.
//
// WHY: A sync touches several exchanges; a failure in one must be reported
// without discarding the trades already fetched from the others.
func TestSourceService_Sync(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	txSvc := testutil.NewTestTransactionService(t, db)
	svc := testutil.NewTestSourceService(t, db, txSvc, service.SourceOptions{SyncLimit: 10})

	good := testutil.NewMockConnector("good")
	good.Transactions = []model.Transaction{
		testutil.NewTransaction("BTC").WithID("a").Build(),
		testutil.NewTransaction("BTC").WithID("b").Sell().WithAmount(0.25).Build(),
	}
	bad := testutil.NewMockConnector("bad")
	bad.TxErr = errors.New("invalid signature")
	svc.Attach(good)
	svc.Attach(bad)

	t.Run("imports and reports failures", func(t *testing.T) {
		report, err := svc.Sync(ctx)

		require.NoError(t, err)
		assert.NotEmpty(t, report.SyncID)
		assert.Equal(t, map[string]int{"good": 2}, report.Imported)
		assert.Equal(t, []string{"good"}, report.Synced)
		require.Len(t, report.Failures, 1)
		assert.Equal(t, "bad", report.Failures[0].Source)

		_, err = txSvc.GetTransaction("good:a")
		assert.NoError(t, err)
	})

	t.Run("re-sync is idempotent", func(t *testing.T) {
		report, err := svc.Sync(ctx, "good")

		require.NoError(t, err)
		assert.Equal(t, 0, report.Imported["good"])
		assert.Len(t, txSvc.GetTransactions(""), 2)
	})

	t.Run("records last sync time", func(t *testing.T) {
		for _, s := range svc.ListSources() {
			if s.Name == "good" {
				require.NotNil(t, s.LastSyncAt)
			}
		}
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := svc.Sync(ctx, "nope")
		assert.ErrorIs(t, err, apperrors.ErrSourceNotFound)
	})
}

func TestSourceService_RestoreWithoutCredentials(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	txSvc := testutil.NewTestTransactionService(t, db)
	svc := testutil.NewTestSourceService(t, db, txSvc, service.SourceOptions{})

	_, err := svc.Connect(ctx, request.ConnectSourceRequest{Name: "demo", Kind: "simulated"})
	require.NoError(t, err)
	// A coinbase entry whose credentials were never stored.
	_, err = db.Exec(`UPDATE kv_store SET value = ? WHERE key = 'sources'`,
		`[{"name":"cb","kind":"coinbase","connectedAt":"2024-03-01T00:00:00Z"},{"name":"demo","kind":"simulated","connectedAt":"2024-03-01T00:00:00Z"}]`)
	require.NoError(t, err)

	restored := testutil.NewTestSourceService(t, db, txSvc, service.SourceOptions{})
	require.NoError(t, restored.Restore(ctx))

	sources := restored.ListSources()
	require.Len(t, sources, 2)
	assert.Equal(t, "cb", sources[0].Name)
	assert.NotEmpty(t, sources[0].LastError)

	results := restored.FetchBalances(ctx)
	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, exchange.SourceKind(exchange.KindCoinbase), results[0].Kind)
}
