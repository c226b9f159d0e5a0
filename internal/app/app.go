// Package app wires configuration, storage, connectors and services into a
// running engine. It is shared by the HTTP server and the pnlctl CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/ndewijer/pnl-tracker/internal/config"
	"github.com/ndewijer/pnl-tracker/internal/database"
	"github.com/ndewijer/pnl-tracker/internal/exchange"
	"github.com/ndewijer/pnl-tracker/internal/metrics"
	"github.com/ndewijer/pnl-tracker/internal/model"
	"github.com/ndewijer/pnl-tracker/internal/notify"
	"github.com/ndewijer/pnl-tracker/internal/price"
	"github.com/ndewijer/pnl-tracker/internal/repository"
	"github.com/ndewijer/pnl-tracker/internal/service"
	"github.com/ndewijer/pnl-tracker/internal/wallet"
)

// WalletSourceName names the connector attached for WALLET_ADDRESS.
const WalletSourceName = "wallet"

// Options selects the optional parts of the wiring.
type Options struct {
	// Live enables the websocket hub for notification broadcast.
	Live bool
}

// App holds the wired services.
type App struct {
	Config *config.Config
	DB     *sql.DB

	Metrics    *metrics.Registry
	Hub        *notify.Hub // nil unless Options.Live
	Dispatcher *notify.Dispatcher

	System       *service.SystemService
	Transactions *service.TransactionService
	Settings     *service.SettingsService
	Sources      *service.SourceService
	Pipeline     *service.PipelineService

	redis *redis.Client
}

// New opens the database, applies migrations and builds every service.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, DB: db, Metrics: metrics.NewRegistry()}

	if err := a.build(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, opts Options) error {
	cfg := a.Config

	if err := database.Migrate(a.DB); err != nil {
		return err
	}
	log.Info().Str("path", cfg.Database.Path).Msg("database ready")

	store := repository.NewStore(a.DB)
	credentials, err := repository.NewCredentialRepository(store, cfg.Security.CredentialKey)
	if err != nil {
		return err
	}
	if cfg.Security.CredentialKey == "" {
		log.Warn().Msg("CREDENTIAL_KEY not set, exchange connections cannot be stored")
	}

	a.System = service.NewSystemService(a.DB)
	a.Settings = service.NewSettingsService(repository.NewSettingsRepository(store))
	a.Transactions, err = service.NewTransactionService(ctx, repository.NewTransactionRepository(store), cfg.Engine.Location)
	if err != nil {
		return err
	}

	var broadcaster notify.Broadcaster
	if opts.Live {
		a.Hub = notify.NewHub(log.Logger.With().Str("component", "hub").Logger(), cfg.CORS.AllowedOrigins)
		broadcaster = a.Hub
	}
	a.Dispatcher, err = notify.NewDispatcher(ctx, repository.NewNotificationRepository(store), broadcaster,
		log.Logger.With().Str("component", "notify").Logger())
	if err != nil {
		return err
	}
	a.Dispatcher.OnDeliver = func(kind model.EventKind) {
		a.Metrics.Notifications.WithLabelValues(string(kind)).Inc()
	}

	provider := wallet.NewProvider(cfg.Wallet.RPCURL, cfg.Sources.NativeSymbol, walletTokens(cfg.Sources.Tokens))
	a.Sources = service.NewSourceService(repository.NewSourceRepository(store), credentials, a.Transactions, service.SourceOptions{
		Wallet:    provider,
		SyncLimit: cfg.Engine.SyncLimit,
		OnFailure: func(source string) {
			a.Metrics.SourceFailures.WithLabelValues(source).Inc()
		},
	})
	if err := a.Sources.Restore(ctx); err != nil {
		return err
	}
	if err := a.attachConfigured(provider); err != nil {
		return err
	}

	a.Pipeline, err = service.NewPipelineService(ctx,
		a.Transactions,
		a.Sources,
		a.priceOracle(ctx),
		a.Settings,
		repository.NewSnapshotRepository(store),
		a.Dispatcher,
		service.PipelineOptions{
			Currency:        cfg.Engine.Currency,
			StartingBalance: cfg.Engine.StartingBalance,
			Location:        cfg.Engine.Location,
			Metrics:         a.Metrics,
		},
	)
	return err
}

// attachConfigured registers the wallet and simulated exchanges from
// configuration.
func (a *App) attachConfigured(provider *wallet.Provider) error {
	cfg := a.Config

	if cfg.Wallet.Address != "" {
		conn, err := exchange.New(exchange.Config{
			Name:        WalletSourceName,
			Kind:        exchange.KindBasechain,
			Credentials: model.Credentials{Address: cfg.Wallet.Address},
			Wallet:      provider,
		})
		if err != nil {
			return fmt.Errorf("wallet: %w", err)
		}
		a.Sources.Attach(conn)
	}

	for _, sim := range cfg.Sources.Simulated {
		conn, err := exchange.New(exchange.Config{
			Name: sim.Name,
			Kind: exchange.KindSimulated,
			Simulated: &exchange.SimulatedData{
				Balances: sim.Balances,
				Prices:   sim.Prices,
			},
		})
		if err != nil {
			return fmt.Errorf("simulated exchange %s: %w", sim.Name, err)
		}
		a.Sources.Attach(conn)
	}
	return nil
}

// priceOracle builds the CoinGecko client behind a last-known cache. Redis
// backs the cache when configured and reachable.
func (a *App) priceOracle(ctx context.Context) price.Oracle {
	cfg := a.Config
	client := price.NewCoinGeckoClient(price.CoinGeckoOptions{
		BaseURL:  cfg.Price.BaseURL,
		Currency: strings.ToLower(cfg.Engine.Currency),
		IDs:      cfg.Sources.PriceIDs,
		RPS:      cfg.Price.RPS,
		Timeout:  cfg.Price.Timeout,
	})

	var cache price.Cache = price.NewMemoryCache()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, using in-memory price cache")
			rdb.Close()
		} else {
			a.redis = rdb
			cache = price.NewRedisCache(rdb)
			log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis price cache")
		}
	}
	return price.NewLastKnown(client, cache)
}

// Close releases the hub, Redis and database.
func (a *App) Close() error {
	if a.Hub != nil {
		a.Hub.Close()
	}
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.DB.Close())
	return errors.Join(errs...)
}

func walletTokens(tokens []config.TokenConfig) []wallet.Token {
	out := make([]wallet.Token, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, wallet.Token{Symbol: t.Symbol, Contract: t.Contract, Decimals: t.Decimals})
	}
	return out
}
