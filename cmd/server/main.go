package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ndewijer/pnl-tracker/internal/api"
	"github.com/ndewijer/pnl-tracker/internal/app"
	"github.com/ndewijer/pnl-tracker/internal/config"
	"github.com/ndewijer/pnl-tracker/internal/logging"
	"github.com/ndewijer/pnl-tracker/internal/scheduler"
	"github.com/ndewijer/pnl-tracker/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Wire database, connectors and services
	a, err := app.New(ctx, cfg, app.Options{Live: true})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer a.Close()

	// Ledger edits re-run the pipeline; a busy pipeline drops the trigger
	a.Transactions.OnChange = func() {
		go a.Pipeline.Trigger(ctx)
	}

	sched := scheduler.New(log.Logger.With().Str("component", "scheduler").Logger())
	if err := sched.Add(cfg.Engine.SampleSchedule, a.Pipeline.Trigger); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule sampling")
	}
	sched.Start()
	go a.Pipeline.Trigger(ctx)

	// Create router
	router := api.NewRouter(api.Services{
		System:       a.System,
		Transactions: a.Transactions,
		Pipeline:     a.Pipeline,
		Settings:     a.Settings,
		Sources:      a.Sources,
		Dispatcher:   a.Dispatcher,
		Hub:          a.Hub,
		Metrics:      a.Metrics,
	}, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("version", version.Version).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Scheduler did not stop in time")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
