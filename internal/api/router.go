package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ndewijer/pnl-tracker/internal/api/handlers"
	custommiddleware "github.com/ndewijer/pnl-tracker/internal/api/middleware"
	"github.com/ndewijer/pnl-tracker/internal/config"
	"github.com/ndewijer/pnl-tracker/internal/metrics"
	"github.com/ndewijer/pnl-tracker/internal/notify"
	"github.com/ndewijer/pnl-tracker/internal/service"
)

// Services groups the dependencies served by the router.
type Services struct {
	System       *service.SystemService
	Transactions *service.TransactionService
	Pipeline     *service.PipelineService
	Settings     *service.SettingsService
	Sources      *service.SourceService
	Dispatcher   *notify.Dispatcher
	Hub          *notify.Hub
	Metrics      *metrics.Registry // optional
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	requireAPIKey := custommiddleware.APIKeyMiddleware(cfg.Security.InternalAPIKey)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/transaction", func(r chi.Router) {
			transactionHandler := handlers.NewTransactionHandler(svc.Transactions)
			r.Get("/", transactionHandler.AllTransactions)
			r.Post("/", transactionHandler.CreateTransaction)
			r.Get("/{id}", transactionHandler.GetTransaction)
			r.Delete("/{id}", transactionHandler.DeleteTransaction)
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(svc.Pipeline, cfg.Engine.HistoryDisplayDays)
			r.Get("/positions", portfolioHandler.Positions)
			r.Get("/summary", portfolioHandler.Summary)
			r.Post("/refresh", portfolioHandler.Refresh)
			r.Get("/history", portfolioHandler.History)
		})

		r.Route("/settings", func(r chi.Router) {
			settingsHandler := handlers.NewSettingsHandler(svc.Settings)
			r.Get("/notifications", settingsHandler.GetNotificationSettings)
			r.Put("/notifications", settingsHandler.UpdateNotificationSettings)
		})

		r.Route("/source", func(r chi.Router) {
			sourceHandler := handlers.NewSourceHandler(svc.Sources, svc.Pipeline)
			r.Get("/", sourceHandler.ListSources)
			r.With(requireAPIKey).Post("/", sourceHandler.ConnectSource)
			r.Post("/sync", sourceHandler.SyncAll)

			r.Route("/{name}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateSourceNameMiddleware)
				r.With(requireAPIKey).Delete("/", sourceHandler.DisconnectSource)
				r.Post("/sync", sourceHandler.SyncSource)
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			notificationHandler := handlers.NewNotificationHandler(svc.Dispatcher)
			r.Get("/", notificationHandler.Recent)
			if svc.Hub != nil {
				r.Get("/ws", svc.Hub.ServeHTTP)
			}
		})
	})

	if svc.Metrics != nil {
		r.Handle("/metrics", svc.Metrics.Handler())
	}

	return r
}
