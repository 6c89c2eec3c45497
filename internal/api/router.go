package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/folioview/folio-backend/internal/api/handlers"
	custommiddleware "github.com/folioview/folio-backend/internal/api/middleware"
	"github.com/folioview/folio-backend/internal/config"
	"github.com/folioview/folio-backend/internal/repository"
	"github.com/folioview/folio-backend/internal/service"
)

// Services bundles the dependencies the router hands to its handlers.
type Services struct {
	System  *service.SystemService
	Summary *service.SummaryService
	Refresh *service.RefreshService
	Assets  *repository.AssetRepository
	Prices  *repository.PriceRepository
	Deals   *repository.DealRepository
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

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
		})

		r.Route("/assets", func(r chi.Router) {
			assetHandler := handlers.NewAssetHandler(svc.Assets, svc.Prices)
			r.Get("/", assetHandler.Assets)
			r.Get("/{code}/prices", assetHandler.Prices)
		})

		r.Route("/accounts", func(r chi.Router) {
			accountHandler := handlers.NewAccountHandler(svc.Deals, svc.Summary, svc.Refresh)
			r.Get("/", accountHandler.Accounts)
			r.Get("/summary", accountHandler.Summary)
			r.Get("/history", accountHandler.History)
			r.Get("/positions", accountHandler.Positions)
			r.Post("/refresh", accountHandler.Refresh)
		})
	})

	return r
}
