package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"surplus-saver-api/internal/handler"
	"surplus-saver-api/internal/middleware"
	"surplus-saver-api/internal/service"
)

// Config holds the configuration for creating a router.
type Config struct {
	HealthHandler  *handler.HealthHandler
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	BagHandler     *handler.BagHandler
	OrderHandler   *handler.OrderHandler
	StoreHandler   *handler.StoreHandler
	AuthMiddleware func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Token"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.HealthHandler != nil {
		r.Get("/api/status", cfg.HealthHandler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.HealthHandler != nil {
			r.Get("/health", cfg.HealthHandler.Health)
			r.Get("/ready", cfg.HealthHandler.Ready)
		}

		if cfg.AuthHandler != nil {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
		}

		// Storefront listing is public: browsing needs no account.
		if cfg.BagHandler != nil {
			r.Get("/bags", cfg.BagHandler.List)
		}

		// AUTHENTICATED routes
		r.Group(func(r chi.Router) {
			if cfg.AuthMiddleware != nil {
				r.Use(cfg.AuthMiddleware)
			}

			if cfg.AuthHandler != nil {
				r.Post("/auth/revoke", cfg.AuthHandler.Revoke)
				r.Post("/auth/refresh", cfg.AuthHandler.Refresh)
			}

			if cfg.UserHandler != nil {
				r.Route("/user", func(r chi.Router) {
					r.Get("/", cfg.UserHandler.Get)
					r.With(middleware.RequireAction(service.ActionUpdateProfile)).Put("/", cfg.UserHandler.Update)
					r.With(middleware.RequireAction(service.ActionViewBalance)).Get("/balance", cfg.UserHandler.Balance)
					r.With(middleware.RequireAction(service.ActionDeposit)).Post("/deposit", cfg.UserHandler.Deposit)
					r.With(middleware.RequireAction(service.ActionViewLedger)).Get("/ledger", cfg.UserHandler.Ledger)
				})
			}

			if cfg.BagHandler != nil {
				r.With(middleware.RequireAction(service.ActionManageBags)).Post("/bags", cfg.BagHandler.Create)
				r.Route("/bags/{id}", func(r chi.Router) {
					r.Use(middleware.RequireAction(service.ActionManageBags))
					r.Put("/", cfg.BagHandler.Update)
					r.Delete("/", cfg.BagHandler.Delete)
				})
			}

			if cfg.OrderHandler != nil {
				r.Route("/orders", func(r chi.Router) {
					r.With(middleware.RequireAction(service.ActionViewOrders)).Get("/", cfg.OrderHandler.List)
					r.With(middleware.RequireAction(service.ActionPlaceOrder)).Post("/", cfg.OrderHandler.Place)
					r.Route("/{id}", func(r chi.Router) {
						r.With(middleware.RequireAction(service.ActionViewOrders)).Get("/", cfg.OrderHandler.Get)
						r.With(middleware.RequireAction(service.ActionConfirmOrder)).Post("/confirm", cfg.OrderHandler.Confirm)
						r.With(middleware.RequireAction(service.ActionCancelOrder)).Post("/cancel", cfg.OrderHandler.Cancel)
						r.With(middleware.RequireAction(service.ActionCompleteOrder)).Post("/complete", cfg.OrderHandler.Complete)
						r.With(middleware.RequireAction(service.ActionRefundOrder)).Post("/refund", cfg.OrderHandler.Refund)
					})
				})
			}

			if cfg.StoreHandler != nil {
				r.Route("/store", func(r chi.Router) {
					r.With(middleware.RequireAction(service.ActionManageBags)).Get("/bags", cfg.StoreHandler.Bags)
					r.With(middleware.RequireAction(service.ActionViewStoreOrders)).Get("/orders", cfg.StoreHandler.Orders)
					r.With(middleware.RequireAction(service.ActionViewStoreStats)).Get("/stats", cfg.StoreHandler.Stats)
					r.Route("/reports", func(r chi.Router) {
						r.Use(middleware.RequireAction(service.ActionRequestReport))
						r.Post("/", cfg.StoreHandler.RequestReport)
						r.Get("/{id}", cfg.StoreHandler.GetReport)
					})
				})
			}
		})
	})

	return r
}
