// Package leadgen собирает основное приложение: маршруты, зависимости
// и жизненный цикл HTTP-сервера.
package leadgen

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	adminhandler "github.com/99sellers/leadgen/internal/http/handlers/admin"
	"github.com/99sellers/leadgen/internal/http/handlers/auth/login"
	"github.com/99sellers/leadgen/internal/http/handlers/auth/register"
	exporthandler "github.com/99sellers/leadgen/internal/http/handlers/export"
	"github.com/99sellers/leadgen/internal/http/handlers/export/history"
	"github.com/99sellers/leadgen/internal/http/handlers/health"
	leadshandler "github.com/99sellers/leadgen/internal/http/handlers/leads"
	"github.com/99sellers/leadgen/internal/http/handlers/subscription/cancel"
	"github.com/99sellers/leadgen/internal/http/handlers/subscription/create"
	"github.com/99sellers/leadgen/internal/http/handlers/subscription/plans"
	"github.com/99sellers/leadgen/internal/http/handlers/subscription/status"
	"github.com/99sellers/leadgen/internal/http/handlers/subscription/trialstart"
	"github.com/99sellers/leadgen/internal/http/middlewarectx"
	adminservice "github.com/99sellers/leadgen/internal/services/admin"
	authservice "github.com/99sellers/leadgen/internal/services/auth"
	exportservice "github.com/99sellers/leadgen/internal/services/export"
	leadsservice "github.com/99sellers/leadgen/internal/services/leads"
	subservice "github.com/99sellers/leadgen/internal/services/subscription"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	authService *authservice.AuthService,
	subscriptionService *subservice.SubscriptionService,
	adminService *adminservice.AdminService,
	exportService *exportservice.ExportService,
	leadsService *leadsservice.LeadsService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	limiter := rate.NewLimiter(rate.Limit(20), 40)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))

			r.Get("/subscriptions/status", status.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/plans", plans.New(logger, subservice.Plans).ServeHTTP)
			r.Post("/subscriptions/trial/start", trialstart.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions", create.New(logger, subscriptionService).ServeHTTP)

			r.Get("/leads", leadshandler.New(logger, leadsService).ServeHTTP)
			r.Post("/export", exporthandler.New(logger, exportService).ServeHTTP)
			r.Get("/export/history", history.New(logger, exportService).ServeHTTP)

			// Административная поверхность
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnlyMiddleware(logger))

				crud := adminhandler.New(logger, adminService)
				r.Post("/admin/subscriptions/cancel/{id}", cancel.New(logger, subscriptionService).ServeHTTP)
				r.Route("/admin/{resource}", func(r chi.Router) {
					r.Get("/", crud.List)
					r.Post("/", crud.Create)
					r.Get("/stats", crud.Stats)
					r.Put("/{id}", crud.Update)
					r.Delete("/{id}", crud.Delete)
				})
			})
		})
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
