// Package biteplans предоставляет маршруты для основного приложения.
package biteplans

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/biteplans/internal/http/handlers/account/me"
	"github.com/magabrotheeeer/biteplans/internal/http/handlers/account/register"
	"github.com/magabrotheeeer/biteplans/internal/http/handlers/account/update"
	"github.com/magabrotheeeer/biteplans/internal/http/handlers/health"
	"github.com/magabrotheeeer/biteplans/internal/http/handlers/plans/confirm"
	planslist "github.com/magabrotheeeer/biteplans/internal/http/handlers/plans/list"
	"github.com/magabrotheeeer/biteplans/internal/http/handlers/plans/subscribe"
	productslist "github.com/magabrotheeeer/biteplans/internal/http/handlers/products/list"
	productsread "github.com/magabrotheeeer/biteplans/internal/http/handlers/products/read"
	"github.com/magabrotheeeer/biteplans/internal/http/handlers/products/use"
	txlist "github.com/magabrotheeeer/biteplans/internal/http/handlers/transactions/list"
	txread "github.com/magabrotheeeer/biteplans/internal/http/handlers/transactions/read"
	usagelist "github.com/magabrotheeeer/biteplans/internal/http/handlers/usage/list"
	"github.com/magabrotheeeer/biteplans/internal/http/middlewarectx"
	accountservice "github.com/magabrotheeeer/biteplans/internal/services/account"
	catalogservice "github.com/magabrotheeeer/biteplans/internal/services/catalog"
	creditservice "github.com/magabrotheeeer/biteplans/internal/services/credit"
	subservice "github.com/magabrotheeeer/biteplans/internal/services/subscription"
)

// Services собирает зависимости маршрутов.
type Services struct {
	Account      *accountservice.Service
	Catalog      *catalogservice.Service
	Credit       *creditservice.Service
	Subscription *subservice.Service
	Verifier     middlewarectx.Verifier
	Health       health.Pinger
	Limiter      *middlewarectx.RateLimiter
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	// Глобальные middleware. URLFormat не подключаем: он отрезает ".v2" у идентификаторов продуктов.
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(logger, s.Health).ServeHTTP)
		r.Get("/plans", planslist.New(logger, s.Catalog).ServeHTTP)
		r.Get("/products", productslist.New(logger, s.Catalog).ServeHTTP)
		r.Get("/products/{productId}", productsread.New(logger, s.Catalog).ServeHTTP)

		// Группа с проверкой bearer-токена
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.Auth(s.Verifier, logger))
			r.Use(middlewarectx.RateLimitMiddleware(s.Limiter, logger))

			r.Get("/me", me.New(logger, s.Account).ServeHTTP)
			r.Post("/register", register.New(logger, s.Account).ServeHTTP)
			r.Put("/update", update.New(logger, s.Account).ServeHTTP)

			r.Post("/plans/subscribe", subscribe.New(logger, s.Subscription).ServeHTTP)
			r.Post("/plans/confirm-subscription", confirm.New(logger, s.Subscription).ServeHTTP)

			r.With(middlewarectx.TrialGate(s.Account, logger)).
				Post("/products/{productId}/use", use.New(logger, s.Credit).ServeHTTP)

			r.Get("/creditusage", usagelist.New(logger, s.Credit).ServeHTTP)
			r.Get("/transactions", txlist.New(logger, s.Subscription).ServeHTTP)
			r.Get("/transactions/{orderId}", txread.New(logger, s.Subscription).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
