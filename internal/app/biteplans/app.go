package biteplans

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/biteplans/internal/app/bootstrap"
	"github.com/magabrotheeeer/biteplans/internal/cache"
	"github.com/magabrotheeeer/biteplans/internal/config"
	"github.com/magabrotheeeer/biteplans/internal/http/middlewarectx"
	"github.com/magabrotheeeer/biteplans/internal/lib/sl"
	"github.com/magabrotheeeer/biteplans/internal/paymentprovider"
	accountservice "github.com/magabrotheeeer/biteplans/internal/services/account"
	catalogservice "github.com/magabrotheeeer/biteplans/internal/services/catalog"
	creditservice "github.com/magabrotheeeer/biteplans/internal/services/credit"
	subservice "github.com/magabrotheeeer/biteplans/internal/services/subscription"
	"github.com/magabrotheeeer/biteplans/internal/storage"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     storage.Repository
	cache  *cache.Cache
	broker *bootstrap.Broker
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := bootstrap.OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	verifier, err := bootstrap.NewVerifier(ctx, cfg.Identity)
	if err != nil {
		_ = db.Close(ctx)
		return nil, err
	}

	// Без Redis сервис работает: каталог читается из хранилища, блокировки подтверждения не берутся.
	var (
		catalogCache catalogservice.Cache
		locker       subservice.Locker
	)
	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		logger.Warn("redis unavailable, running without cache", sl.Err(err))
	} else {
		catalogCache = cacheRedis
		locker = cacheRedis
	}

	publisher, broker := bootstrap.NewPublisher(ctx, cfg.RabbitMQ, logger)
	processor := paymentprovider.NewClient(cfg.PayPal)

	accountService := accountservice.NewAccountService(db, logger)
	catalogService := catalogservice.NewCatalogService(db, catalogCache, cfg.CatalogTTL, logger)
	creditService := creditservice.NewCreditService(db, publisher, logger)
	subscriptionService := subservice.NewSubscriptionService(db, processor, locker, publisher, cfg.ConfirmLockTTL, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Account:      accountService,
		Catalog:      catalogService,
		Credit:       creditService,
		Subscription: subscriptionService,
		Verifier:     verifier,
		Health:       db,
		Limiter:      middlewarectx.NewRateLimiter(cfg.RPS, cfg.Burst),
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP + cfg.TimeoutPayPal,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		broker: broker,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	a.broker.Close(a.logger)
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.db.Close(ctx); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
