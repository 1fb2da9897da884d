package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/simple-store/api/internal/di"
	"github.com/simple-store/api/internal/handlers"
	"github.com/simple-store/api/internal/platform/collections"
	"github.com/simple-store/api/internal/platform/config"
	"github.com/simple-store/api/internal/platform/idempotency"
	"github.com/simple-store/api/internal/platform/observability"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	container, err := di.NewContainer(ctx, cfg, di.Deps{
		Clock:  time.Now,
		Logger: observability.ServiceLogger(),
	})
	if err != nil {
		logger.Fatal("failed to build container", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("container close error", zap.Error(err))
		}
	}()

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
		handlers.RateLimitMiddleware(handlers.NewRateLimiter(cfg.RateLimits.DefaultPerMinute, time.Minute, time.Now)),
	}

	healthHandlers := handlers.NewHealthHandlers(map[string]handlers.ReadinessProbe{
		"store": storeProbe(container.Store),
	})

	authn := container.Authenticator
	svc := container.Services

	productHandlers := handlers.NewProductHandlers(authn, svc.Catalog, svc.Reviews)
	authHandlers := handlers.NewAuthHandlers(svc.Users, container.Tokens)
	cartHandlers := handlers.NewCartHandlers(authn, svc.Cart)
	checkoutGuard := idempotency.Middleware(idempotency.NewMemoryStore(), idempotency.WithErrorLogger(func(event string, err error) {
		logger.Named("idempotency").Warn(event, zap.Error(err))
	}))
	checkoutHandlers := handlers.NewCheckoutHandlers(authn, svc.Checkout, checkoutGuard)
	orderHandlers := handlers.NewOrderHandlers(authn, svc.Orders)
	meHandlers := handlers.NewMeHandlers(authn, svc.Users)
	reviewHandlers := handlers.NewReviewHandlers(authn, svc.Reviews)
	adminHandlers := handlers.NewAdminHandlers(authn, svc.Catalog, svc.Users, svc.Orders, svc.Reviews)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithProductRoutes(productHandlers.Routes),
		handlers.WithAuthRoutes(authHandlers.Routes),
		handlers.WithAuthMiddlewares(handlers.RateLimitMiddleware(handlers.NewRateLimiter(cfg.RateLimits.AuthenticatedPerMinute, time.Minute, time.Now))),
		handlers.WithCartRoutes(cartHandlers.Routes),
		handlers.WithCheckoutRoutes(checkoutHandlers.Routes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithMeRoutes(meHandlers.Routes),
		handlers.WithReviewRoutes(reviewHandlers.Routes),
		handlers.WithAdminRoutes(adminHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("simple-store api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func storeProbe(store collections.Store) handlers.ReadinessProbe {
	return func(ctx context.Context) error {
		if pinger, ok := store.(interface{ Ping(context.Context) error }); ok {
			return pinger.Ping(ctx)
		}
		_, err := store.Read(ctx, collections.Products)
		return err
	}
}
