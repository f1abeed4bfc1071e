package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boiler360/storefront-backend/api/routes"
	cartsvc "github.com/boiler360/storefront-backend/internal/cart"
	"github.com/boiler360/storefront-backend/internal/catalog"
	"github.com/boiler360/storefront-backend/internal/identity"
	"github.com/boiler360/storefront-backend/internal/orders"
	"github.com/boiler360/storefront-backend/pkg/config"
	"github.com/boiler360/storefront-backend/pkg/db"
	"github.com/boiler360/storefront-backend/pkg/logger"
	"github.com/boiler360/storefront-backend/pkg/metrics"
	"github.com/boiler360/storefront-backend/pkg/migrate"
	"github.com/boiler360/storefront-backend/pkg/oauth"
	"github.com/boiler360/storefront-backend/pkg/redis"
	"github.com/joho/godotenv"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var provider oauth.Provider
	if cfg.OAuth.ClientID != "" {
		client, err := oauth.NewClient(cfg.OAuth)
		if err != nil {
			logg.Error(context.Background(), "failed to create oauth client", err)
			os.Exit(1)
		}
		provider = client
	} else {
		logg.Warn(context.Background(), "oauth client id unset, external login disabled")
	}

	catalogSvc, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	identitySvc, err := identity.NewService(identity.NewRepository(dbClient.DB()), provider, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create identity service", err)
		os.Exit(1)
	}

	locks := cartsvc.NewLocks()
	cartService, err := cartsvc.NewService(cartsvc.NewRepository(dbClient.DB()), catalogSvc, locks)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	orderSvc, err := orders.NewService(orders.NewRepository(dbClient.DB()), cartsvc.NewRepository(dbClient.DB()), catalogSvc, dbClient, locks)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	if cfg.App.IsDev() && cfg.FeatureFlags.SeedDemo {
		if err := seedDemoCatalog(context.Background(), catalogSvc, logg); err != nil {
			logg.Error(context.Background(), "failed to seed demo catalog", err)
			os.Exit(1)
		}
	}

	handler := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		DBPinger: dbClient,
		Limiter:  redisClient,
		Metrics:  metrics.NewHTTPMetrics(),
		Identity: identitySvc,
		Catalog:  catalogSvc,
		Cart:     cartService,
		Orders:   orderSvc,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
