package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/drinkroute/distribution-backend/api/routes"
	"github.com/drinkroute/distribution-backend/internal/counterparties"
	"github.com/drinkroute/distribution-backend/internal/debts"
	"github.com/drinkroute/distribution-backend/internal/dispatches"
	"github.com/drinkroute/distribution-backend/internal/incoming"
	"github.com/drinkroute/distribution-backend/internal/products"
	"github.com/drinkroute/distribution-backend/internal/returns"
	"github.com/drinkroute/distribution-backend/internal/sales"
	"github.com/drinkroute/distribution-backend/internal/shoporders"
	"github.com/drinkroute/distribution-backend/internal/shops"
	"github.com/drinkroute/distribution-backend/internal/stock"
	"github.com/drinkroute/distribution-backend/internal/transfer"
	"github.com/drinkroute/distribution-backend/internal/users"
	"github.com/drinkroute/distribution-backend/pkg/auth/session"
	"github.com/drinkroute/distribution-backend/pkg/config"
	"github.com/drinkroute/distribution-backend/pkg/db"
	"github.com/drinkroute/distribution-backend/pkg/instance"
	"github.com/drinkroute/distribution-backend/pkg/logger"
	"github.com/drinkroute/distribution-backend/pkg/metrics"
	"github.com/drinkroute/distribution-backend/pkg/migrate"
	"github.com/drinkroute/distribution-backend/pkg/outbox"
	"github.com/drinkroute/distribution-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		fail(logg, "failed to load config", err)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		fail(logg, "failed to bootstrap database", err)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		fail(logg, "failed to run dev migrations", err)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		fail(logg, "failed to bootstrap redis", err)
	}
	defer func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing clients", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient)
	if err != nil {
		fail(logg, "failed to create session manager", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	services, err := buildServices(cfg, logg, dbClient, redisClient, registry)
	if err != nil {
		fail(logg, "failed to wire services", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID("api-0"),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, registry, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

// buildServices wires every ledger service onto one executor and one outbox.
func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, reg prometheus.Registerer) (routes.Services, error) {
	conn := dbClient.DB()

	executor, err := transfer.NewExecutor(dbClient, metrics.NewTransferMetrics(reg), logg, transfer.Options{
		MaxAttempts: cfg.Ledger.TransferMaxAttempts,
		Backoff:     cfg.Ledger.TransferRetryBackoff,
	})
	if err != nil {
		return routes.Services{}, err
	}
	events := outbox.NewService(outbox.NewRepository(conn), logg)
	stockRepo := stock.NewRepository(conn)
	shopRepo := shops.NewRepository(conn)
	cpRepo := counterparties.NewRepository(conn)

	var out routes.Services
	var errs error
	collect := func(err error) { errs = multierr.Append(errs, err) }

	usersSvc, err := users.NewService(users.NewRepository(conn))
	collect(err)
	out.Users = usersSvc

	incomingSvc, err := incoming.NewService(incoming.NewRepository(conn), stockRepo, executor, events)
	collect(err)
	out.Incoming = incomingSvc

	out.Products, err = products.NewService(products.NewRepository(conn), dbClient, incomingSvc)
	collect(err)

	dispatchOpts := dispatches.Options{LockTTL: cfg.Ledger.AcceptLockTTL}
	if cfg.FeatureFlags.AcceptLock {
		dispatchOpts.Locker = redisClient
	}
	out.Dispatches, err = dispatches.NewService(dispatches.NewRepository(conn), stockRepo, executor, events, usersSvc, dispatchOpts)
	collect(err)

	out.ShopOrders, err = shoporders.NewService(shoporders.NewRepository(conn), shopRepo, stockRepo, executor, events)
	collect(err)

	out.Sales, err = sales.NewService(sales.NewRepository(conn), cpRepo, stockRepo, executor, events, cfg.Ledger.Epsilon())
	collect(err)

	out.Returns, err = returns.NewService(returns.NewRepository(conn), shopRepo, stockRepo, executor, events)
	collect(err)

	out.Debts, err = debts.NewService(debts.NewRepository(conn), shopRepo, cpRepo, executor, events)
	collect(err)

	out.Stock, err = stock.NewService(stockRepo)
	collect(err)

	out.Shops, err = shops.NewService(shopRepo)
	collect(err)

	out.Counterparties, err = counterparties.NewService(cpRepo)
	collect(err)

	return out, errs
}

func fail(logg *logger.Logger, msg string, err error) {
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
