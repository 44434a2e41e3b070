package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/platebite/platebite-backend/api/routes"
	"github.com/platebite/platebite-backend/internal/notifications"
	"github.com/platebite/platebite-backend/internal/orders"
	"github.com/platebite/platebite-backend/internal/payments"
	"github.com/platebite/platebite-backend/internal/payouts"
	"github.com/platebite/platebite-backend/internal/promo"
	stripewebhook "github.com/platebite/platebite-backend/internal/webhooks/stripe"
	"github.com/platebite/platebite-backend/pkg/config"
	"github.com/platebite/platebite-backend/pkg/db"
	"github.com/platebite/platebite-backend/pkg/logger"
	"github.com/platebite/platebite-backend/pkg/metrics"
	"github.com/platebite/platebite-backend/pkg/migrate"
	"github.com/platebite/platebite-backend/pkg/money"
	"github.com/platebite/platebite-backend/pkg/outbox"
	"github.com/platebite/platebite-backend/pkg/redis"
	pkgstripe "github.com/platebite/platebite-backend/pkg/stripe"
)

const (
	webhookIdempotencyScope = "stripe-webhook"
	shutdownTimeout         = 15 * time.Second
)

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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	rates, err := money.RatesFromConfig(cfg.Fees)
	if err != nil {
		logg.Error(context.Background(), "invalid fee schedule", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	promoService, err := promo.NewService(promo.ServiceParams{
		Repo:   promo.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create promo service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		DB:     dbClient,
		Repo:   orders.NewRepository(dbClient.DB()),
		Promo:  promoService,
		Events: outboxService,
		Rates:  rates,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		DB:       dbClient,
		Accounts: payments.NewAccountsRepository(dbClient.DB()),
		Orders:   orderService,
		Stripe:   payments.NewStripeClient(stripeClient),
		Events:   outboxService,
		Rates:    rates,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	payoutService, err := payouts.NewService(payouts.ServiceParams{
		Repo:   payouts.NewRepository(dbClient.DB()),
		Rates:  rates,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payout service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notifications.ServiceParams{
		Repo:   notifications.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Orders:   orderService,
		Payments: paymentService,
		Metrics:  metrics.NewEventingMetrics(prometheus.DefaultRegisterer),
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, webhookIdempotencyScope)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	router, err := routes.NewRouter(routes.RouterParams{
		Orders:              orderService,
		Payments:            paymentService,
		Payouts:             payoutService,
		Notifications:       notificationService,
		Webhooks:            webhookService,
		WebhookGuard:        webhookGuard,
		StripeSigningSecret: stripeClient.SigningSecret(),
		DB:                  dbClient,
		Redis:               redisClient,
		Logger:              logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build router", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
