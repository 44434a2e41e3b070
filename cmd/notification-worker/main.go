package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/joho/godotenv"

	"github.com/platebite/platebite-backend/internal/notifications"
	"github.com/platebite/platebite-backend/pkg/config"
	"github.com/platebite/platebite-backend/pkg/db"
	"github.com/platebite/platebite-backend/pkg/logger"
	"github.com/platebite/platebite-backend/pkg/migrate"
	"github.com/platebite/platebite-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "notification-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "notification-worker"

	logg = logger.New(logger.Options{
		ServiceName: "notification-worker",
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	notificationService, err := notifications.NewService(notifications.ServiceParams{
		Repo:   notifications.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	consumer, err := notifications.NewConsumer(notificationService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification consumer", err)
		os.Exit(1)
	}

	subscriber := pubsubClient.NotificationSubscription()
	if subscriber == nil {
		logg.Error(context.Background(), "notification subscription not configured", nil)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "notification-worker",
	})
	logg.Info(ctx, "starting notification worker")

	// Receive blocks until the context is canceled. Handler failures nack so
	// Pub/Sub redelivers; replays are harmless because consumers dedupe on
	// event_id where it matters.
	err = subscriber.Receive(ctx, func(msgCtx context.Context, msg *gcppubsub.Message) {
		if err := consumer.Handle(msgCtx, msg.Attributes, msg.Data); err != nil {
			logg.Error(logg.WithField(msgCtx, "event_type", msg.Attributes["event_type"]), "notification handling failed", err)
			msg.Nack()
			return
		}
		msg.Ack()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "notification worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "notification worker shutting down gracefully")
}
